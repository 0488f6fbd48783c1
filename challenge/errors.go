package challenge

import "errors"

// ErrTokenNotFound is returned when no key authorization exists for a token.
var ErrTokenNotFound = errors.New("challenge token not found")
