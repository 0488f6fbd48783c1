package challenge

import (
	"net/http"
	"strings"
)

// Middleware returns a middleware that answers ACME HTTP-01 challenge
// requests from the token store. Requests outside the challenge path pass
// through to the next handler untouched, so the middleware can sit in front
// of an application serving regular traffic on port 80.
func Middleware(store TokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, Path) {
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimPrefix(r.URL.Path, Path)
			keyAuth, err := store.Get(r.Context(), token)
			if err != nil {
				http.NotFound(w, r)
				return
			}

			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(keyAuth))
		})
	}
}
