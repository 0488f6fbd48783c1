package certstore

import "context"

// Mirror replicates issued certificate material to a secondary location,
// such as an object store shared between replicas. The name argument is one
// of KeyFile or ChainFile.
type Mirror interface {
	Put(ctx context.Context, name string, data []byte) error
}
