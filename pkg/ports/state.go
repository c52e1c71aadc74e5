package ports

import "context"

// StateContext is the boolean variable store a runner reads conditions from
// and writes <<set>> lines to. Keys are variable names without the "$".
//
// Implementations may be shared by several runners; the runner never caches values.
type StateContext interface {
	// Get returns the stored value. ok is false when the variable was never set.
	Get(ctx context.Context, key string) (value bool, ok bool, err error)

	// Set stores a value, overwriting any previous one.
	Set(ctx context.Context, key string, value bool) error
}

// VariableLister is implemented by state contexts that can enumerate their contents.
// Hosts use it for debugging output and the HTTP/MCP session views.
type VariableLister interface {
	Snapshot(ctx context.Context) (map[string]bool, error)
}
