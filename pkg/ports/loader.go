package ports

import "context"

// Script is a stored dialog: its source text plus library metadata.
type Script struct {
	ID          string `json:"id"`
	Start       string `json:"start,omitempty"`
	Description string `json:"description,omitempty"`
	Source      string `json:"-"`
}

// ScriptLoader defines how hosts retrieve dialog scripts by ID.
// This allows the library backend (Loam, Memory) to be decoupled.
type ScriptLoader interface {
	// GetScript returns the script with the given ID.
	// Returns domain.ErrDialogNotFound if it does not exist.
	GetScript(ctx context.Context, id string) (Script, error)

	// ListScripts returns the IDs of all available scripts.
	ListScripts(ctx context.Context) ([]string, error)
}
