package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/spindle/pkg/domain"
)

// Builder manages the dialog construction.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new dialog builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the dialog.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(title string) *NodeBuilder {
	if nb, ok := b.nodes[title]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			Title:   title,
			Headers: map[string]string{"title": title},
		},
		builder: b,
	}
	b.order = append(b.order, title)
	b.nodes[title] = nb
	return nb
}

// Nodes returns the unresolved nodes in the order they were added.
func (b *Builder) Nodes() []domain.Node {
	nodes := make([]domain.Node, 0, len(b.order))
	for i, title := range b.order {
		n := b.nodes[title].node
		n.Position = i + 1
		nodes = append(nodes, n)
	}
	return nodes
}

// Build resolves the nodes into a Dialog.
// Misuse recorded while chaining is reported here, before resolution.
func (b *Builder) Build() (*domain.Dialog, error) {
	var errs []error
	for _, title := range b.order {
		errs = append(errs, b.nodes[title].errs...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	dialog, err := domain.NewDialog(b.Nodes())
	if err != nil {
		return nil, fmt.Errorf("failed to build dialog: %w", err)
	}
	return dialog, nil
}
