package domain

import (
	"fmt"
	"sort"
)

// Dialog is the resolved node graph of one loaded script.
// Nodes live in an arena addressed by NodeRef; jump and option targets hold
// refs into the same arena, so cycles need no special handling.
// A Dialog is read-only once built and may be shared by many runners.
type Dialog struct {
	nodes []Node
	index map[string]NodeRef
}

// NewDialog checks titles for uniqueness and resolves every jump and option
// target. It never returns a partially resolved dialog.
func NewDialog(drafts []Node) (*Dialog, error) {
	d := &Dialog{
		nodes: make([]Node, len(drafts)),
		index: make(map[string]NodeRef, len(drafts)),
	}

	positions := make(map[string][]int)
	for i, n := range drafts {
		positions[n.Title] = append(positions[n.Title], n.Position)
		if _, seen := d.index[n.Title]; !seen {
			d.index[n.Title] = NodeRef(i)
		}
	}
	for i, n := range drafts {
		if p := positions[n.Title]; len(p) > 1 && d.index[n.Title] == NodeRef(i) {
			return nil, &DuplicateNodeError{Title: n.Title, Positions: p}
		}
	}

	for i, n := range drafts {
		if len(n.Lines) == 0 {
			return nil, fmt.Errorf("node %q has no lines", n.Title)
		}
		resolved, err := d.resolveLines(n)
		if err != nil {
			return nil, err
		}
		n.Lines = resolved
		d.nodes[i] = n
	}
	return d, nil
}

func (d *Dialog) resolveLines(n Node) ([]Line, error) {
	out := make([]Line, len(n.Lines))
	for i, line := range n.Lines {
		switch l := line.(type) {
		case JumpLine:
			ref, ok := d.index[l.Target]
			if !ok {
				return nil, &UnknownNodeError{Title: l.Target, From: n.Title}
			}
			l.Ref = ref
			out[i] = l
		case OptionLine:
			if len(l.Possibilities) == 0 {
				return nil, fmt.Errorf("node %q has an option line without possibilities", n.Title)
			}
			possibilities := make([]OptionPossibility, len(l.Possibilities))
			for j, p := range l.Possibilities {
				ref, ok := d.index[p.Target]
				if !ok {
					return nil, &UnknownNodeError{Title: p.Target, From: n.Title}
				}
				p.Ref = ref
				possibilities[j] = p
			}
			l.Possibilities = possibilities
			out[i] = l
		default:
			out[i] = line
		}
	}
	return out, nil
}

// Len returns the number of nodes.
func (d *Dialog) Len() int { return len(d.nodes) }

// Lookup returns the ref of the node with the given title.
func (d *Dialog) Lookup(title string) (NodeRef, bool) {
	ref, ok := d.index[title]
	return ref, ok
}

// At returns the node addressed by ref. The pointer stays valid for the
// lifetime of the Dialog; callers must not mutate it.
func (d *Dialog) At(ref NodeRef) *Node {
	if ref < 0 || int(ref) >= len(d.nodes) {
		return nil
	}
	return &d.nodes[ref]
}

// Node returns the node with the given title, or nil.
func (d *Dialog) Node(title string) *Node {
	ref, ok := d.index[title]
	if !ok {
		return nil
	}
	return &d.nodes[ref]
}

// Nodes returns the nodes in source order.
func (d *Dialog) Nodes() []Node {
	out := make([]Node, len(d.nodes))
	copy(out, d.nodes)
	return out
}

// Titles returns all node titles sorted alphabetically.
func (d *Dialog) Titles() []string {
	titles := make([]string, 0, len(d.index))
	for t := range d.index {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// Edges returns the titles reachable in one step from the given node,
// in line order, without duplicates.
func (d *Dialog) Edges(title string) []string {
	n := d.Node(title)
	if n == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, line := range n.Lines {
		switch l := line.(type) {
		case JumpLine:
			add(l.Target)
		case OptionLine:
			for _, p := range l.Possibilities {
				add(p.Target)
			}
		}
	}
	return out
}
