package domain

import "fmt"

// Cursor is the runner's position: a node title and a line index inside it.
type Cursor struct {
	Node string `json:"node"`
	Line int    `json:"line"`
}

func (c Cursor) String() string {
	return fmt.Sprintf("%s:%d", c.Node, c.Line)
}

// UseKey identifies one option possibility for used-tracking.
type UseKey struct {
	Node   NodeRef
	Line   int
	Option int
}
