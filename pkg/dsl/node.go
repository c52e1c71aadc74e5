package dsl

import (
	"fmt"

	"github.com/aretw0/spindle/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
	errs    []error
}

func (n *NodeBuilder) fail(format string, args ...any) *NodeBuilder {
	n.errs = append(n.errs, fmt.Errorf("node %q: "+format, append([]any{n.node.Title}, args...)...))
	return n
}

// Header adds a header to the node. The title header cannot be changed.
func (n *NodeBuilder) Header(key, value string) *NodeBuilder {
	if key == "title" {
		return n.fail("title header is set by Add")
	}
	n.node.Headers[key] = value
	return n
}

// Say appends a dialog line.
func (n *NodeBuilder) Say(speaker, text string, tags ...domain.Tag) *NodeBuilder {
	n.node.Lines = append(n.node.Lines, domain.DialogLine{Speaker: speaker, Text: text, Tags: tags})
	return n
}

// Set appends an assignment to a boolean variable.
func (n *NodeBuilder) Set(variable string, value bool) *NodeBuilder {
	n.node.Lines = append(n.node.Lines, domain.SetLine{Variable: variable, Value: value})
	return n
}

// Run appends a command invocation.
func (n *NodeBuilder) Run(name string, args ...string) *NodeBuilder {
	n.node.Lines = append(n.node.Lines, domain.CommandLine{Name: name, Args: args})
	return n
}

// Jump appends an unconditional jump to the target node.
func (n *NodeBuilder) Jump(target string) *NodeBuilder {
	n.node.Lines = append(n.node.Lines, domain.JumpLine{Target: target, Ref: domain.NoRef})
	return n
}

// Option appends a choice. Consecutive options form a single block.
func (n *NodeBuilder) Option(text, target string) *NodeBuilder {
	p := domain.OptionPossibility{Text: text, Target: target, Ref: domain.NoRef}
	if block, ok := n.lastOptions(); ok {
		block.Possibilities = append(block.Possibilities, p)
		n.node.Lines[len(n.node.Lines)-1] = block
		return n
	}
	n.node.Lines = append(n.node.Lines, domain.OptionLine{Possibilities: []domain.OptionPossibility{p}})
	return n
}

// When guards the most recent option with "$variable kind value".
func (n *NodeBuilder) When(variable string, kind domain.ConditionKind, value bool) *NodeBuilder {
	block, ok := n.lastOptions()
	if !ok {
		return n.fail("When must follow Option")
	}
	last := &block.Possibilities[len(block.Possibilities)-1]
	if last.Condition != nil {
		return n.fail("option %q already has a condition", last.Text)
	}
	last.Condition = &domain.Condition{Variable: variable, Kind: kind, Value: value}
	return n
}

// Speaker attributes the current option block to a speaker.
func (n *NodeBuilder) Speaker(name string) *NodeBuilder {
	block, ok := n.lastOptions()
	if !ok {
		return n.fail("Speaker must follow Option")
	}
	block.Speaker = name
	n.node.Lines[len(n.node.Lines)-1] = block
	return n
}

// Add starts another node on the same builder.
func (n *NodeBuilder) Add(title string) *NodeBuilder {
	return n.builder.Add(title)
}

func (n *NodeBuilder) lastOptions() (domain.OptionLine, bool) {
	if len(n.node.Lines) == 0 {
		return domain.OptionLine{}, false
	}
	block, ok := n.node.Lines[len(n.node.Lines)-1].(domain.OptionLine)
	return block, ok
}
