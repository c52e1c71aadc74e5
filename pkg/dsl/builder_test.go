package dsl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/spindle"
	"github.com/aretw0/spindle/pkg/domain"
)

const gateSource = `
title: Start
mood: stern
---
<<set $met to true>>
Guard: Halt! Who goes there? #line:halt
-> Guard: A friend
    <<jump Gate>>
-> Nobody <<if $met == false>>
    <<jump Start>>
-> Run
    <<jump Away>>
===

title: Gate
---
<<play gate.ogg>>
Guard: Pass.
===

title: Away
---
You flee.
<<jump Gate>>
===
`

func gateBuilder() *Builder {
	b := New()
	b.Add("Start").
		Header("mood", "stern").
		Set("met", true).
		Say("Guard", "Halt! Who goes there?", domain.Tag{Name: "line", Value: "halt"}).
		Option("A friend", "Gate").Speaker("Guard").
		Option("Nobody", "Start").When("met", domain.Equal, false).
		Option("Run", "Away")
	b.Add("Gate").
		Run("play", "gate.ogg").
		Say("Guard", "Pass.")
	b.Add("Away").
		Say("", "You flee.").
		Jump("Gate")
	return b
}

func TestBuilder_MatchesParsedSource(t *testing.T) {
	built, err := gateBuilder().Build()
	require.NoError(t, err)

	parsed, err := spindle.Load(gateSource)
	require.NoError(t, err)

	assert.Equal(t, parsed.Titles(), built.Titles())
	for _, title := range parsed.Titles() {
		assert.Equal(t, parsed.Node(title).Lines, built.Node(title).Lines, title)
		assert.Equal(t, parsed.Node(title).Headers, built.Node(title).Headers, title)
	}
}

func TestBuilder_KeepsInsertionOrder(t *testing.T) {
	b := New()
	b.Add("Zeta").Say("", "z")
	b.Add("Alpha").Say("", "a")
	b.Add("Zeta").Say("", "again")

	nodes := b.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "Zeta", nodes[0].Title)
	assert.Equal(t, 1, nodes[0].Position)
	assert.Len(t, nodes[0].Lines, 2)
	assert.Equal(t, "Alpha", nodes[1].Title)
}

func TestBuilder_SeparateOptionBlocks(t *testing.T) {
	b := New()
	b.Add("Start").
		Option("One", "End").
		Say("", "between").
		Option("Two", "End")
	b.Add("End").Say("", "done")

	d, err := b.Build()
	require.NoError(t, err)

	lines := d.Node("Start").Lines
	require.Len(t, lines, 3)
	assert.IsType(t, domain.OptionLine{}, lines[0])
	assert.IsType(t, domain.OptionLine{}, lines[2])
}

func TestBuilder_Misuse(t *testing.T) {
	b := New()
	b.Add("Start").
		Say("", "hi").
		When("x", domain.Equal, true).
		Speaker("Nobody").
		Header("title", "Other")

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "When must follow Option")
	assert.Contains(t, err.Error(), "Speaker must follow Option")
	assert.Contains(t, err.Error(), "title header is set by Add")
}

func TestBuilder_DoubleCondition(t *testing.T) {
	b := New()
	b.Add("Start").
		Option("Go", "Start").
		When("a", domain.Equal, true).
		When("b", domain.Equal, true)

	_, err := b.Build()
	assert.ErrorContains(t, err, `option "Go" already has a condition`)
}

func TestBuilder_UnknownTarget(t *testing.T) {
	b := New()
	b.Add("Start").Jump("Nowhere")

	_, err := b.Build()
	assert.ErrorIs(t, err, domain.ErrUnknownNode)
}

func TestBuilder_EmptyNode(t *testing.T) {
	b := New()
	b.Add("Start")

	_, err := b.Build()
	assert.ErrorContains(t, err, `node "Start" has no lines`)
}

func TestBuilder_Plays(t *testing.T) {
	d, err := gateBuilder().Build()
	require.NoError(t, err)

	r, err := spindle.NewRunner(d, "Start")
	require.NoError(t, err)
	ctx := context.Background()

	ev, err := r.NextEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Halt! Who goes there?", ev.Text)

	ev, err = r.NextEvent(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.EventOptions, ev.Type)
	assert.Equal(t, "Guard", ev.Speaker)
	assert.Equal(t, []domain.Option{
		{Text: "A friend", Node: "Gate"},
		{Text: "Run", Node: "Away"},
	}, ev.Options)

	require.NoError(t, r.MakeDecision(ctx, "Run"))
	ev, err = r.NextEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "You flee.", ev.Text)
}
