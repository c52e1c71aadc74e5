package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/spindle/internal/compiler"
	"github.com/aretw0/spindle/internal/runtime"
	"github.com/aretw0/spindle/pkg/adapters/memory"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/registry"
)

func load(t *testing.T, src string) *domain.Dialog {
	t.Helper()
	nodes, err := compiler.Parse(src)
	require.NoError(t, err)
	d, err := domain.NewDialog(nodes)
	require.NoError(t, err)
	return d
}

func next(t *testing.T, r *runtime.Runner) domain.Event {
	t.Helper()
	ev, err := r.NextEvent(context.Background())
	require.NoError(t, err)
	return ev
}

const scenario = `
title: Start
---
<<set $met to true>>
Narrator: Hello
<<jump Start2>>
===

title: Start2
---
-> Leave
    <<jump End>>
-> Stay <<if $met == true>>
    <<jump Start>>
===

title: End
---
Narrator: Bye
===
`

func TestRunner_EndToEnd(t *testing.T) {
	vars := memory.NewVariables()
	r, err := runtime.NewRunner(load(t, scenario), "Start", runtime.WithVariables(vars))
	require.NoError(t, err)
	ctx := context.Background()

	ev := next(t, r)
	if diff := cmp.Diff(domain.Event{Type: domain.EventDialog, Speaker: "Narrator", Text: "Hello"}, ev); diff != "" {
		t.Fatalf("first event mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, domain.StateDialog, r.State())

	ev = next(t, r)
	want := domain.Event{Type: domain.EventOptions, Options: []domain.Option{
		{Text: "Leave", Node: "End", Used: false},
		{Text: "Stay", Node: "Start", Used: false},
	}}
	if diff := cmp.Diff(want, ev); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, domain.StateWaiting, r.State())
	assert.Equal(t, domain.Cursor{Node: "Start2", Line: 0}, r.Cursor())

	require.NoError(t, r.MakeDecision(ctx, "Start"))
	assert.True(t, r.Used("Start2", 0, 1))
	assert.False(t, r.Used("Start2", 0, 0))
	assert.Equal(t, domain.StateStart, r.State())
	assert.Equal(t, domain.Cursor{Node: "Start", Line: 0}, r.Cursor())

	ev = next(t, r)
	assert.Equal(t, domain.Event{Type: domain.EventDialog, Speaker: "Narrator", Text: "Hello"}, ev)

	ev = next(t, r)
	require.Equal(t, domain.EventOptions, ev.Type)
	assert.True(t, ev.Options[1].Used, "used flag is reported on the next presentation")

	require.NoError(t, r.MakeDecision(ctx, "End"))
	ev = next(t, r)
	assert.Equal(t, "Bye", ev.Text)
	assert.Equal(t, domain.StateEnd, r.State(), "last dialog line ends the dialog but still yields its event")
	assert.Equal(t, domain.EndEvent(), next(t, r))
}

func TestRunner_StartingNodeNotFound(t *testing.T) {
	_, err := runtime.NewRunner(load(t, scenario), "Nope")
	assert.ErrorIs(t, err, domain.ErrStartingNodeNotFound)

	var snf *domain.StartingNodeNotFoundError
	require.ErrorAs(t, err, &snf)
	assert.Equal(t, "Nope", snf.Title)
}

// countingVars records writes so idempotence can be checked.
type countingVars struct {
	*memory.Variables
	sets int
	gets int
}

func (c *countingVars) Get(ctx context.Context, key string) (bool, bool, error) {
	c.gets++
	return c.Variables.Get(ctx, key)
}

func (c *countingVars) Set(ctx context.Context, key string, value bool) error {
	c.sets++
	return c.Variables.Set(ctx, key, value)
}

func TestRunner_IdempotentInWaitingAndEnd(t *testing.T) {
	vars := &countingVars{Variables: memory.NewVariables()}
	r, err := runtime.NewRunner(load(t, scenario), "Start", runtime.WithVariables(vars))
	require.NoError(t, err)

	next(t, r)
	next(t, r)
	require.Equal(t, domain.StateWaiting, r.State())
	sets, gets, cursor := vars.sets, vars.gets, r.Cursor()

	for i := 0; i < 3; i++ {
		assert.Equal(t, domain.WaitingEvent(), next(t, r))
	}
	assert.Equal(t, sets, vars.sets)
	assert.Equal(t, gets, vars.gets)
	assert.Equal(t, cursor, r.Cursor())

	require.NoError(t, r.ResetTo("End"))
	next(t, r)
	require.Equal(t, domain.StateEnd, r.State())
	for i := 0; i < 3; i++ {
		assert.Equal(t, domain.EndEvent(), next(t, r))
	}
}

func TestRunner_ConditionalFiltering(t *testing.T) {
	src := `
title: Q
---
-> First <<if $flag == true>>
    <<jump A>>
-> Second <<if $flag == false>>
    <<jump B>>
===
title: A
---
a
===
title: B
---
b
===
`
	d := load(t, src)

	r, err := runtime.NewRunner(d, "Q", runtime.WithVariables(memory.NewVariables(map[string]bool{"flag": true})))
	require.NoError(t, err)
	ev := next(t, r)
	require.Len(t, ev.Options, 1)
	assert.Equal(t, "First", ev.Options[0].Text)

	// Choosing a filtered-out target is rejected.
	err = r.MakeDecision(context.Background(), "B")
	assert.ErrorIs(t, err, domain.ErrUnknownChoice)
	assert.Equal(t, domain.StateWaiting, r.State())
}

func TestRunner_UnsetVariableFailsClosed(t *testing.T) {
	src := `
title: Q
---
-> Eq <<if $ghost == false>>
    <<jump Q>>
-> Neq <<if $ghost != true>>
    <<jump Q>>
-> Free
    <<jump Q>>
===
`
	r, err := runtime.NewRunner(load(t, src), "Q")
	require.NoError(t, err)
	ev := next(t, r)
	require.Len(t, ev.Options, 1)
	assert.Equal(t, "Free", ev.Options[0].Text)
}

func TestRunner_AllOptionsHiddenWaits(t *testing.T) {
	src := `
title: Q
---
-> Secret <<if $ghost == true>>
    <<jump Q>>
After.
===
`
	r, err := runtime.NewRunner(load(t, src), "Q")
	require.NoError(t, err)
	ctx := context.Background()

	ev := next(t, r)
	assert.Equal(t, domain.EventOptions, ev.Type)
	assert.Empty(t, ev.Options)
	assert.Equal(t, domain.StateWaiting, r.State())
	assert.Empty(t, r.Pending())
	assert.Equal(t, domain.Cursor{Node: "Q", Line: 0}, r.Cursor())

	assert.ErrorIs(t, r.MakeDecision(ctx, "Q"), domain.ErrUnknownChoice)
	assert.Equal(t, domain.EventWaiting, next(t, r).Type)

	require.NoError(t, r.ResetTo("Q"))
	assert.Equal(t, domain.EventOptions, next(t, r).Type)
}

func TestRunner_DecisionWrongState(t *testing.T) {
	r, err := runtime.NewRunner(load(t, scenario), "Start")
	require.NoError(t, err)
	ctx := context.Background()

	err = r.MakeDecision(ctx, "Start")
	var ws *domain.WrongStateError
	require.ErrorAs(t, err, &ws)
	assert.Equal(t, domain.StateStart, ws.Current)
	assert.Equal(t, domain.StateWaiting, ws.Expected)
	assert.Equal(t, domain.StateStart, r.State())
	assert.Equal(t, domain.Cursor{Node: "Start", Line: 0}, r.Cursor())

	next(t, r)
	assert.ErrorIs(t, r.Choose(ctx, 0), domain.ErrWrongState)
	assert.Equal(t, domain.StateDialog, r.State())
}

func TestRunner_Choose(t *testing.T) {
	r, err := runtime.NewRunner(load(t, scenario), "Start2", runtime.WithVariables(memory.NewVariables(map[string]bool{"met": true})))
	require.NoError(t, err)
	ctx := context.Background()

	ev := next(t, r)
	require.Len(t, ev.Options, 2)
	assert.Equal(t, ev.Options, r.Pending())

	assert.ErrorIs(t, r.Choose(ctx, 2), domain.ErrUnknownChoice)
	assert.ErrorIs(t, r.Choose(ctx, -1), domain.ErrUnknownChoice)

	require.NoError(t, r.Choose(ctx, 0))
	assert.True(t, r.Used("Start2", 0, 0))
	assert.Nil(t, r.Pending())
	assert.Equal(t, "Bye", next(t, r).Text)
}

func TestRunner_DuplicateTargetsPickFirstVisible(t *testing.T) {
	src := `
title: Q
---
-> Hidden <<if $x == true>>
    <<jump T>>
-> Shown
    <<jump T>>
-> Also
    <<jump T>>
===
title: T
---
t
===
`
	r, err := runtime.NewRunner(load(t, src), "Q")
	require.NoError(t, err)
	next(t, r)

	require.NoError(t, r.MakeDecision(context.Background(), "T"))
	assert.False(t, r.Used("Q", 0, 0))
	assert.True(t, r.Used("Q", 0, 1))
	assert.False(t, r.Used("Q", 0, 2))
}

func TestRunner_ResetTo(t *testing.T) {
	r, err := runtime.NewRunner(load(t, scenario), "Start")
	require.NoError(t, err)

	next(t, r)
	next(t, r)
	require.NoError(t, r.ResetTo("End"))
	assert.Equal(t, domain.StateStart, r.State())
	assert.Equal(t, domain.Cursor{Node: "End", Line: 0}, r.Cursor())
	assert.Nil(t, r.Pending())

	err = r.ResetTo("Missing")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	assert.Equal(t, domain.Cursor{Node: "End", Line: 0}, r.Cursor())
}

func TestRunner_PastLastLineWithoutEvent(t *testing.T) {
	src := "title: S\n---\n<<set $x to true>>\n===\n"
	vars := memory.NewVariables()
	r, err := runtime.NewRunner(load(t, src), "S", runtime.WithVariables(vars))
	require.NoError(t, err)

	assert.Equal(t, domain.EndEvent(), next(t, r))
	assert.Equal(t, domain.StateEnd, r.State())
	value, ok, _ := vars.Get(context.Background(), "x")
	assert.True(t, ok)
	assert.True(t, value)
}

func TestRunner_IndependentUsedOverlays(t *testing.T) {
	d := load(t, scenario)
	vars := memory.NewVariables(map[string]bool{"met": true})
	a, err := runtime.NewRunner(d, "Start2", runtime.WithVariables(vars))
	require.NoError(t, err)
	b, err := runtime.NewRunner(d, "Start2", runtime.WithVariables(vars))
	require.NoError(t, err)

	next(t, a)
	require.NoError(t, a.MakeDecision(context.Background(), "End"))

	ev := next(t, b)
	assert.False(t, ev.Options[0].Used, "runners sharing a dialog must not share used flags")
	assert.True(t, a.Used("Start2", 0, 0))
}

type scene struct {
	played []string
}

func TestRunner_Commands(t *testing.T) {
	src := `
title: S
---
<<play door "big bell">>
Done.
===
`
	host := &scene{}
	reg := registry.NewBuilder().
		Register("play", func(ctx context.Context, h any, args []string) error {
			h.(*scene).played = append(h.(*scene).played, args...)
			return nil
		}).
		Build()

	r, err := runtime.NewRunner(load(t, src), "S", runtime.WithCommands(reg), runtime.WithHost(host))
	require.NoError(t, err)
	assert.Equal(t, "Done.", next(t, r).Text)
	assert.Equal(t, []string{"door", "big bell"}, host.played)
}

func TestRunner_UnregisteredCommandIsFatal(t *testing.T) {
	src := "title: S\n---\n<<explode now>>\nAfter.\n===\n"
	r, err := runtime.NewRunner(load(t, src), "S")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = r.NextEvent(ctx)
	assert.ErrorIs(t, err, domain.ErrUnregisteredCommand)
	var unreg *domain.UnregisteredCommandError
	require.ErrorAs(t, err, &unreg)
	assert.Equal(t, "explode", unreg.Name)
	assert.Equal(t, "S", unreg.Node)

	_, again := r.NextEvent(ctx)
	assert.Same(t, err, again)
	assert.Same(t, err, r.ResetTo("S"))
	assert.Same(t, err, r.Err())
}

func TestRunner_CommandErrorIsRecoverable(t *testing.T) {
	boom := errors.New("speaker offline")
	reg := registry.NewBuilder().
		Register("beep", func(context.Context, any, []string) error { return boom }).
		Build()

	src := "title: S\n---\n<<beep>>\nAfter.\n===\n"
	r, err := runtime.NewRunner(load(t, src), "S", runtime.WithCommands(reg))
	require.NoError(t, err)

	_, err = r.NextEvent(context.Background())
	assert.ErrorIs(t, err, boom)
	var ce *domain.CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "beep", ce.Name)

	assert.Equal(t, "After.", next(t, r).Text, "cursor moved past the failed command")
	assert.NoError(t, r.Err())
}

type failingVars struct{ memory.Variables }

var errStore = errors.New("store down")

func (f *failingVars) Set(context.Context, string, bool) error { return errStore }

func TestRunner_StoreErrorLeavesCursor(t *testing.T) {
	src := "title: S\n---\n<<set $x to true>>\nAfter.\n===\n"
	r, err := runtime.NewRunner(load(t, src), "S", runtime.WithVariables(&failingVars{}))
	require.NoError(t, err)

	_, err = r.NextEvent(context.Background())
	assert.ErrorIs(t, err, errStore)
	assert.Equal(t, domain.Cursor{Node: "S", Line: 0}, r.Cursor())
	assert.NoError(t, r.Err())
}

func TestRunner_StepLimit(t *testing.T) {
	src := `
title: A
---
<<jump B>>
===
title: B
---
<<jump A>>
===
`
	r, err := runtime.NewRunner(load(t, src), "A", runtime.WithStepLimit(50))
	require.NoError(t, err)

	_, err = r.NextEvent(context.Background())
	assert.ErrorIs(t, err, domain.ErrStepLimit)
	_, again := r.NextEvent(context.Background())
	assert.ErrorIs(t, again, domain.ErrStepLimit)
}

func TestRunner_LifecycleHooks(t *testing.T) {
	var (
		entered   []string
		events    []domain.EventType
		decisions []domain.DecisionEvent
		commands  []string
	)
	hooks := domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e domain.NodeEvent) { entered = append(entered, e.From+">"+e.Node) },
		OnEvent:     func(ctx context.Context, e domain.Event) { events = append(events, e.Type) },
		OnDecision:  func(ctx context.Context, e domain.DecisionEvent) { decisions = append(decisions, e) },
		OnCommand:   func(ctx context.Context, e domain.CommandEvent) { commands = append(commands, e.Name) },
	}
	src := scenario + "\ntitle: Cmd\n---\n<<noop>>\n===\n"
	reg := registry.NewBuilder().Register("noop", func(context.Context, any, []string) error { return nil }).Build()

	r, err := runtime.NewRunner(load(t, src), "Start",
		runtime.WithLifecycleHooks(hooks),
		runtime.WithCommands(reg),
		runtime.WithVariables(memory.NewVariables()),
	)
	require.NoError(t, err)
	ctx := context.Background()

	next(t, r)
	next(t, r)
	next(t, r) // Waiting: no hook
	require.NoError(t, r.MakeDecision(ctx, "End"))
	next(t, r)
	require.NoError(t, r.ResetTo("Cmd"))
	next(t, r)

	assert.Equal(t, []string{">Start", "Start>Start2", "Start2>End", ">Cmd"}, entered)
	assert.Equal(t, []domain.EventType{domain.EventDialog, domain.EventOptions, domain.EventDialog, domain.EventEnd}, events)
	require.Len(t, decisions, 1)
	assert.Equal(t, domain.DecisionEvent{Node: "Start2", Line: 0, Option: 0, Target: "End"}, decisions[0])
	assert.Equal(t, []string{"noop"}, commands)
}
