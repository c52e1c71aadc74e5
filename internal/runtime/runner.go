package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/aretw0/spindle/pkg/adapters/memory"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/aretw0/spindle/pkg/registry"
)

// Runner walks a resolved Dialog one event at a time.
//
// A Runner is not safe for concurrent use; callers serialize NextEvent,
// MakeDecision, Choose and ResetTo. Several runners may share one Dialog.
type Runner struct {
	dialog    *domain.Dialog
	vars      ports.StateContext
	commands  *registry.Registry
	host      any
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	stepLimit int

	node  domain.NodeRef
	line  int
	state domain.DialogState

	// entered is false until the current node has started executing,
	// so OnNodeEnter fires once per visit with a context.
	entered bool
	from    string

	// presented holds the indexes of the possibilities shown in the last
	// options event, in display order.
	presented []int
	used      map[domain.UseKey]bool

	// fault is set by unrecoverable errors and returned by every later call.
	fault error
}

// NewRunner creates a runner positioned on the first line of start.
func NewRunner(dialog *domain.Dialog, start string, opts ...Option) (*Runner, error) {
	ref, ok := dialog.Lookup(start)
	if !ok {
		return nil, &domain.StartingNodeNotFoundError{Title: start}
	}

	r := &Runner{
		dialog:    dialog,
		stepLimit: DefaultStepLimit,
		node:      ref,
		state:     domain.StateStart,
		used:      make(map[domain.UseKey]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.vars == nil {
		r.vars = memory.NewVariables()
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r, nil
}

// Dialog returns the graph this runner walks.
func (r *Runner) Dialog() *domain.Dialog { return r.dialog }

// State returns the current state machine position.
func (r *Runner) State() domain.DialogState { return r.state }

// Cursor returns the current node title and line index.
func (r *Runner) Cursor() domain.Cursor {
	return domain.Cursor{Node: r.dialog.At(r.node).Title, Line: r.line}
}

// Err returns the fault that stopped this runner, if any.
func (r *Runner) Err() error { return r.fault }

// Used reports whether this runner has chosen the given option possibility.
func (r *Runner) Used(title string, line, option int) bool {
	ref, ok := r.dialog.Lookup(title)
	if !ok {
		return false
	}
	return r.used[domain.UseKey{Node: ref, Line: line, Option: option}]
}

// Pending returns the options awaiting a decision, or nil when not Waiting.
func (r *Runner) Pending() []domain.Option {
	if r.state != domain.StateWaiting {
		return nil
	}
	node := r.dialog.At(r.node)
	ol := node.Lines[r.line].(domain.OptionLine)
	out := make([]domain.Option, len(r.presented))
	for i, idx := range r.presented {
		out[i] = r.option(ol, idx)
	}
	return out
}

// NextEvent advances the runner until it produces an observable event.
// In Waiting and End it returns the same event again without side effects.
func (r *Runner) NextEvent(ctx context.Context) (domain.Event, error) {
	if r.fault != nil {
		return domain.Event{}, r.fault
	}
	switch r.state {
	case domain.StateWaiting:
		return domain.WaitingEvent(), nil
	case domain.StateEnd:
		return domain.EndEvent(), nil
	}

	for steps := 0; ; steps++ {
		if r.stepLimit > 0 && steps >= r.stepLimit {
			r.fault = fmt.Errorf("%w: %d steps at %s", domain.ErrStepLimit, steps, r.Cursor())
			r.logger.Error("runner faulted", "cursor", r.Cursor().String(), "err", r.fault)
			return domain.Event{}, r.fault
		}

		node := r.dialog.At(r.node)
		if !r.entered {
			r.entered = true
			r.logger.Debug("entering node", "node", node.Title, "from", r.from)
			if r.hooks.OnNodeEnter != nil {
				r.hooks.OnNodeEnter(ctx, domain.NodeEvent{Node: node.Title, From: r.from})
			}
		}

		if r.line >= len(node.Lines) {
			r.state = domain.StateEnd
			return r.emit(ctx, domain.EndEvent()), nil
		}

		switch l := node.Lines[r.line].(type) {
		case domain.SetLine:
			if err := r.vars.Set(ctx, l.Variable, l.Value); err != nil {
				return domain.Event{}, fmt.Errorf("failed to set $%s in node %s: %w", l.Variable, node.Title, err)
			}
			r.line++

		case domain.CommandLine:
			if err := r.runCommand(ctx, node, l); err != nil {
				return domain.Event{}, err
			}

		case domain.JumpLine:
			r.enter(l.Ref, node.Title)

		case domain.DialogLine:
			r.line++
			if r.line >= len(node.Lines) {
				r.state = domain.StateEnd
			} else {
				r.state = domain.StateDialog
			}
			return r.emit(ctx, domain.DialogEvent(l)), nil

		case domain.OptionLine:
			visible, err := r.filter(ctx, l)
			if err != nil {
				return domain.Event{}, fmt.Errorf("failed to evaluate options in node %s: %w", node.Title, err)
			}
			if len(visible) == 0 {
				// Only ResetTo leaves this state.
				r.logger.Warn("option line has no visible options", "node", node.Title, "line", r.line)
			}
			r.presented = visible
			r.state = domain.StateWaiting
			options := make([]domain.Option, len(visible))
			for i, idx := range visible {
				options[i] = r.option(l, idx)
			}
			return r.emit(ctx, domain.OptionsEvent(l.Speaker, options)), nil

		default:
			return domain.Event{}, fmt.Errorf("unsupported line type %T in node %s", l, node.Title)
		}
	}
}

// MakeDecision picks the first presented option whose target is choice.
// It fails without side effects outside Waiting or for an unknown choice.
func (r *Runner) MakeDecision(ctx context.Context, choice string) error {
	if err := r.checkWaiting(); err != nil {
		return err
	}
	ol := r.dialog.At(r.node).Lines[r.line].(domain.OptionLine)
	for _, idx := range r.presented {
		if ol.Possibilities[idx].Target == choice {
			r.decide(ctx, ol, idx)
			return nil
		}
	}
	return &domain.UnknownChoiceError{Choice: choice}
}

// Choose picks the option at index in the last options event.
func (r *Runner) Choose(ctx context.Context, index int) error {
	if err := r.checkWaiting(); err != nil {
		return err
	}
	if index < 0 || index >= len(r.presented) {
		return &domain.UnknownChoiceError{Choice: strconv.Itoa(index)}
	}
	ol := r.dialog.At(r.node).Lines[r.line].(domain.OptionLine)
	r.decide(ctx, ol, r.presented[index])
	return nil
}

// ResetTo moves the cursor to the first line of title and resets the state to Start.
func (r *Runner) ResetTo(title string) error {
	if r.fault != nil {
		return r.fault
	}
	ref, ok := r.dialog.Lookup(title)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, title)
	}
	r.logger.Debug("reset", "node", title)
	r.enter(ref, "")
	r.state = domain.StateStart
	r.presented = nil
	return nil
}

func (r *Runner) checkWaiting() error {
	if r.fault != nil {
		return r.fault
	}
	if r.state != domain.StateWaiting {
		return &domain.WrongStateError{Current: r.state, Expected: domain.StateWaiting}
	}
	return nil
}

func (r *Runner) decide(ctx context.Context, ol domain.OptionLine, idx int) {
	node := r.dialog.At(r.node)
	p := ol.Possibilities[idx]
	r.used[domain.UseKey{Node: r.node, Line: r.line, Option: idx}] = true

	r.logger.Debug("decision made", "node", node.Title, "option", p.Text, "target", p.Target)
	if r.hooks.OnDecision != nil {
		r.hooks.OnDecision(ctx, domain.DecisionEvent{Node: node.Title, Line: r.line, Option: idx, Target: p.Target})
	}

	r.enter(p.Ref, node.Title)
	r.state = domain.StateStart
	r.presented = nil
}

func (r *Runner) enter(ref domain.NodeRef, from string) {
	r.node = ref
	r.line = 0
	r.entered = false
	r.from = from
}

func (r *Runner) runCommand(ctx context.Context, node *domain.Node, l domain.CommandLine) error {
	fn, ok := r.commands.Lookup(l.Name)
	if !ok {
		r.fault = &domain.UnregisteredCommandError{Name: l.Name, Node: node.Title}
		r.logger.Error("runner faulted", "cursor", r.Cursor().String(), "err", r.fault)
		return r.fault
	}

	r.logger.Debug("running command", "node", node.Title, "command", l.Name, "args", l.Args)
	err := fn(ctx, r.host, l.Args)
	if r.hooks.OnCommand != nil {
		r.hooks.OnCommand(ctx, domain.CommandEvent{Node: node.Title, Name: l.Name, Args: l.Args, Err: err})
	}
	r.line++
	if err != nil {
		return &domain.CommandError{Name: l.Name, Node: node.Title, Err: err}
	}
	return nil
}

// filter returns the indexes of possibilities whose condition holds.
func (r *Runner) filter(ctx context.Context, l domain.OptionLine) ([]int, error) {
	var visible []int
	for i, p := range l.Possibilities {
		if p.Condition != nil {
			value, ok, err := r.vars.Get(ctx, p.Condition.Variable)
			if err != nil {
				return nil, err
			}
			if !p.Condition.Evaluate(value, ok) {
				continue
			}
		}
		visible = append(visible, i)
	}
	return visible, nil
}

func (r *Runner) option(l domain.OptionLine, idx int) domain.Option {
	p := l.Possibilities[idx]
	return domain.Option{
		Text: p.Text,
		Node: p.Target,
		Used: r.used[domain.UseKey{Node: r.node, Line: r.line, Option: idx}],
	}
}

func (r *Runner) emit(ctx context.Context, ev domain.Event) domain.Event {
	if r.hooks.OnEvent != nil {
		r.hooks.OnEvent(ctx, ev)
	}
	return ev
}
