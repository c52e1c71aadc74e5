package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/registry"
)

// Severity tells whether an issue prevents a script from running correctly.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding. Line is -1 for node-level findings.
type Issue struct {
	Severity Severity `json:"severity"`
	Node     string   `json:"node"`
	Line     int      `json:"line"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.Line < 0 {
		return fmt.Sprintf("%s: %s: %s", i.Severity, i.Node, i.Message)
	}
	return fmt.Sprintf("%s: %s:%d: %s", i.Severity, i.Node, i.Line, i.Message)
}

// Report collects the issues of one dialog.
type Report struct {
	Issues []Issue `json:"issues"`
}

// HasErrors reports whether any issue has SeverityError.
func (r Report) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err joins the error-level issues, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			errs = append(errs, errors.New(i.String()))
		}
	}
	return errors.Join(errs...)
}

// Options selects the checks to run.
type Options struct {
	// Start enables the reachability check. Empty skips it.
	Start string
	// Commands enables the registration check. Nil skips it.
	Commands *registry.Registry
}

// Validate runs static checks that parsing and resolution cannot catch.
func Validate(d *domain.Dialog, opts Options) Report {
	var r Report
	if opts.Start != "" {
		r.reachability(d, opts.Start)
	}
	if opts.Commands != nil {
		r.commands(d, opts.Commands)
	}
	r.guardedOptions(d)
	r.silentCycles(d)
	return r
}

func (r *Report) add(sev Severity, node string, line int, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Node: node, Line: line, Message: fmt.Sprintf(format, args...)})
}

// reachability reports the start node if missing, and every node no jump or option leads to.
func (r *Report) reachability(d *domain.Dialog, start string) {
	if _, ok := d.Lookup(start); !ok {
		r.add(SeverityError, start, -1, "starting node not found")
		return
	}

	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, target := range d.Edges(current) {
			if !visited[target] {
				visited[target] = true
				queue = append(queue, target)
			}
		}
	}

	for _, title := range d.Titles() {
		if !visited[title] {
			r.add(SeverityWarning, title, -1, "unreachable from %s", start)
		}
	}
}

func (r *Report) commands(d *domain.Dialog, reg *registry.Registry) {
	for _, node := range d.Nodes() {
		for i, line := range node.Lines {
			if c, ok := line.(domain.CommandLine); ok && !reg.Has(c.Name) {
				r.add(SeverityError, node.Title, i, "command %q is not registered", c.Name)
			}
		}
	}
}

// guardedOptions reports option lines that can present no option at all.
func (r *Report) guardedOptions(d *domain.Dialog) {
	for _, node := range d.Nodes() {
		for i, line := range node.Lines {
			ol, ok := line.(domain.OptionLine)
			if !ok {
				continue
			}
			guarded := true
			for _, p := range ol.Possibilities {
				if p.Condition == nil {
					guarded = false
					break
				}
			}
			if guarded {
				r.add(SeverityWarning, node.Title, i, "every option is conditional; the runner waits with no options when none holds")
			}
		}
	}
}

// silentCycles reports jump loops that never produce an event.
// A node is silent when it reaches a jump before any dialog or option line;
// a cycle of silent nodes runs until the step limit.
func (r *Report) silentCycles(d *domain.Dialog) {
	next := make(map[string]string)
	for _, node := range d.Nodes() {
	lines:
		for _, line := range node.Lines {
			switch l := line.(type) {
			case domain.DialogLine, domain.OptionLine:
				break lines
			case domain.JumpLine:
				next[node.Title] = l.Target
				break lines
			}
		}
	}

	reported := make(map[string]bool)
	walked := make(map[string]bool)
	for _, title := range d.Titles() {
		seen := map[string]int{}
		var path []string
		for cur, ok := title, true; ok && !walked[cur]; cur, ok = next[cur] {
			if at, loop := seen[cur]; loop {
				cycle := rotate(path[at:])
				if !reported[cycle[0]] {
					for _, c := range cycle {
						reported[c] = true
					}
					r.add(SeverityError, cycle[0], -1, "silent jump cycle: %s -> %s", strings.Join(cycle, " -> "), cycle[0])
				}
				break
			}
			if reported[cur] {
				break
			}
			seen[cur] = len(path)
			path = append(path, cur)
		}
		for _, p := range path {
			walked[p] = true
		}
	}
}

// rotate starts the cycle at its smallest title so each loop reads the same way.
func rotate(cycle []string) []string {
	at := 0
	for i, t := range cycle {
		if t < cycle[at] {
			at = i
		}
	}
	return append(append([]string{}, cycle[at:]...), cycle[:at]...)
}
