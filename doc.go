/*
Package spindle is a dialog scripting engine for branching conversations in games,
interactive fiction and chat hosts.

Scripts are written in a small Yarn-like language: titled nodes of dialog lines,
player options guarded by boolean conditions, jumps between nodes, variable
assignments and host commands. Spindle compiles a script into a read-only graph and
walks it one event at a time, leaving presentation and side effects to the host.

# Concept

A Dialog is loaded once and shared. Each conversation gets its own Runner, which holds
the cursor, the Start/Dialog/Waiting/End state and which options were already chosen.
Variables live behind a pluggable StateContext (memory or Redis); commands are looked
up in an immutable Registry built by the host.

# Script Format

	title: Start
	---
	<<set $met to true>>
	Narrator: Hello there. #mood:calm
	<<play_sound door>>
	-> Leave
	    <<jump Exit>>
	-> Stay <<if $met == true>>
	    <<jump Start>>
	===

# Usage

	dialog, err := spindle.Load(src)
	if err != nil {
		log.Fatal(err)
	}

	reg := registry.NewBuilder().
		Register("play_sound", func(ctx context.Context, host any, args []string) error {
			return host.(*Game).Play(args[0])
		}).
		Build()

	r, err := spindle.NewRunner(dialog, "Start", spindle.WithCommands(reg), spindle.WithHost(game))
	if err != nil {
		log.Fatal(err)
	}

	for {
		ev, err := r.NextEvent(ctx)
		if err != nil {
			log.Fatal(err)
		}
		switch ev.Type {
		case domain.EventDialog:
			fmt.Printf("%s: %s\n", ev.Speaker, ev.Text)
		case domain.EventOptions:
			_ = r.Choose(ctx, pick(ev.Options))
		case domain.EventEnd:
			return
		}
	}
*/
package spindle
