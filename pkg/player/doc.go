/*
Package player drives a dialog runner from an interactive or structured IO stream.

It is the bridge between the runner state machine and the outside world: the
Player pulls events, hands them to an IOHandler and turns the handler's input
into decisions.

# Key Components

  - Player: the loop. Runs until the dialog ends, the input closes or the context is canceled.
  - IOHandler: decouples how events are shown and how choices are read.
  - TextHandler: numbered options for terminals.
  - JSONHandler: one JSON event per line (NDJSON) for programs.

# Usage

	p := player.NewPlayer(
		player.WithHandler(player.NewTextHandler(os.Stdin, os.Stdout)),
	)
	if err := p.Run(ctx, runner); err != nil {
		log.Fatal(err)
	}
*/
package player
