package player

import "log/slog"

// Option defines a functional option for configuring the Player.
type Option func(*Player)

// WithHandler configures the IOHandler.
func WithHandler(handler IOHandler) Option {
	return func(p *Player) {
		p.Handler = handler
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) {
		p.Logger = logger
	}
}
