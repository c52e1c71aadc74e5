package registry

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Typed adapts a handler taking a struct into a CommandFunc.
// Positional arguments are bound to fields by name in order and decoded with
// weak typing, so "<<play_sound door 0.5 true>>" can fill
//
//	struct {
//		Sound  string  `mapstructure:"sound"`
//		Volume float64 `mapstructure:"volume"`
//		Loop   bool    `mapstructure:"loop"`
//	}
//
// given fields {"sound", "volume", "loop"}. Missing trailing arguments leave
// their fields at the zero value; surplus arguments are an error.
func Typed[T any](fields []string, fn func(ctx context.Context, host any, args T) error) CommandFunc {
	return func(ctx context.Context, host any, args []string) error {
		if len(args) > len(fields) {
			return fmt.Errorf("expected at most %d arguments, got %d", len(fields), len(args))
		}

		raw := make(map[string]any, len(args))
		for i, a := range args {
			raw[fields[i]] = a
		}

		var out T
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &out,
		})
		if err != nil {
			return fmt.Errorf("failed to build argument decoder: %w", err)
		}
		if err := decoder.Decode(raw); err != nil {
			return fmt.Errorf("invalid arguments: %w", err)
		}
		return fn(ctx, host, out)
	}
}
