package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aretw0/spindle/pkg/adapters/redis"
)

var varsCmd = &cobra.Command{
	Use:   "vars",
	Short: "Inspect persistent dialog variables",
	Long:  `Show and remove the variable namespaces that "spindle run --session" keeps in Redis.`,
}

var varsShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Print the variables of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openVars(args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		snapshot, err := store.Snapshot(cmd.Context())
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}
		if len(snapshot) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No variables set.")
			return nil
		}

		names := make([]string, 0, len(snapshot))
		for name := range snapshot {
			names = append(names, name)
		}
		sort.Strings(names)
		ordered := make([]map[string]bool, 0, len(names))
		for _, name := range names {
			ordered = append(ordered, map[string]bool{name: snapshot[name]})
		}

		data, err := json.MarshalIndent(ordered, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var varsRmCmd = &cobra.Command{
	Use:   "rm <session>...",
	Short: "Remove the variables of one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var errs []error
		for _, sessionID := range args {
			store, err := openVars(sessionID)
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", sessionID, err))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
			}
			store.Close()
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(varsCmd)
	varsCmd.AddCommand(varsShowCmd)
	varsCmd.AddCommand(varsRmCmd)
}

func openVars(sessionID string) (*redis.Variables, error) {
	if cfg.Redis.Addr == "" {
		return nil, errors.New("redis is not configured (set redis.addr or SPINDLE_REDIS_ADDR)")
	}
	var opts []redis.Option
	if cfg.Redis.Prefix != "" {
		opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
	}
	return redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, sessionID, opts...), nil
}
