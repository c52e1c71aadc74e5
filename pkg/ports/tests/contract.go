package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
)

// ScriptLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.ScriptLoader.
// setupData maps script IDs to the exact source text the loader is expected to return.
func ScriptLoaderContractTest(t *testing.T, loader ports.ScriptLoader, setupData map[string]string) {
	t.Helper()
	ctx := context.Background()

	// 1. Test GetScript (Success)
	t.Run("GetScript_Success", func(t *testing.T) {
		for id, expected := range setupData {
			script, err := loader.GetScript(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error getting script %s: %v", id, err)
			}
			if script.ID != id {
				t.Errorf("id mismatch: got %q, want %q", script.ID, id)
			}
			if script.Source != expected {
				t.Errorf("source mismatch for %s. got %q, want %q", id, script.Source, expected)
			}
		}
	})

	// 2. Test GetScript (NotFound)
	t.Run("GetScript_NotFound", func(t *testing.T) {
		_, err := loader.GetScript(ctx, "non-existent-script")
		if !errors.Is(err, domain.ErrDialogNotFound) {
			t.Errorf("expected ErrDialogNotFound, got %v", err)
		}
	})

	// 3. Test ListScripts
	t.Run("ListScripts", func(t *testing.T) {
		ids, err := loader.ListScripts(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing scripts: %v", err)
		}

		if len(ids) != len(setupData) {
			t.Errorf("expected %d scripts, got %d", len(setupData), len(ids))
		}

		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}
		for id := range setupData {
			if !lookup[id] {
				t.Errorf("script %s missing from list", id)
			}
		}
	})
}
