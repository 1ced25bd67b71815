package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	contractx "github.com/finnieassistant/finnie/agent/contract"
)

func TestLoadPromptSetEmbedded(t *testing.T) {
	t.Parallel()

	set, err := LoadPromptSet("")
	if err != nil {
		t.Fatalf("LoadPromptSet() error = %v", err)
	}
	for name, a := range map[string]Agent{
		"classifier": set.Classifier,
		"stock":      set.Stock,
		"portfolio":  set.Portfolio,
		"coach":      set.Coach,
	} {
		if a.System == "" {
			t.Fatalf("%s system prompt is empty", name)
		}
		if !strings.Contains(a.Task, "{query}") {
			t.Fatalf("%s task template must reference {query}: %q", name, a.Task)
		}
	}
}

func TestLoadPromptSetOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "coach_system.txt"), []byte("  custom coach  \n"), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	set, err := LoadPromptSet(dir)
	if err != nil {
		t.Fatalf("LoadPromptSet() error = %v", err)
	}
	if set.Coach.System != "custom coach" {
		t.Fatalf("unexpected coach system prompt: %q", set.Coach.System)
	}
	if set.Stock.System == "" {
		t.Fatal("stock prompt should fall back to embedded template")
	}
}

func TestLoadPromptSetEmptyOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "stock_task.txt"), []byte("   "), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	_, err := LoadPromptSet(dir)
	if !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}
