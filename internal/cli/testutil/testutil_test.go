package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sqreamsql/internal/cli/output"
)

func TestSetupTestProject(t *testing.T) {
	dir := SetupTestProject(t, "target:\n  type: sqream\n")

	for _, name := range []string{"sqream.yaml", filepath.Join("migrations", "00001_create_events.sql")} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
}

func TestTestRenderer(t *testing.T) {
	tr := NewTestRenderer(output.ModeMarkdown, false)
	if err := tr.Table([]string{"a", "b"}, [][]any{{1, 2}, {3, 4}}); err != nil {
		t.Fatal(err)
	}
	AssertValidMarkdown(t, tr.Output())
	AssertNoANSI(t, tr.Output())
	if tr.ErrorOutput() != "" {
		t.Errorf("unexpected error output %q", tr.ErrorOutput())
	}
}
