package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, input string, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(out)
	cmd.SetErr(out)
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	cmd.SetArgs(append(args, "--config", missing))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestCategoriesCommand(t *testing.T) {
	out := execute(t, "", "categories")
	for _, want := range []string{"algebra", "geometry", "percentage", "roots"} {
		if !strings.Contains(out, want+"\n") {
			t.Fatalf("expected %s in output, got %q", want, out)
		}
	}
}

func TestPlayCommandRunsToCompletion(t *testing.T) {
	// Four geometry questions: answer with option 1, then continue.
	input := strings.Repeat("1\n\n", 4)
	out := execute(t, input, "play", "--category", "geometry", "--user", "u1", "--name", "Ada")

	if !strings.Contains(out, "[1/4]") || !strings.Contains(out, "[4/4]") {
		t.Fatalf("expected all questions to be shown, got %q", out)
	}
	if !strings.Contains(out, "quiz complete: ") {
		t.Fatalf("expected a summary, got %q", out)
	}
	if !strings.Contains(out, "unlocked: first_quiz_completed") {
		t.Fatalf("expected the first quiz trigger, got %q", out)
	}
}

func TestPlayCommandRejectsBadInput(t *testing.T) {
	out := execute(t, "9\nq\n", "play", "--category", "roots")
	if !strings.Contains(out, "enter a number between 1 and 4") {
		t.Fatalf("expected input validation, got %q", out)
	}
}

func TestPlayCommandRequiresCategory(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"play"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error without --category or --daily")
	}
}
