package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

// The commands share global viper state, so these tests run sequentially.

func runCommand(test *testing.T, statePath string, args ...string) string {
	test.Helper()
	cmd := newRootCommand()
	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(output)
	cmd.SetArgs(append([]string{"--" + flagStatePath, statePath}, args...))
	if err := cmd.Execute(); err != nil {
		test.Fatalf("command %v failed: %v", args, err)
	}
	return output.String()
}

func TestStatusReportsDefaultsOnFreshState(test *testing.T) {
	statePath := filepath.Join(test.TempDir(), "ledger.db")
	output := runCommand(test, statePath, "status")
	if !strings.Contains(output, "credits: 50000") {
		test.Fatalf("expected default balance in output, got %q", output)
	}
	if !strings.Contains(output, "mode: Normal (x1)") {
		test.Fatalf("expected default mode in output, got %q", output)
	}
}

func TestMutationsPersistAcrossInvocations(test *testing.T) {
	statePath := filepath.Join(test.TempDir(), "ledger.db")

	if output := runCommand(test, statePath, "topup", "10.5"); !strings.Contains(output, "credits: 51050") {
		test.Fatalf("expected 51050 after topup, got %q", output)
	}
	if output := runCommand(test, statePath, "spend", "1000", "--description", "run action"); !strings.Contains(output, "credits: 50050") {
		test.Fatalf("expected 50050 after spend, got %q", output)
	}
	if output := runCommand(test, statePath, "mode", "Pro"); !strings.Contains(output, "mode: Pro (x2)") {
		test.Fatalf("expected Pro mode, got %q", output)
	}

	// Each invocation re-hydrates from the sqlite record.
	output := runCommand(test, statePath, "status")
	if !strings.Contains(output, "credits: 50050") || !strings.Contains(output, "mode: Pro (x2)") {
		test.Fatalf("expected persisted state on re-open, got %q", output)
	}

	history := runCommand(test, statePath, "history")
	lines := strings.Split(strings.TrimSpace(history), "\n")
	if len(lines) != 2 {
		test.Fatalf("expected 2 history lines, got %q", history)
	}
	if !strings.Contains(lines[0], "usage") || !strings.Contains(lines[1], "purchase") {
		test.Fatalf("expected newest-first history, got %q", history)
	}
}

func TestSpendRejectsOverdraftWholesale(test *testing.T) {
	statePath := filepath.Join(test.TempDir(), "ledger.db")
	if output := runCommand(test, statePath, "spend", "100000"); !strings.Contains(output, "rejected: insufficient credits") {
		test.Fatalf("expected rejection message, got %q", output)
	}
	if output := runCommand(test, statePath, "status"); !strings.Contains(output, "credits: 50000") {
		test.Fatalf("expected untouched balance, got %q", output)
	}
}

func TestResetRestoresDefaults(test *testing.T) {
	statePath := filepath.Join(test.TempDir(), "ledger.db")
	runCommand(test, statePath, "topup", "5")
	if output := runCommand(test, statePath, "reset"); !strings.Contains(output, "credits: 50000") {
		test.Fatalf("expected defaults after reset, got %q", output)
	}
	if history := runCommand(test, statePath, "history"); strings.TrimSpace(history) != "" {
		test.Fatalf("expected empty history after reset, got %q", history)
	}
}
