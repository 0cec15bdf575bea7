package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ericrobbins/emalloc/internal/logger"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	// Drain concurrently so large outputs cannot fill the pipe.
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	out := <-done
	r.Close()

	return string(out), fnErr
}

// withGlobals sets the output flags for the duration of a test.
func withGlobals(t *testing.T, asJSON, verb bool) {
	t.Helper()
	oldJSON, oldVerbose, oldQuiet := jsonOut, verbose, quiet
	jsonOut, verbose, quiet = asJSON, verb, false
	t.Cleanup(func() {
		jsonOut, verbose, quiet = oldJSON, oldVerbose, oldQuiet
	})
}

// executeRoot runs the root command with args, capturing stdout. Flags,
// viper state and the globals set by setup are restored afterwards.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	oldJSON, oldVerbose, oldQuiet := jsonOut, verbose, quiet
	oldNumbers, oldLog := numbers, logger.L
	reset := func() {
		resetFlags(rootCmd)
		viper.Reset()
		rootCmd.SetArgs(nil)
	}
	t.Cleanup(func() {
		reset()
		jsonOut, verbose, quiet = oldJSON, oldVerbose, oldQuiet
		numbers, logger.L = oldNumbers, oldLog
	})

	reset()
	rootCmd.SetArgs(args)
	return captureOutput(t, rootCmd.Execute)
}

// resetFlags returns every flag of cmd and its subcommands to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// decodeJSON unmarshals output into v
func decodeJSON(t *testing.T, output string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Fatalf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}
