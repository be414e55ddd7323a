package main

import (
	"bytes"
	"errors"
	"testing"
)

func TestRun_UsageExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no command", nil, exitUsage},
		{"help", []string{"help"}, exitOK},
		{"-h", []string{"-h"}, exitOK},
		{"bad flag", []string{"-nope"}, exitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if got := run(tt.args, &stderr); got != tt.want {
				t.Fatalf("run(%v) = %d, want %d; stderr=%q", tt.args, got, tt.want, stderr.String())
			}
			if stderr.Len() == 0 {
				t.Fatal("expected usage on stderr")
			}
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID("show", []string{"42"})
	if err != nil || id != 42 {
		t.Fatalf("parseID = %d, %v; want 42", id, err)
	}

	for _, args := range [][]string{nil, {"0"}, {"-3"}, {"abc"}, {"1", "2"}} {
		_, err := parseID("show", args)
		var uerr usageError
		if !errors.As(err, &uerr) {
			t.Fatalf("parseID(%v) err = %v, want usageError", args, err)
		}
	}
}
