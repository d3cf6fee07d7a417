package main

import "testing"

func TestRun_RejectsBadArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"sideways"}},
		{"steps without count", []string{"steps"}},
		{"steps not a number", []string{"steps", "two"}},
		{"zero steps", []string{"steps", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := run(tt.args); code != exitFailure {
				t.Errorf("run(%v) = %d, want %d", tt.args, code, exitFailure)
			}
		})
	}
}
