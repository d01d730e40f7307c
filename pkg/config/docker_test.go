package config

import (
	"testing"
)

func TestRewriteLoopback(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"http://localhost:11434", "http://host.docker.internal:11434"},
		{"http://127.0.0.1:8000/v1", "http://host.docker.internal:8000/v1"},
		{"http://[::1]:11434", "http://host.docker.internal:11434"},
		{"http://localhost/v1", "http://host.docker.internal/v1"},
		{"https://api.openai.com/v1", "https://api.openai.com/v1"},
		{"http://192.168.1.100:11434", "http://192.168.1.100:11434"},
		{"not a url", "not a url"},
	}

	for _, tt := range tests {
		if result := rewriteLoopback(tt.input); result != tt.expected {
			t.Errorf("rewriteLoopback(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestResolveURLForDocker(t *testing.T) {
	// The replacement only happens when IsRunningInDocker() returns true.
	if got := ResolveURLForDocker(""); got != "" {
		t.Errorf("ResolveURLForDocker(\"\") = %q, want empty", got)
	}

	local := "http://localhost:11434"
	result := ResolveURLForDocker(local)
	if IsRunningInDocker() {
		if result != "http://host.docker.internal:11434" {
			t.Errorf("ResolveURLForDocker(%q) in Docker = %q", local, result)
		}
	} else if result != local {
		t.Errorf("ResolveURLForDocker(%q) not in Docker = %q, want unchanged", local, result)
	}

	remote := "https://api.anthropic.com/v1"
	if got := ResolveURLForDocker(remote); got != remote {
		t.Errorf("ResolveURLForDocker(%q) = %q, want unchanged", remote, got)
	}
}
