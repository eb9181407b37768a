package main

import (
	"testing"

	"github.com/rtk-proxy/rtk/internal/rtk/formatter"
)

func TestSplitArgsSeparatesGlobalFlags(t *testing.T) {
	gf, rest := splitArgs([]string{"-v", "git", "status", "--ultra"})
	if gf.verbose != 1 {
		t.Fatalf("expected verbose=1, got %d", gf.verbose)
	}
	if !gf.ultra {
		t.Fatal("expected ultra=true")
	}
	if len(rest) != 2 || rest[0] != "git" || rest[1] != "status" {
		t.Fatalf("expected [git status], got %v", rest)
	}
}

func TestSplitArgsRepeatedVerboseCounter(t *testing.T) {
	gf, _ := splitArgs([]string{"-vv", "go", "test"})
	if gf.verbose != 2 {
		t.Fatalf("expected verbose=2, got %d", gf.verbose)
	}
}

func TestSplitArgsEnvPairs(t *testing.T) {
	gf, rest := splitArgs([]string{"--env", "FOO=bar", "git", "status"})
	if len(gf.envPairs) != 1 || gf.envPairs[0] != "FOO=bar" {
		t.Fatalf("got %v", gf.envPairs)
	}
	if len(rest) != 2 {
		t.Fatalf("got %v", rest)
	}
}

func TestGlobalFlagsModeUltraWins(t *testing.T) {
	gf := globalFlags{verbose: 1, ultra: true}
	if gf.mode() != formatter.Ultra {
		t.Fatalf("expected ultra mode, got %v", gf.mode())
	}
}

func TestGlobalFlagsModeFromVerbosity(t *testing.T) {
	gf := globalFlags{verbose: 0}
	if gf.mode() != formatter.Compact {
		t.Fatalf("expected compact mode, got %v", gf.mode())
	}
}

func TestIsSensitiveKey(t *testing.T) {
	cases := map[string]bool{
		"API_KEY":     true,
		"AWS_SECRET":  true,
		"GITHUB_TOKEN": true,
		"HOME":        false,
		"PATH":        false,
	}
	for k, want := range cases {
		if got := isSensitiveKey(k); got != want {
			t.Errorf("isSensitiveKey(%q) = %v, want %v", k, got, want)
		}
	}
}

func TestMaskValueShortValue(t *testing.T) {
	if got := maskValue("short"); got != "***" {
		t.Fatalf("got %q", got)
	}
}

func TestMaskValueLongValue(t *testing.T) {
	got := maskValue("sk-ant-1234567890abcdef")
	if got != "sk-a...cdef" {
		t.Fatalf("got %q", got)
	}
}

func TestRealToolNameMapsLintAndFormat(t *testing.T) {
	if got := realToolName("lint"); got != "eslint" {
		t.Fatalf("got %q", got)
	}
	if got := realToolName("format"); got != "prettier" {
		t.Fatalf("got %q", got)
	}
	if got := realToolName("cargo"); got != "cargo" {
		t.Fatalf("got %q", got)
	}
}

func TestBuildRegistryRegistersKnownSubcommands(t *testing.T) {
	reg := buildRegistry()
	for _, name := range []string{"git", "go", "vitest", "docker", "cargo", "pytest"} {
		if _, ok := reg.Lookup(name); !ok {
			t.Errorf("expected %q to be registered", name)
		}
	}
	if _, ok := reg.Lookup("nonexistent-tool"); ok {
		t.Fatal("expected unregistered tool to be absent")
	}
}
