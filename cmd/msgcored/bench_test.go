package main

import (
	"bytes"
	"strings"
	"testing"

	"icc.tech/msgcore/internal/config"
)

func TestRunBenchFragmentsMultiKeyMget(t *testing.T) {
	var buf bytes.Buffer
	input := "*3\r\n$4\r\nmget\r\n$1\r\na\r\n$1\r\nb\r\n"
	if err := runBench(config.Default(), input, &buf); err != nil {
		t.Fatalf("bench failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "parsed 2 message(s)") {
		t.Fatalf("expected 2 fragments parsed, got %q", out)
	}
	if !strings.Contains(out, "mbufs_allocated=") {
		t.Fatalf("expected pool stats line, got %q", out)
	}
	if !strings.Contains(out, "fragments_total=1") {
		t.Fatalf("expected one fragmentation event for a 2-key mget, got %q", out)
	}
}

func TestRunBenchSingleGet(t *testing.T) {
	var buf bytes.Buffer
	if err := runBench(config.Default(), "*2\r\n$3\r\nget\r\n$1\r\na\r\n", &buf); err != nil {
		t.Fatalf("bench failed: %v", err)
	}
	if !strings.Contains(buf.String(), "parsed 1 message(s)") {
		t.Fatalf("expected 1 message parsed, got %q", buf.String())
	}
}
