package corelog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestFormatterExpandsPattern(t *testing.T) {
	f := &formatter{pattern: "%time [%level] %field %msg\n", time: time.RFC3339}

	l := logrus.New()
	l.Out = &bytes.Buffer{}
	entry := l.WithField("key", "value")
	entry.Message = "hello"
	entry.Level = logrus.InfoLevel
	entry.Time = time.Unix(0, 0).UTC()

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	got := string(out)
	if !strings.Contains(got, "info") || !strings.Contains(got, "key=value") || !strings.Contains(got, "hello") {
		t.Fatalf("unexpected formatted output: %q", got)
	}
}

func TestMultiWriterFansOut(t *testing.T) {
	var a, b bytes.Buffer
	mw := newMultiWriter().add(&a).add(&b)

	n, err := mw.Write([]byte("line\n"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes reported, got %d", n)
	}
	if a.String() != "line\n" || b.String() != "line\n" {
		t.Fatalf("expected both writers to receive the line, got %q %q", a.String(), b.String())
	}
}

func TestDiscardLoggerBeforeInit(t *testing.T) {
	if logger != nil {
		t.Skip("global logger already initialized by an earlier test in this run")
	}
	l := L()
	l.Info("should not panic")
	chained := l.WithField("k", "v").WithError(nil)
	chained.Warn("still should not panic")
	if l.IsDebugEnabled() {
		t.Fatal("discard logger must report debug disabled")
	}
}
