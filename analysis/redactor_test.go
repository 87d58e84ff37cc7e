package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/SzematPro/ai-task-manager/completion/completiontest"
	"github.com/SzematPro/ai-task-manager/domain"
)

func TestRedactUsesBackend(t *testing.T) {
	stub := &completiontest.Stub{Reply: `"Complete project by deadline"`}
	a := domain.MinimalAnalysis("x")
	got := NewRedactor(stub, nil).Redact(context.Background(), "estoy estresado por el proyecto", "i am stressed about the project", a)
	if got != "Complete project by deadline" {
		t.Fatalf("unexpected title %q", got)
	}
	call := stub.Calls()[0]
	if !strings.Contains(call.User, `"priority": "medium"`) {
		t.Fatalf("expected indented analysis in prompt, got %s", call.User)
	}
	if call.Opts != DefaultRedactOptions {
		t.Fatalf("unexpected options %+v", call.Opts)
	}
}

func TestRedactFallback(t *testing.T) {
	r := NewRedactor(completiontest.Failing(), nil)
	a := domain.MinimalAnalysis("x")
	if got := r.Redact(context.Background(), "orig", "translated", a); got != "translated" {
		t.Fatalf("expected translated text, got %q", got)
	}
	if got := r.Redact(context.Background(), "orig", "  ", a); got != "orig" {
		t.Fatalf("expected original text, got %q", got)
	}
	if got := NewRedactor(&completiontest.Stub{Reply: `""`}, nil).Redact(context.Background(), "orig", "translated", a); got != "translated" {
		t.Fatalf("expected fallback for empty answer, got %q", got)
	}
}

func TestTruncateTitle(t *testing.T) {
	long := strings.Repeat("word ", 30)
	got := TruncateTitle(long)
	if len([]rune(got)) > MaxTitleRunes {
		t.Fatalf("title too long: %d", len([]rune(got)))
	}
	if strings.HasSuffix(got, " ") || strings.HasSuffix(got, "wor") {
		t.Fatalf("expected cut at a word boundary, got %q", got)
	}
	if TruncateTitle("short") != "short" {
		t.Fatalf("short titles must be unchanged")
	}
	unbroken := strings.Repeat("á", 150)
	if n := len([]rune(TruncateTitle(unbroken))); n != MaxTitleRunes {
		t.Fatalf("expected hard cut at %d runes, got %d", MaxTitleRunes, n)
	}
}
