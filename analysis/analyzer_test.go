package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/SzematPro/ai-task-manager/completion"
	"github.com/SzematPro/ai-task-manager/completion/completiontest"
	"github.com/SzematPro/ai-task-manager/domain"
)

func TestAnalyzeParsesBackendAnswer(t *testing.T) {
	stub := &completiontest.Stub{Reply: "```json\n" + `{
		"title": "Email Ana",
		"priority": "high",
		"category": "Work & Meetings",
		"due_date": "2025-06-11",
		"urgency": "8",
		"importance": 7,
		"complexity": "simple",
		"tags": ["email", " "],
		"estimatedDuration": "15 minutes",
		"subtasks": ["draft", "send"],
		"confidence": 92,
		"timeSensitivity": "urgent",
		"workContext": "professional",
		"socialContext": "collaborative",
		"locationContext": null
	}` + "\n```"}
	a := NewAnalyzer(stub, nil).Analyze(context.Background(), "Remind me to email Ana tomorrow", "2025-06-10")

	if a.Title != "Email Ana" || a.Priority != domain.PriorityHigh || a.Category != "Work & Meetings" {
		t.Fatalf("unexpected analysis %+v", a)
	}
	if a.DueDate == nil || a.DueDate.String() != "2025-06-11" {
		t.Fatalf("expected due date to be kept, got %v", a.DueDate)
	}
	if a.Urgency != 8 || a.Importance != 7 || a.Confidence != 92 {
		t.Fatalf("unexpected numbers %+v", a)
	}
	if len(a.Tags) != 1 || a.Tags[0] != "email" {
		t.Fatalf("expected blank tags to be dropped, got %v", a.Tags)
	}
	if a.EnergyLevel != domain.EnergyMedium || a.LocationContext != "" {
		t.Fatalf("expected defaults for missing fields, got %+v", a)
	}
	if a.Blockers == nil || a.Reasoning == nil {
		t.Fatalf("expected empty lists, got nil")
	}
}

func TestAnalyzeInjectsReferenceDate(t *testing.T) {
	stub := &completiontest.Stub{Reply: `{"title":"x"}`}
	NewAnalyzer(stub, nil).Analyze(context.Background(), "x", "2025-06-10")
	call := stub.Calls()[0]
	if !strings.Contains(call.System, "Today's date: 2025-06-10") || !strings.Contains(call.System, "Current year: 2025") {
		t.Fatalf("expected reference date in instruction")
	}
	if !strings.Contains(call.System, `"tomorrow" = 2025-06-11`) {
		t.Fatalf("expected tomorrow to be spelled out")
	}
	if call.Opts != DefaultAnalyzeOptions {
		t.Fatalf("unexpected options %+v", call.Opts)
	}
}

func TestAnalyzeDefaultsMissingFields(t *testing.T) {
	a := NewAnalyzer(&completiontest.Stub{Reply: `{}`}, nil).Analyze(context.Background(), "water plants", "2025-06-10")
	want := domain.MinimalAnalysis("water plants")
	want.Confidence = domain.DefaultConfidence
	if a.Title != want.Title || a.Priority != want.Priority || a.Category != want.Category ||
		a.Urgency != want.Urgency || a.Importance != want.Importance || a.Complexity != want.Complexity ||
		a.Confidence != want.Confidence || a.TimeSensitivity != want.TimeSensitivity ||
		a.WorkContext != want.WorkContext || a.EnergyLevel != want.EnergyLevel || a.SocialContext != want.SocialContext {
		t.Fatalf("expected defaults, got %+v", a)
	}
	if a.DueDate != nil {
		t.Fatalf("expected no due date, got %s", a.DueDate)
	}
}

func TestAnalyzeClampsScores(t *testing.T) {
	a := NewAnalyzer(&completiontest.Stub{Reply: `{"urgency":42,"importance":-3,"confidence":250}`}, nil).
		Analyze(context.Background(), "x", "2025-06-10")
	if a.Urgency != 10 || a.Importance != 1 || a.Confidence != 100 {
		t.Fatalf("unexpected clamping %+v", a)
	}
}

func TestAnalyzeKeepsFieldsBesideBadNumbers(t *testing.T) {
	stub := &completiontest.Stub{Reply: `{"title":"Email Ana","category":"Work","urgency":"high","importance":[7],"confidence":"sure"}`}
	a := NewAnalyzer(stub, nil).Analyze(context.Background(), "Remind me to email Ana tomorrow", "2025-06-10")
	if a.Title != "Email Ana" || a.Category != "Work" {
		t.Fatalf("expected backend fields to survive, got %+v", a)
	}
	if a.Urgency != domain.DefaultScore || a.Importance != domain.DefaultScore || a.Confidence != domain.DefaultConfidence {
		t.Fatalf("expected defaults for unreadable numbers, got %+v", a)
	}
	if len(a.Blockers) != 0 {
		t.Fatalf("expected no fallback blockers, got %v", a.Blockers)
	}
}

func TestAnalyzeRepairsHallucinatedDate(t *testing.T) {
	logger, hook := test.NewNullLogger()
	stub := &completiontest.Stub{Reply: `{"title":"Ship report","priority":"high","due_date":"2022-01-01"}`}
	a := NewAnalyzer(stub, logger).Analyze(context.Background(), "ship report", "2025-06-10")
	if a.DueDate == nil || a.DueDate.String() != "2025-06-12" {
		t.Fatalf("expected repaired date 2025-06-12, got %v", a.DueDate)
	}
	if entry := hook.LastEntry(); entry == nil || entry.Data["raw"] != "2022-01-01" {
		t.Fatalf("expected repair to be logged, got %+v", entry)
	}
}

func TestAnalyzeRepairsUnparseableDate(t *testing.T) {
	stub := &completiontest.Stub{Reply: `{"priority":"low","due_date":"next tuesday"}`}
	a := NewAnalyzer(stub, nil).Analyze(context.Background(), "x", "2025-06-10")
	if a.DueDate == nil || a.DueDate.String() != "2025-06-24" {
		t.Fatalf("expected substitute date, got %v", a.DueDate)
	}
}

func TestAnalyzeFallbackOnBackendFailure(t *testing.T) {
	for _, b := range []completion.Backend{
		nil,
		completiontest.Failing(),
		&completiontest.Stub{Err: &completion.CallError{Model: "gpt-4", Err: errors.New("quota")}},
		&completiontest.Stub{Reply: "Sorry, I cannot help with that."},
		&completiontest.Stub{Fn: func(string, string, completion.Options) (string, error) { panic("boom") }},
	} {
		a := NewAnalyzer(b, nil).Analyze(context.Background(), "buy milk", "2025-06-10")
		if a.Confidence != 30 || a.Category != "General" || a.Title != "buy milk" {
			t.Fatalf("expected fallback analysis, got %+v", a)
		}
		if len(a.Blockers) != 1 || a.Blockers[0] != "AI analysis unavailable" {
			t.Fatalf("unexpected blockers %v", a.Blockers)
		}
		if a.DueDate == nil || a.DueDate.String() != "2025-06-13" {
			t.Fatalf("expected reference + 3 days, got %v", a.DueDate)
		}
		if len(a.SuggestedActions) != 4 || a.SuccessCriteria[0] != "Task completed successfully" {
			t.Fatalf("unexpected fallback lists %+v", a)
		}
	}
}

func TestAnalyzeMalformedOutputIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	NewAnalyzer(&completiontest.Stub{Reply: "not json"}, logger).Analyze(context.Background(), "x", "2025-06-10")
	entry := hook.LastEntry()
	if entry == nil || entry.Data["raw"] != "not json" {
		t.Fatalf("expected raw output in log, got %+v", entry)
	}
}

func TestAnalyzeUsesClockForInvalidReference(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 2, 27, 23, 0, 0, 0, time.UTC) }
	a := NewAnalyzer(nil, nil).WithClock(clock).Analyze(context.Background(), "x", "10/06/2025")
	if a.DueDate == nil || a.DueDate.String() != "2025-03-02" {
		t.Fatalf("expected clock-based fallback date, got %v", a.DueDate)
	}
}

func TestAnalyzeMinimalWhenFallbackFails(t *testing.T) {
	clock := func() time.Time { panic("clock broke") }
	a := NewAnalyzer(nil, nil).WithClock(clock).Analyze(context.Background(), "x", "")
	if a.Confidence != 50 || a.DueDate != nil || a.Title != "x" {
		t.Fatalf("expected minimal analysis, got %+v", a)
	}
	if len(a.Blockers) != 0 || a.Context != "" {
		t.Fatalf("expected empty optional fields, got %+v", a)
	}
}
