package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func TestTaskMarshalUsesSnakeCaseDueDate(t *testing.T) {
	task := Task{ID: "t1", Title: "Title", DueDate: DatePtr(NewDate(2025, 6, 12))}
	payload, err := sonic.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}
	if !strings.Contains(string(payload), `"due_date":"2025-06-12"`) {
		t.Fatalf("expected due_date field, got %s", payload)
	}
}

func TestTaskMarshalNullDueDate(t *testing.T) {
	payload, err := sonic.Marshal(Task{ID: "t1", Title: "Title"})
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}
	if !strings.Contains(string(payload), `"due_date":null`) {
		t.Fatalf("expected null due_date, got %s", payload)
	}
}

func TestCreateInputAcceptsLegacyDueDate(t *testing.T) {
	var in CreateInput
	if err := sonic.Unmarshal([]byte(`{"title":"pay rent","dueDate":"2025-07-01"}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	task := in.Task("u1")
	if task.DueDate == nil || task.DueDate.String() != "2025-07-01" {
		t.Fatalf("expected legacy due date to be read, got %+v", task.DueDate)
	}
	if task.Status != StatusPending || task.Priority != PriorityMedium || task.Category != DefaultCategory {
		t.Fatalf("unexpected defaults: %+v", task)
	}
}

func TestCreateInputPrefersDueDate(t *testing.T) {
	var in CreateInput
	if err := sonic.Unmarshal([]byte(`{"title":"x","due_date":"2025-07-02","dueDate":"2025-07-01"}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := in.Task("u1").DueDate.String(); got != "2025-07-02" {
		t.Fatalf("expected due_date to win, got %s", got)
	}
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	task := Task{Title: "  x  ", Status: "done", Priority: "HIGH", Urgency: 42, Confidence: -3}
	task.Normalize()
	if task.Title != "x" {
		t.Fatalf("expected trimmed title, got %q", task.Title)
	}
	if task.Status != StatusPending {
		t.Fatalf("expected unknown status to become pending, got %s", task.Status)
	}
	if task.Priority != PriorityHigh {
		t.Fatalf("expected case-insensitive priority, got %s", task.Priority)
	}
	if task.Urgency != 10 || task.Importance != DefaultScore || task.Confidence != 0 {
		t.Fatalf("unexpected clamping: %+v", task)
	}
	if task.Tags == nil || task.Blockers == nil || task.Reasoning == nil {
		t.Fatalf("expected non-nil lists")
	}
}

func TestCloneDoesNotShareSlices(t *testing.T) {
	task := Task{Tags: []string{"a"}, DueDate: DatePtr(NewDate(2025, 1, 1))}
	c := task.Clone()
	c.Tags[0] = "b"
	*c.DueDate = NewDate(2030, 1, 1)
	if task.Tags[0] != "a" || task.DueDate.Year() != 2025 {
		t.Fatalf("clone shares state with original")
	}
}

func TestTaskUpdateApply(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	task := Task{ID: "t1", Title: "old", Status: StatusPending, DueDate: DatePtr(NewDate(2025, 6, 20))}
	task.Normalize()

	title := "new"
	status := StatusCompleted
	out := TaskUpdate{Title: &title, Status: &status}.Apply(task, now)
	if out.Title != "new" || out.Status != StatusCompleted || !out.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected update result: %+v", out)
	}
	if out.DueDate == nil {
		t.Fatalf("expected due date to be kept")
	}
	if task.Title != "old" {
		t.Fatalf("apply mutated its input")
	}

	cleared := TaskUpdate{ClearDueDate: true}.Apply(out, now)
	if cleared.DueDate != nil {
		t.Fatalf("expected due date to be cleared")
	}
}

func TestTaskUpdateEmpty(t *testing.T) {
	if !(TaskUpdate{}).Empty() {
		t.Fatalf("zero update should be empty")
	}
	p := PriorityLow
	if (TaskUpdate{Priority: &p}).Empty() {
		t.Fatalf("update with priority should not be empty")
	}
}

func TestTaskUpdateValidate(t *testing.T) {
	done := Status("done")
	urgent := Priority("urgent")
	hard := Complexity("hard")
	for name, u := range map[string]TaskUpdate{
		"status":     {Status: &done},
		"priority":   {Priority: &urgent},
		"complexity": {Complexity: &hard},
	} {
		if err := u.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	completed := Status(" Completed ")
	if err := (TaskUpdate{Status: &completed}).Validate(); err != nil {
		t.Fatalf("mixed case status should pass: %v", err)
	}
	if err := (CreateInput{Title: "x", Priority: "urgent"}).Validate(); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
	if err := (CreateInput{Title: "x"}).Validate(); err != nil {
		t.Fatalf("empty priority should pass: %v", err)
	}
}

func TestDateHelpers(t *testing.T) {
	d := NewDate(2025, 6, 28)
	if got := d.AddDays(7).String(); got != "2025-07-05" {
		t.Fatalf("AddDays: got %s", got)
	}
	if got := NewDate(2025, 12, 15).FirstOfNextMonth().String(); got != "2026-01-01" {
		t.Fatalf("FirstOfNextMonth: got %s", got)
	}
	if _, err := ParseDate("tomorrow"); err == nil {
		t.Fatalf("expected parse error")
	}
	if got, err := ParseDate("2025-06-12T15:04:05Z"); err != nil || got.String() != "2025-06-12" {
		t.Fatalf("ParseDate RFC3339: %v %v", got, err)
	}
}

func TestEnumParsersFallBack(t *testing.T) {
	if ParseComplexity("weird") != ComplexityModerate {
		t.Fatalf("complexity default")
	}
	if ParseSocialContext("Team") != SocialTeam {
		t.Fatalf("social context parse")
	}
	if PriorityHigh.Rank() <= PriorityMedium.Rank() || PriorityMedium.Rank() <= PriorityLow.Rank() {
		t.Fatalf("priority ranks out of order")
	}
}

func TestEventWireNames(t *testing.T) {
	ev, err := NewEvent(EventTaskDeleted, Task{ID: "t1"})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	if ev.Type != "task-deleted" || ev.TaskID != "t1" || ev.ID == "" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if EventTaskCreated != "task-created" || EventTaskUpdated != "task-updated" {
		t.Fatalf("unexpected event names %s %s", EventTaskCreated, EventTaskUpdated)
	}
}
