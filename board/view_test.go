package board

import (
	"reflect"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/SzematPro/ai-task-manager/domain"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func task(id string, mutate func(*domain.Task)) domain.Task {
	t := domain.Task{ID: id, Title: "task " + id, CreatedAt: base}
	if mutate != nil {
		mutate(&t)
	}
	t.Normalize()
	return t
}

func due(y int, m time.Month, d int) *domain.Date {
	return domain.DatePtr(domain.NewDate(y, m, d))
}

func ids(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func sampleTasks() []domain.Task {
	return []domain.Task{
		task("a", func(t *domain.Task) {
			t.Title = "Quarterly report"
			t.Priority = domain.PriorityHigh
			t.Category = "Work & Meetings"
			t.DueDate = due(2025, 6, 20)
			t.Urgency = 9
			t.EstimatedDuration = "2-4 hours"
			t.CreatedAt = base.Add(time.Hour)
		}),
		task("b", func(t *domain.Task) {
			t.Title = "Call mom"
			t.Priority = domain.PriorityMedium
			t.Category = "Family & Relationships"
			t.Tags = []string{"family", "phone"}
			t.EstimatedDuration = "30 minutes"
			t.Urgency = 4
			t.CreatedAt = base.Add(2 * time.Hour)
		}),
		task("c", func(t *domain.Task) {
			t.Title = "Renew passport"
			t.Status = domain.StatusCompleted
			t.Priority = domain.PriorityLow
			t.DueDate = due(2025, 6, 1)
			t.EstimatedDuration = "1 day"
			t.Urgency = 2
			t.CreatedAt = base.Add(3 * time.Hour)
		}),
		task("d", func(t *domain.Task) {
			t.Title = "Buy groceries"
			t.Priority = domain.PriorityLow
			t.Category = "Shopping & Errands"
			t.DueDate = due(2025, 6, 12)
			t.Urgency = 6
			t.CreatedAt = base.Add(time.Hour)
		}),
		task("e", func(t *domain.Task) {
			t.Title = "Team retro"
			t.Status = domain.StatusInProgress
			t.Priority = domain.PriorityHigh
			t.Category = "Work & Meetings"
			t.Tags = []string{"team"}
			t.Urgency = 6
			t.CreatedAt = base
		}),
	}
}

func TestApplyWildcardKeepsEverything(t *testing.T) {
	tasks := sampleTasks()
	v := View{Filter: Filter{Status: Wildcard, Priority: Wildcard, Category: Wildcard}, Sort: Sort{Field: SortDueDate, Direction: Ascending}}
	if got := Apply(tasks, v); len(got) != len(tasks) {
		t.Fatalf("expected %d tasks, got %d", len(tasks), len(got))
	}
	if got := Apply(tasks, View{}); len(got) != len(tasks) {
		t.Fatalf("empty filter values must act as wildcards, got %d", len(got))
	}
}

func TestApplyCompletedAfterPendingScenario(t *testing.T) {
	tasks := []domain.Task{
		task("done", func(t *domain.Task) { t.Status = domain.StatusCompleted; t.DueDate = due(2025, 1, 1) }),
		task("todo", func(t *domain.Task) { t.DueDate = due(2030, 1, 1) }),
	}
	got := Apply(tasks, View{Sort: Sort{Field: SortDueDate, Direction: Ascending}})
	if !reflect.DeepEqual(ids(got), []string{"todo", "done"}) {
		t.Fatalf("expected pending first, got %v", ids(got))
	}
}

func TestApplyCompletedAlwaysLast(t *testing.T) {
	fields := []SortField{SortDueDate, SortPriority, SortUrgency, SortCreatedAt, SortEstimatedDuration}
	for _, f := range fields {
		for _, d := range []Direction{Ascending, Descending} {
			got := Apply(sampleTasks(), View{Sort: Sort{Field: f, Direction: d}})
			seenCompleted := false
			for _, task := range got {
				if task.Completed() {
					seenCompleted = true
				} else if seenCompleted {
					t.Fatalf("%s %s: non-completed task %s after a completed one: %v", f, d, task.ID, ids(got))
				}
			}
		}
	}
}

func TestApplySortOrders(t *testing.T) {
	cases := []struct {
		sort Sort
		want []string
	}{
		{Sort{SortDueDate, Ascending}, []string{"d", "a", "b", "e", "c"}},
		{Sort{SortDueDate, Descending}, []string{"a", "d", "b", "e", "c"}},
		{Sort{SortPriority, Descending}, []string{"a", "e", "b", "d", "c"}},
		{Sort{SortPriority, Ascending}, []string{"d", "b", "a", "e", "c"}},
		{Sort{SortUrgency, Descending}, []string{"a", "d", "e", "b", "c"}},
		{Sort{SortCreatedAt, Descending}, []string{"b", "a", "d", "e", "c"}},
		{Sort{SortCreatedAt, Ascending}, []string{"e", "a", "d", "b", "c"}},
		{Sort{SortEstimatedDuration, Ascending}, []string{"d", "e", "b", "a", "c"}},
	}
	for _, tc := range cases {
		got := ids(Apply(sampleTasks(), View{Sort: tc.sort}))
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s %s: expected %v, got %v", tc.sort.Field, tc.sort.Direction, tc.want, got)
		}
	}
}

func TestApplyFilters(t *testing.T) {
	cases := []struct {
		name string
		view View
		want []string
	}{
		{"status", View{Filter: Filter{Status: "completed"}}, []string{"c"}},
		{"priority", View{Filter: Filter{Priority: "high", Status: Wildcard}}, []string{"e", "a"}},
		{"category", View{Filter: Filter{Category: "Work & Meetings"}}, []string{"e", "a"}},
		{"search title", View{Query: "  GROCER "}, []string{"d"}},
		{"search category", View{Query: "family &"}, []string{"b"}},
		{"search tag", View{Query: "team"}, []string{"e"}},
		{"combined", View{Query: "r", Filter: Filter{Priority: "low"}}, []string{"d", "c"}},
		{"due range", View{Filter: Filter{DueFrom: due(2025, 6, 10), DueTo: due(2025, 6, 15)}}, []string{"e", "d", "b"}},
	}
	for _, tc := range cases {
		got := ids(Apply(sampleTasks(), tc.view))
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	tasks := sampleTasks()
	tasks = append(tasks, task("f", func(t *domain.Task) { t.CreatedAt = base.Add(time.Hour) }), task("g", func(t *domain.Task) { t.CreatedAt = base.Add(time.Hour) }))
	for _, v := range []View{DefaultView(), {Sort: Sort{SortUrgency, Ascending}}, {Sort: Sort{SortDueDate, Descending}, Query: "e"}} {
		first, err := sonic.Marshal(Apply(tasks, v))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reversed := make([]domain.Task, len(tasks))
		for i, task := range tasks {
			reversed[len(tasks)-1-i] = task
		}
		second, err := sonic.Marshal(Apply(reversed, v))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(first) != string(second) {
			t.Fatalf("ordering depends on input order for %+v", v)
		}
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	tasks := sampleTasks()
	before := ids(tasks)
	got := Apply(tasks, DefaultView())
	got[0].Tags = append(got[0].Tags, "x")
	if !reflect.DeepEqual(ids(tasks), before) {
		t.Fatalf("input order changed")
	}
	for _, task := range tasks {
		for _, tag := range task.Tags {
			if tag == "x" {
				t.Fatalf("result shares tag slices with input")
			}
		}
	}
}

func TestDurationBucket(t *testing.T) {
	cases := map[string]int{"": 0, "30 minutes": 1, "1-2 Hours": 2, "2 days": 3, "a while": 0}
	for in, want := range cases {
		if got := durationBucket(in); got != want {
			t.Fatalf("%q: expected %d, got %d", in, want, got)
		}
	}
}

func TestParseSortAndDirection(t *testing.T) {
	if f, ok := ParseSortField("dueDate"); !ok || f != SortDueDate {
		t.Fatalf("expected legacy dueDate to parse")
	}
	if _, ok := ParseSortField("title"); ok {
		t.Fatalf("unexpected sort field accepted")
	}
	if d, ok := ParseDirection("DESC"); !ok || d != Descending {
		t.Fatalf("expected DESC to parse")
	}
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats(sampleTasks(), domain.NewDate(2025, 6, 15))
	want := Stats{Total: 5, Pending: 3, InProgress: 1, Completed: 1, Overdue: 1}
	if s != want {
		t.Fatalf("expected %+v, got %+v", want, s)
	}
}
