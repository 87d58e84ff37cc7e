package storage

import (
	"time"

	"github.com/bytedance/sonic"

	"github.com/SzematPro/ai-task-manager/domain"
)

const EdmInt64 = "Edm.Int64"

// taskEntity is the Azure Table row for a task. PartitionKey is the owner,
// RowKey the task id. List fields are stored as JSON strings since tables
// have no array type.
type taskEntity struct {
	PartitionKey      string `json:"PartitionKey"`
	RowKey            string `json:"RowKey"`
	Title             string `json:"Title"`
	Description       string `json:"Description,omitempty"`
	Status            string `json:"Status"`
	Priority          string `json:"Priority"`
	Category          string `json:"Category"`
	DueDate           string `json:"DueDate,omitempty"`
	Urgency           int    `json:"Urgency"`
	Importance        int    `json:"Importance"`
	Complexity        string `json:"Complexity"`
	Tags              string `json:"Tags"`
	EstimatedDuration string `json:"EstimatedDuration,omitempty"`
	Subtasks          string `json:"Subtasks"`
	Context           string `json:"Context,omitempty"`
	EmotionalContext  string `json:"EmotionalContext,omitempty"`
	LocationContext   string `json:"LocationContext,omitempty"`
	SuggestedActions  string `json:"SuggestedActions"`
	Blockers          string `json:"Blockers"`
	SuccessCriteria   string `json:"SuccessCriteria"`
	ToolsNeeded       string `json:"ToolsNeeded"`
	Reasoning         string `json:"Reasoning"`
	Confidence        int    `json:"Confidence"`
	TimeSensitivity   string `json:"TimeSensitivity"`
	WorkContext       string `json:"WorkContext"`
	EnergyLevel       string `json:"EnergyLevel"`
	SocialContext     string `json:"SocialContext"`
	OriginalText      string `json:"OriginalText,omitempty"`
	SourceLanguage    string `json:"SourceLanguage,omitempty"`
	CreatedAt         int64  `json:"CreatedAt,string"`
	CreatedAtType     string `json:"CreatedAt@odata.type"`
	UpdatedAt         int64  `json:"UpdatedAt,string"`
	UpdatedAtType     string `json:"UpdatedAt@odata.type"`
}

func newTaskEntity(t domain.Task) taskEntity {
	e := taskEntity{
		PartitionKey:      t.OwnerID,
		RowKey:            t.ID,
		Title:             t.Title,
		Description:       t.Description,
		Status:            string(t.Status),
		Priority:          string(t.Priority),
		Category:          t.Category,
		Urgency:           t.Urgency,
		Importance:        t.Importance,
		Complexity:        string(t.Complexity),
		Tags:              encodeList(t.Tags),
		EstimatedDuration: t.EstimatedDuration,
		Subtasks:          encodeList(t.Subtasks),
		Context:           t.Context,
		EmotionalContext:  t.EmotionalContext,
		LocationContext:   t.LocationContext,
		SuggestedActions:  encodeList(t.SuggestedActions),
		Blockers:          encodeList(t.Blockers),
		SuccessCriteria:   encodeList(t.SuccessCriteria),
		ToolsNeeded:       encodeList(t.ToolsNeeded),
		Reasoning:         encodeList(t.Reasoning),
		Confidence:        t.Confidence,
		TimeSensitivity:   string(t.TimeSensitivity),
		WorkContext:       string(t.WorkContext),
		EnergyLevel:       string(t.EnergyLevel),
		SocialContext:     string(t.SocialContext),
		OriginalText:      t.OriginalText,
		SourceLanguage:    t.SourceLanguage,
		CreatedAt:         t.CreatedAt.UnixMilli(),
		CreatedAtType:     EdmInt64,
		UpdatedAt:         t.UpdatedAt.UnixMilli(),
		UpdatedAtType:     EdmInt64,
	}
	if t.DueDate != nil {
		e.DueDate = t.DueDate.String()
	}
	return e
}

func (e taskEntity) task() domain.Task {
	t := domain.Task{
		ID:                e.RowKey,
		OwnerID:           e.PartitionKey,
		Title:             e.Title,
		Description:       e.Description,
		Status:            domain.Status(e.Status),
		Priority:          domain.Priority(e.Priority),
		Category:          e.Category,
		Urgency:           e.Urgency,
		Importance:        e.Importance,
		Complexity:        domain.Complexity(e.Complexity),
		Tags:              decodeList(e.Tags),
		EstimatedDuration: e.EstimatedDuration,
		Subtasks:          decodeList(e.Subtasks),
		Context:           e.Context,
		EmotionalContext:  e.EmotionalContext,
		LocationContext:   e.LocationContext,
		SuggestedActions:  decodeList(e.SuggestedActions),
		Blockers:          decodeList(e.Blockers),
		SuccessCriteria:   decodeList(e.SuccessCriteria),
		ToolsNeeded:       decodeList(e.ToolsNeeded),
		Reasoning:         decodeList(e.Reasoning),
		Confidence:        e.Confidence,
		TimeSensitivity:   domain.TimeSensitivity(e.TimeSensitivity),
		WorkContext:       domain.WorkContext(e.WorkContext),
		EnergyLevel:       domain.EnergyLevel(e.EnergyLevel),
		SocialContext:     domain.SocialContext(e.SocialContext),
		OriginalText:      e.OriginalText,
		SourceLanguage:    e.SourceLanguage,
		CreatedAt:         time.UnixMilli(e.CreatedAt).UTC(),
		UpdatedAt:         time.UnixMilli(e.UpdatedAt).UTC(),
	}
	if d, err := domain.ParseDate(e.DueDate); err == nil {
		t.DueDate = &d
	}
	t.Normalize()
	return t
}

func decodeTaskEntity(data []byte) (domain.Task, error) {
	var e taskEntity
	if err := sonic.Unmarshal(data, &e); err != nil {
		return domain.Task{}, err
	}
	return e.task(), nil
}

func encodeList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	data, err := sonic.MarshalString(items)
	if err != nil {
		return "[]"
	}
	return data
}

// decodeList maps empty and malformed cells to an empty list.
func decodeList(raw string) []string {
	out := []string{}
	if raw == "" {
		return out
	}
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		return []string{}
	}
	return out
}
