package api

import (
	"github.com/SzematPro/ai-task-manager/board"
	"github.com/SzematPro/ai-task-manager/domain"
)

const (
	requestMaxSize       = 64 * 1024 // 64 KiB
	headerIdempotencyKey = "Idempotency-Key"
	recentTitlesForHints = 10
)

// POST /api/process-task and natural-language POST /api/tasks request body
type processRequest struct {
	Input       string `json:"input"`
	CurrentDate string `json:"currentDate"`
}

// POST /api/tasks request body. Task is set for structured creation.
type createRequest struct {
	Input       string              `json:"input"`
	CurrentDate string              `json:"currentDate"`
	Task        *domain.CreateInput `json:"task"`
}

type processResponse struct {
	Success               bool            `json:"success"`
	OriginalText          string          `json:"originalText"`
	TranslatedText        string          `json:"translatedText"`
	ProfessionalTitle     string          `json:"professionalTitle"`
	SourceLanguage        string          `json:"sourceLanguage"`
	SourceLanguageName    string          `json:"sourceLanguageName"`
	WasTranslated         bool            `json:"wasTranslated"`
	TranslationConfidence float64         `json:"translationConfidence"`
	Analysis              domain.Analysis `json:"analysis"`
}

type createResponse struct {
	Task    domain.Task      `json:"task"`
	Process *processResponse `json:"process,omitempty"`
}

type tasksResponse struct {
	Tasks    []domain.Task `json:"tasks"`
	Total    int           `json:"total"`
	Filtered int           `json:"filtered"`
	View     board.View    `json:"view"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
