// Package analysis derives structured annotations, professional titles and
// follow-up suggestions from normalized task text.
package analysis

import "github.com/SzematPro/ai-task-manager/completion"

var (
	DefaultAnalyzeOptions = completion.Options{Model: "gpt-4", MaxTokens: 3000, Temperature: 0.2}
	DefaultRedactOptions  = completion.Options{Model: "gpt-4", MaxTokens: 200, Temperature: 0.1}
	DefaultSuggestOptions = completion.Options{Model: "gpt-4", MaxTokens: 300, Temperature: 0.7}
)
