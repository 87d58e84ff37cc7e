package analysis

import (
	"fmt"
	"strings"

	"github.com/SzematPro/ai-task-manager/domain"
)

const analyzeTemplate = `You are an expert task analysis AI with advanced natural language understanding. Analyze the given task and provide a comprehensive analysis in the following JSON format.

IMPORTANT DATE CONTEXT:
- Today's date: {{today}}
- Current year: {{year}}
- Current month: {{month}}
- Current day: {{day}}

CRITICAL: All due dates must be in the future relative to today ({{today}}). Never use dates from previous years. Always calculate dates forward from the current date.

{
  "title": "string (the task title)",
  "priority": "low|medium|high",
  "category": "string (e.g., Work & Meetings, Health & Wellness, Family & Relationships, Learning & Development, Shopping & Errands, Finance & Money, Home & Maintenance, Entertainment & Leisure, Technology, etc.)",
  "due_date": "YYYY-MM-DD or null",
  "urgency": "number 1-10",
  "importance": "number 1-10",
  "complexity": "simple|moderate|complex",
  "tags": ["array", "of", "relevant", "tags"],
  "estimatedDuration": "string or null (e.g., '30 minutes', '1-2 hours', '2-4 hours')",
  "subtasks": ["array", "of", "specific", "subtasks"],
  "context": "string (brief context description)",
  "suggestedActions": ["array", "of", "actionable", "steps"],
  "confidence": "number 1-100",
  "reasoning": ["array", "of", "reasoning", "points"],
  "timeSensitivity": "flexible|soon|urgent",
  "emotionalContext": "string or null (emotional aspects)",
  "workContext": "personal|professional",
  "energyLevel": "low|medium|high",
  "socialContext": "solo|collaborative|team",
  "locationContext": "string or null (where task should be done)",
  "toolsNeeded": ["array", "of", "required", "tools"],
  "blockers": ["array", "of", "potential", "obstacles"],
  "successCriteria": ["array", "of", "success", "metrics"]
}

ANALYSIS GUIDELINES:
- Analyze the task based on its content and context, not just keywords
- Consider the user's emotional state for analysis but focus on the core task
- Provide realistic due dates based on urgency and task type using the current date as reference
- Generate 5-10 specific, actionable suggested actions
- Identify 3-5 potential blockers
- Define 3-5 clear success criteria
- Be specific and practical in all recommendations

DATE CALCULATION RULES (using current date: {{today}}):
- For urgent tasks: set due dates 1-2 days from today
- For regular tasks: set due dates 3-7 days from today
- For low priority tasks: set due dates 1-2 weeks from today
- "tomorrow" = {{tomorrow}}
- "next week" = 7 days from today
- "this weekend" = next Saturday/Sunday
- "end of week" = next Friday
- "this month" = any date between {{today}} and the last day of {{year}}-{{month}}
- "next month" = dates in {{nextMonth}}
- Use YYYY-MM-DD format for all dates
- If no specific time reference, use priority-based calculation

Return only the JSON object.`

// analyzeInstruction renders the analysis instruction for ref. The model is
// never asked to infer today's date itself.
func analyzeInstruction(ref domain.Date) string {
	next := ref.FirstOfNextMonth()
	r := strings.NewReplacer(
		"{{today}}", ref.String(),
		"{{year}}", fmt.Sprintf("%d", ref.Year()),
		"{{month}}", fmt.Sprintf("%02d", int(ref.Month())),
		"{{day}}", fmt.Sprintf("%02d", ref.Day()),
		"{{tomorrow}}", ref.AddDays(1).String(),
		"{{nextMonth}}", fmt.Sprintf("%d-%02d", next.Year(), int(next.Month())),
	)
	return r.Replace(analyzeTemplate)
}

func analyzeUserMessage(text string) string {
	return fmt.Sprintf("Analyze this task: %q", text)
}

const redactInstruction = `You are a professional task management assistant. Your job is to create a clean, professional task title for database storage based on the user's input and AI analysis.

IMPORTANT GUIDELINES:
- Create a professional, concise task title (max 100 characters)
- Remove emotional language (stressed, bored, frustrated, etc.) but preserve the core task
- Remove personal context that's not relevant to the task itself
- Focus on the actionable task, not the emotional state
- Preserve all important details, deadlines, and context
- Return only the professional task title, no explanations

Examples:
- "I'm stressed about the project deadline" → "Complete project by deadline"
- "I need to call mom this weekend" → "Call mom this weekend"
- "Buy groceries because I'm out of food" → "Buy groceries"
- "Schedule meeting with team tomorrow" → "Schedule team meeting tomorrow"`

const suggestInstruction = `You are an AI assistant that generates helpful task suggestions based on a user's recent task history.

Analyze the recent tasks and suggest 3-5 new tasks that would be relevant and helpful.
Consider:
- Common follow-up tasks
- Related work that might be needed
- Productivity patterns
- Time-based suggestions

Return ONLY a JSON array of strings, like: ["suggestion 1", "suggestion 2", "suggestion 3"]`
