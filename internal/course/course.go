package course

// Provider values recorded in GenerationMetadata.
const (
	ProviderExternal    = "external"
	ProviderPlaceholder = "placeholder"
)

// Course is the full document for one generated course.
// It is the single source of truth for content; per-device progress and
// selection are stored separately and never embedded here.
type Course struct {
	ID             string             `json:"id"`
	Topic          string             `json:"topic"`
	Goal           string             `json:"goal"`
	Audience       string             `json:"audience"`
	Level          string             `json:"level"`
	EstimatedHours int                `json:"estimatedHours"`
	Modules        []Module           `json:"modules"`
	Metadata       GenerationMetadata `json:"generationMetadata"`
}

// GenerationMetadata records where a course came from. It never affects validity.
type GenerationMetadata struct {
	// Provider is "external" or "placeholder".
	Provider string `json:"provider"`

	// Engine is the upstream engine the endpoint reported, e.g. "openai".
	Engine    string `json:"engine,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
	Usage     *Usage `json:"usage,omitempty"`
}

// Usage holds token counters reported by the generation endpoint.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// Module groups lessons. ID is unique within a course.
type Module struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Lessons []Lesson `json:"lessons"`
}

// Lesson is the unit the viewer displays. ID is unique within a module.
type Lesson struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Concept    string          `json:"concept"`
	Explainer  string          `json:"explainer"`
	Quiz       []QuizItem      `json:"quiz"`
	Flashcards []Flashcard     `json:"flashcards"`
	Checklist  []ChecklistItem `json:"checklist"`
	Resources  []Resource      `json:"resources"`
}

// QuizItem is a multiple-choice question. Authored items usually carry four
// options, but any length (including zero) must render.
type QuizItem struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation"`
}

// Flashcard has a front and an optional back.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back,omitempty"`
}

// ChecklistItem is a practice task the user can tick at any time.
type ChecklistItem struct {
	Task string `json:"task"`
	Done bool   `json:"done"`
}

// Resource is an external link; either field may be empty.
type Resource struct {
	Label string `json:"label,omitempty"`
	URL   string `json:"url,omitempty"`
}
