package authoring

import (
	"fmt"
	"strings"

	"github.com/abhisek/coursegen/internal/course"
)

const courseSystemPrompt = `You are a course generator. Return ONLY valid JSON with this shape:
{
  "id": string, "topic": string, "goal": string, "audience": string, "level": string, "estimatedHours": number,
  "modules": [ { "id": string, "title": string, "summary": string,
    "lessons": [ { "id": string, "title": string, "concept": string, "explainer": string,
      "quiz": [ { "question": string, "options": [string, string, string, string], "answerIndex": 0|1|2|3, "explanation": string } ],
      "flashcards": [ { "front": string, "back": string } ],
      "checklist": [ { "task": string, "done": boolean } ],
      "resources": [ { "label": string, "url": string } ] } ] } ] }`

func buildCourseUserMessage(b course.Brief, cfg Config) string {
	var s strings.Builder

	fmt.Fprintf(&s, "Topic: %s\n", b.Topic)
	fmt.Fprintf(&s, "Level: %s\n", b.Level)
	fmt.Fprintf(&s, "Audience: %s\n", b.Audience)
	fmt.Fprintf(&s, "Goal: %s\n", b.Goal)

	fmt.Fprintf(&s, `
Instructions:
1. Create %d modules with %d lessons each.
2. Every lesson has at least one quiz question with exactly 4 options and the index of the correct one.
3. Leave every checklist item with "done": false.
4. Respond with JSON only. No markdown, no commentary.`, cfg.Modules, cfg.LessonsPerModule)

	return s.String()
}
