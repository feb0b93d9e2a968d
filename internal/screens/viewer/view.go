package viewer

import (
	"context"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/ui/components"
	"github.com/abhisek/coursegen/internal/ui/layout"
	"github.com/abhisek/coursegen/internal/ui/theme"
)

const outlineWidth = 30

func (s *ViewerScreen) View(width, height int) string {
	var top []string
	if s.warning != "" {
		top = append(top, theme.Warning.Render("⚠ "+s.warning))
	}
	if s.notice != "" {
		top = append(top, theme.Hint.Render(s.notice))
	}

	if s.blocking != "" {
		box := theme.ActiveCard.Width(min(width-4, 60)).Render(
			theme.Incorrect.Render(s.blocking) + "\n\n" + theme.Hint.Render("Press any key to continue."))
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
	}

	if len(s.course.Modules) == 0 {
		body := theme.Subtitle.Render("This course has no modules. Press g to generate a new one or i to import a file.")
		return strings.Join(append(top, "", body), "\n")
	}

	var body string
	if layout.IsCompactWidth(width) {
		body = s.renderLesson(width)
	} else {
		left := lipgloss.NewStyle().Width(outlineWidth).Render(s.outline.View(outlineWidth))
		right := lipgloss.NewStyle().PaddingLeft(2).Render(s.renderLesson(width - outlineWidth - 2))
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	if s.importing {
		body += "\n\n" + s.pathInput.View()
	}

	if len(top) > 0 {
		return strings.Join(top, "\n") + "\n\n" + body
	}
	return body
}

func (s *ViewerScreen) renderLesson(width int) string {
	if s.lesson == nil {
		return theme.Subtitle.Render("This module has no lessons.")
	}
	l := s.lesson
	key := s.progressKey(l.ID)
	ctx := context.Background()

	var b strings.Builder
	if s.module != nil {
		b.WriteString(theme.Subtitle.Render(s.module.Title))
		b.WriteString("\n")
	}
	b.WriteString(theme.Title.Render(l.Title))
	b.WriteString("\n")

	state := "In progress"
	if s.deps.Tracker.Done(ctx, key) {
		state = theme.Done.Render("Completed")
	}
	score := s.deps.Tracker.QuizScore(ctx, key)
	b.WriteString(fmt.Sprintf("%s  ·  Quiz %d%%  ·  %d flashcards", state, score, len(l.Flashcards)))
	b.WriteString("\n\n")

	b.WriteString(s.renderTabs())
	b.WriteString("\n\n")

	wrap := lipgloss.NewStyle().Width(max(width, 20))
	switch s.section {
	case SectionExplainer:
		b.WriteString(wrap.Render(renderExplainer(l)))
	case SectionQuiz:
		b.WriteString(wrap.Render(s.renderQuiz(score, width)))
	case SectionFlashcards:
		b.WriteString(wrap.Render(s.renderFlashcard()))
	case SectionChecklist:
		b.WriteString(wrap.Render(renderChecklist(l.Checklist)))
	case SectionResources:
		b.WriteString(wrap.Render(renderResources(l.Resources)))
	}
	return b.String()
}

func (s *ViewerScreen) renderTabs() string {
	tabs := make([]string, 0, sectionCount)
	for sec := Section(0); sec < sectionCount; sec++ {
		if sec == s.section {
			tabs = append(tabs, theme.TabActive.Render(sec.String()))
		} else {
			tabs = append(tabs, theme.TabInactive.Render(sec.String()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func renderExplainer(l *course.Lesson) string {
	var b strings.Builder
	if l.Concept != "" {
		b.WriteString(theme.Label.Render("Concept"))
		b.WriteString("\n")
		b.WriteString(theme.Body.Render(l.Concept))
		b.WriteString("\n\n")
	}
	if l.Explainer == "" {
		b.WriteString(theme.Hint.Render("No explainer for this lesson."))
	} else {
		b.WriteString(theme.Body.Render(l.Explainer))
	}
	return b.String()
}

func (s *ViewerScreen) renderQuiz(score, width int) string {
	quiz := s.lesson.Quiz
	if len(quiz) == 0 {
		return theme.Hint.Render("No questions for this lesson.")
	}

	var b strings.Builder
	b.WriteString(components.NewScoreBar("Score", score, min(width, 40)).View())
	b.WriteString("\n\n")
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Question %d of %d", s.quizIdx+1, len(quiz))))
	b.WriteString("\n")

	item := quiz[s.quizIdx]
	if len(item.Options) == 0 {
		b.WriteString(theme.Body.Bold(true).Render(item.Question))
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render("This question has no options."))
		return b.String()
	}
	b.WriteString(s.quiz.View())

	if s.quiz.Submitted {
		b.WriteString("\n")
		switch {
		case !item.HasValidAnswer():
			b.WriteString(theme.Warning.Render("This question has no valid answer key."))
		case s.quiz.IsCorrect():
			b.WriteString(theme.Correct.Render("Correct!"))
		default:
			b.WriteString(theme.Incorrect.Render("Not quite."))
		}
		if item.Explanation != "" {
			b.WriteString("\n")
			b.WriteString(theme.Body.Render(item.Explanation))
		}
	}
	return b.String()
}

func (s *ViewerScreen) renderFlashcard() string {
	cards := s.lesson.Flashcards
	if len(cards) == 0 {
		return theme.Hint.Render("No flashcards for this lesson.")
	}
	card := cards[s.cardIdx]

	text := card.Front
	if s.flipped {
		text = card.Back
	}
	var b strings.Builder
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Card %d of %d", s.cardIdx+1, len(cards))))
	b.WriteString("\n")
	b.WriteString(theme.Card.Padding(1, 2).Render(theme.Body.Render(text)))
	if card.HasBack() {
		b.WriteString("\n")
		label := "Space to reveal the back"
		if s.flipped {
			label = "Space to show the front"
		}
		b.WriteString(theme.Hint.Render(label))
	}
	return b.String()
}

func renderChecklist(items []course.ChecklistItem) string {
	if len(items) == 0 {
		return theme.Hint.Render("No practice tasks for this lesson.")
	}
	var b strings.Builder
	for i, it := range items {
		box := "[ ]"
		style := theme.Body
		if it.Done {
			box = "[x]"
			style = theme.Done.Strikethrough(true)
		}
		b.WriteString(style.Render(fmt.Sprintf("%d) %s %s", i+1, box, it.Task)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderResources(res []course.Resource) string {
	if len(res) == 0 {
		return theme.Hint.Render("No resources for this lesson.")
	}
	var b strings.Builder
	for _, r := range res {
		b.WriteString("• ")
		b.WriteString(theme.Body.Render(r.Display()))
		if r.URL != "" && r.Label != "" {
			b.WriteString("\n  ")
			b.WriteString(theme.Hint.Render(r.URL))
		}
		b.WriteString("\n")
	}
	return b.String()
}
