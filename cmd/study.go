package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursegen/internal/course"
	"github.com/abhisek/coursegen/internal/progress"
	"github.com/abhisek/coursegen/internal/workspace"
)

// current is the active course with its resolved selection.
type current struct {
	course *course.Course
	module *course.Module
	lesson *course.Lesson
}

func (c current) key() progress.Key {
	return progress.Key{CourseID: c.course.ID, LessonID: c.lesson.ID}
}

// loadCurrent returns the active course and the selected lesson.
func loadCurrent(ctx context.Context, svc *services) (current, error) {
	c, ok := svc.workspace.Active(ctx)
	if !ok {
		return current{}, fmt.Errorf("%w: run `coursegen generate` or `coursegen import` first", workspace.ErrNoActiveCourse)
	}
	m, l := svc.selections.Current(ctx, c)
	if l == nil {
		return current{}, errors.New("the active course has no lessons")
	}
	return current{course: c, module: m, lesson: l}, nil
}

// parseIndex parses a 1-based position and returns it 0-based.
func parseIndex(arg string, n int, what string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, arg, err)
	}
	if i < 1 || i > n {
		return 0, fmt.Errorf("%s %d out of range (1-%d)", what, i, n)
	}
	return i - 1, nil
}

var lessonCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Show the selected lesson, or the course outline with --outline",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd, "")
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		cur, err := loadCurrent(ctx, svc)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if outline, _ := cmd.Flags().GetBool("outline"); outline {
			printOutline(ctx, w, svc, cur)
			return nil
		}
		printLesson(ctx, w, svc, cur)
		return nil
	},
}

func printOutline(ctx context.Context, w io.Writer, svc *services, cur current) {
	fmt.Fprintf(w, "%s\n%s\n", cur.course.Topic, strings.Repeat("─", 60))
	for _, m := range cur.course.Modules {
		fmt.Fprintf(w, "%s  [%s]\n", m.Title, m.ID)
		for _, l := range m.Lessons {
			mark := " "
			if m.ID == cur.module.ID && l.ID == cur.lesson.ID {
				mark = "▸"
			}
			done := ""
			if svc.tracker.Done(ctx, progress.Key{CourseID: cur.course.ID, LessonID: l.ID}) {
				done = " ✓"
			}
			fmt.Fprintf(w, "  %s %s  [%s]%s\n", mark, l.Title, l.ID, done)
		}
	}
}

func printLesson(ctx context.Context, w io.Writer, svc *services, cur current) {
	l := cur.lesson
	sep := strings.Repeat("─", 60)

	state := "in progress"
	if svc.tracker.Done(ctx, cur.key()) {
		state = "completed"
	}
	fmt.Fprintf(w, "%s / %s\n", cur.module.Title, l.Title)
	fmt.Fprintf(w, "Status: %s · Quiz %d%%\n", state, svc.tracker.QuizScore(ctx, cur.key()))
	fmt.Fprintln(w, sep)
	if l.Concept != "" {
		fmt.Fprintln(w, l.Concept)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, l.Explainer)

	if len(l.Quiz) > 0 {
		fmt.Fprintln(w, sep)
		fmt.Fprintln(w, "QUIZ")
		for i, q := range l.Quiz {
			fmt.Fprintf(w, "%d. %s\n", i+1, q.Question)
			for j, opt := range q.Options {
				fmt.Fprintf(w, "   %d) %s\n", j+1, opt)
			}
		}
	}

	if len(l.Flashcards) > 0 {
		fmt.Fprintln(w, sep)
		fmt.Fprintln(w, "FLASHCARDS")
		for _, f := range l.Flashcards {
			if f.HasBack() {
				fmt.Fprintf(w, "• %s → %s\n", f.Front, f.Back)
			} else {
				fmt.Fprintf(w, "• %s\n", f.Front)
			}
		}
	}

	if len(l.Checklist) > 0 {
		fmt.Fprintln(w, sep)
		fmt.Fprintln(w, "CHECKLIST")
		for i, it := range l.Checklist {
			box := "[ ]"
			if it.Done {
				box = "[x]"
			}
			fmt.Fprintf(w, "%d) %s %s\n", i+1, box, it.Task)
		}
	}

	if len(l.Resources) > 0 {
		fmt.Fprintln(w, sep)
		fmt.Fprintln(w, "RESOURCES")
		for _, r := range l.Resources {
			if r.URL != "" && r.Label != "" {
				fmt.Fprintf(w, "• %s <%s>\n", r.Label, r.URL)
			} else {
				fmt.Fprintf(w, "• %s\n", r.Display())
			}
		}
	}
}

var pickCmd = &cobra.Command{
	Use:   "pick <module-id> <lesson-id>",
	Short: "Select the lesson to study",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd, "")
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		c, ok := svc.workspace.Active(ctx)
		if !ok {
			return workspace.ErrNoActiveCourse
		}
		m := c.ModuleByID(args[0])
		if m == nil {
			return fmt.Errorf("module %q not found", args[0])
		}
		l := m.LessonByID(args[1])
		if l == nil {
			return fmt.Errorf("lesson %q not found in module %q", args[1], args[0])
		}
		svc.selections.Pick(ctx, c.ID, m.ID, l.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Selected %s / %s\n", m.Title, l.Title)
		return nil
	},
}

var quizCmd = &cobra.Command{
	Use:   "quiz <question> <option>",
	Short: "Answer a quiz question of the selected lesson (1-based)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd, "")
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		cur, err := loadCurrent(ctx, svc)
		if err != nil {
			return err
		}
		qi, err := parseIndex(args[0], len(cur.lesson.Quiz), "question")
		if err != nil {
			return err
		}
		item := cur.lesson.Quiz[qi]
		choice, err := parseIndex(args[1], len(item.Options), "option")
		if err != nil {
			return err
		}

		correct := item.IsCorrect(choice)
		score := svc.tracker.RecordQuizOutcome(ctx, cur.key(), correct)

		w := cmd.OutOrStdout()
		switch {
		case !item.HasValidAnswer():
			fmt.Fprintln(w, "This question has no valid answer key.")
		case correct:
			fmt.Fprintln(w, "Correct!")
		default:
			fmt.Fprintf(w, "Not quite. The answer is %d) %s\n", item.AnswerIndex+1, item.Options[item.AnswerIndex])
		}
		if item.Explanation != "" {
			fmt.Fprintln(w, item.Explanation)
		}
		fmt.Fprintf(w, "Quiz score: %d%%\n", score)
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:   "done",
	Short: "Toggle completion of the selected lesson",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd, "")
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		cur, err := loadCurrent(ctx, svc)
		if err != nil {
			return err
		}
		state := "in progress"
		if svc.tracker.ToggleDone(ctx, cur.key()) {
			state = "completed"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", cur.lesson.Title, state)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <item>",
	Short: "Toggle a checklist item of the selected lesson (1-based)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd, "")
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		cur, err := loadCurrent(ctx, svc)
		if err != nil {
			return err
		}
		idx, err := parseIndex(args[0], len(cur.lesson.Checklist), "item")
		if err != nil {
			return err
		}
		if err := svc.workspace.ToggleChecklist(ctx, cur.course, cur.module.ID, cur.lesson.ID, idx); err != nil {
			return err
		}
		it := cur.lesson.Checklist[idx]
		box := "[ ]"
		if it.Done {
			box = "[x]"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", box, it.Task)
		return nil
	},
}

func init() {
	lessonCmd.Flags().Bool("outline", false, "Show all modules and lessons instead")
}
