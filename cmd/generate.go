package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursegen/internal/generate"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a course and make it the active one",
	Long: "Requests a course from the generation endpoint (COURSEGEN_ENDPOINT).\n" +
		"When the endpoint fails a sample course is created instead and a warning is printed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := generate.Request{}
		req.Topic, _ = cmd.Flags().GetString("topic")
		req.Level, _ = cmd.Flags().GetString("level")
		req.Audience, _ = cmd.Flags().GetString("audience")
		req.Goal, _ = cmd.Flags().GetString("goal")

		// Reject a bad request before touching the store.
		if err := req.Validate(); err != nil {
			return err
		}

		svc, err := openServices(cmd, "")
		if err != nil {
			return err
		}
		defer svc.Close()

		cfg := generate.ConfigFromEnv()
		if endpoint, _ := cmd.Flags().GetString("endpoint"); endpoint != "" {
			cfg.Endpoint = endpoint
		}
		if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
			cfg.Timeout = timeout
		}
		pipeline := generate.New(generate.NewHTTPFetcher(cfg.Endpoint, cfg.Timeout), svc.logger)

		out, err := pipeline.Generate(cmd.Context(), req)
		if err != nil {
			return err
		}
		if out.Warning != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", out.Warning)
		}
		if err := svc.workspace.Replace(cmd.Context(), out.Course); err != nil {
			return err
		}

		c := out.Course
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Course:   %s (%s)\n", c.Topic, c.ID)
		fmt.Fprintf(w, "Level:    %s\n", c.Level)
		fmt.Fprintf(w, "Audience: %s\n", c.Audience)
		fmt.Fprintf(w, "Goal:     %s\n", c.Goal)
		fmt.Fprintf(w, "Size:     %d modules, %d lessons, ~%dh\n", len(c.Modules), c.LessonCount(), c.EstimatedHours)
		fmt.Fprintf(w, "Source:   %s\n", sourceLabel(c.Metadata.Provider, c.Metadata.Engine))
		return nil
	},
}

func sourceLabel(provider, engine string) string {
	if engine == "" || engine == provider {
		return provider
	}
	return provider + " (" + engine + ")"
}

func init() {
	generateCmd.Flags().StringP("topic", "t", "", "What the course is about (required)")
	generateCmd.Flags().StringP("level", "l", "", "Learner level (default Beginner)")
	generateCmd.Flags().StringP("audience", "a", "", "Who the course is for")
	generateCmd.Flags().StringP("goal", "g", "", "What the learner wants to achieve")
	generateCmd.Flags().String("endpoint", "", "Generation endpoint URL (overrides COURSEGEN_ENDPOINT)")
	generateCmd.Flags().Duration("timeout", 0, "Request timeout (overrides COURSEGEN_TIMEOUT)")
}
