package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursegen/internal/codec"
	"github.com/abhisek/coursegen/internal/workspace"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the active course to <topic>.json",
	Long:  "Exports the course document only; quiz scores, completion and selection stay local.",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd, "")
		if err != nil {
			return err
		}
		defer svc.Close()

		c, ok := svc.workspace.Active(cmd.Context())
		if !ok {
			return workspace.ErrNoActiveCourse
		}
		data, err := codec.Export(c)
		if err != nil {
			return err
		}

		if stdout, _ := cmd.Flags().GetBool("stdout"); stdout {
			_, err := cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}

		path, _ := cmd.Flags().GetString("output")
		if path == "" {
			dir, _ := cmd.Flags().GetString("dir")
			path = filepath.Join(dir, codec.FileName(c))
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Exported to", path)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a course file and make it the active course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		svc, err := openServices(cmd, "")
		if err != nil {
			return err
		}
		defer svc.Close()

		c, err := svc.workspace.Import(cmd.Context(), data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d modules, %d lessons\n", c.Topic, len(c.Modules), c.LessonCount())
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file (default <dir>/<topic>.json)")
	exportCmd.Flags().String("dir", ".", "Directory for the default file name")
	exportCmd.Flags().Bool("stdout", false, "Print the JSON instead of writing a file")
}
