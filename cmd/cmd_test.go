package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursegen/internal/codec"
	"github.com/abhisek/coursegen/internal/generate"
	"github.com/abhisek/coursegen/internal/workspace"
)

// resetFlags restores every flag of c and its children to its default so
// runs of the shared command tree do not leak into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

type harness struct {
	db string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{db: filepath.Join(t.TempDir(), "state.json")}
}

func (h *harness) run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(args, "--store", "json", "--db", h.db, "--log-level", "error"))
	err = rootCmd.ExecuteContext(t.Context())
	resetFlags(rootCmd)
	return out.String(), errOut.String(), err
}

func unreachableEndpoint(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(nil)
	url := srv.URL + "/api/generate"
	srv.Close()
	return url
}

func TestGenerateFallsBackToPlaceholder(t *testing.T) {
	h := newHarness(t)

	out, errOut, err := h.run(t, "generate", "--topic", "Pottery", "--level", "Beginner", "--endpoint", unreachableEndpoint(t))
	require.NoError(t, err)
	assert.Contains(t, errOut, generate.PlaceholderWarning)
	assert.Contains(t, out, "4 modules, 12 lessons")
	assert.Contains(t, out, "Source:   placeholder")

	out, _, err = h.run(t, "lesson", "--outline")
	require.NoError(t, err)
	assert.Contains(t, out, "Fundamentals of Pottery")
	assert.Contains(t, out, "▸")
}

func TestGenerateRejectsBlankTopic(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "generate", "--topic", "  ")
	var ve *generate.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "topic", ve.Field)

	_, _, err = h.run(t, "lesson")
	assert.ErrorIs(t, err, workspace.ErrNoActiveCourse)
}

func TestStudyCommands(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run(t, "generate", "--topic", "Chess", "--endpoint", unreachableEndpoint(t))
	require.NoError(t, err)

	out, _, err := h.run(t, "quiz", "1", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Quiz score:")

	_, _, err = h.run(t, "quiz", "1", "9")
	assert.Error(t, err)

	out, _, err = h.run(t, "done")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")

	out, _, err = h.run(t, "check", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "[x]")

	out, _, err = h.run(t, "lesson")
	require.NoError(t, err)
	assert.Contains(t, out, "Status: completed")
	assert.Contains(t, out, "2) [x]")

	out, _, err = h.run(t, "pick", "best-practices-and-next-steps-3", "best-practices-and-next-steps-2")
	require.NoError(t, err)
	assert.Contains(t, out, "Selected Best practices and next steps")

	out, _, err = h.run(t, "lesson")
	require.NoError(t, err)
	assert.Contains(t, out, "Status: in progress")

	_, _, err = h.run(t, "pick", "nope", "nope")
	assert.Error(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run(t, "generate", "--topic", "Bread Baking", "--endpoint", unreachableEndpoint(t))
	require.NoError(t, err)
	_, _, err = h.run(t, "check", "1")
	require.NoError(t, err)

	dir := t.TempDir()
	out, _, err := h.run(t, "export", "--dir", dir)
	require.NoError(t, err)
	path := filepath.Join(dir, "bread-baking.json")
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Bread Baking", doc["topic"])
	assert.NotContains(t, string(data), ":quiz")

	// Import into a fresh store.
	other := newHarness(t)
	out, _, err = other.run(t, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported Bread Baking: 4 modules, 12 lessons")

	out, _, err = other.run(t, "lesson")
	require.NoError(t, err)
	assert.Contains(t, out, "1) [x]")
}

func TestImportInvalidKeepsActiveCourse(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run(t, "generate", "--topic", "Chess", "--endpoint", unreachableEndpoint(t))
	require.NoError(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"topic":"x"}`), 0o644))

	_, _, err = h.run(t, "import", bad)
	var ie *codec.ImportError
	assert.True(t, errors.As(err, &ie))

	out, _, err := h.run(t, "export", "--stdout")
	require.NoError(t, err)
	assert.Contains(t, out, `"topic": "Chess"`)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "coursegen "), out)
	assert.NotEqual(t, "coursegen \n", out)
}
