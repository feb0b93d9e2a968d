package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithConfig_Modes(t *testing.T) {
	for _, mode := range []string{"", "dev", "prod", "Production"} {
		l, err := NewWithConfig(Config{Mode: mode, Path: filepath.Join(t.TempDir(), "x.log")})
		require.NoError(t, err, "mode %q", mode)
		assert.NotNil(t, l)
	}

	_, err := New("verbose")
	assert.Error(t, err)
}

func TestNewWithConfig_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coursegen.log")
	l, err := NewWithConfig(Config{Mode: ModeProd, Path: path, Level: "debug"})
	require.NoError(t, err)

	l.Debug("generation attempt")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "generation attempt"))
}

func TestNewWithConfig_BadLevel(t *testing.T) {
	_, err := NewWithConfig(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := Nop()
	assert.Same(t, l, OrNop(l))
}
