// file: internal/aegobserve/logging_test.go
package aegobserve

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestSetLevel_AppliesToInstalledLogger(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	var buf bytes.Buffer
	initLogger(&buf, "error")
	slog.Info("hidden")
	assert.Zero(t, buf.Len())

	SetLevel("debug")
	assert.Equal(t, slog.LevelDebug, Level())
	buf.Reset()
	slog.Debug("visible")
	assert.Contains(t, buf.String(), `"msg":"visible"`)
}
