package build

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
	"github.com/stretchr/testify/require"
)

// TestFanoutDuplicatesRecords asserts that a single log call lands in every
// configured stream.
func TestFanoutDuplicatesRecords(t *testing.T) {
	t.Parallel()

	var console, file bytes.Buffer
	log := slog.New(newFanout(
		btclog.LevelInfo,
		btclogv2.NewDefaultHandler(&console),
		btclogv2.NewDefaultHandler(&file),
	))

	log.Info("engine started", "project", "demo")

	require.Contains(t, console.String(), "engine started")
	require.Contains(t, file.String(), "engine started")
	require.Contains(t, console.String(), "demo")
	require.Contains(t, file.String(), "demo")
}

// TestFanoutLevelFiltering asserts debug records are dropped at the info
// level and pass at the debug level.
func TestFanoutLevelFiltering(t *testing.T) {
	t.Parallel()

	var infoBuf bytes.Buffer
	infoLog := slog.New(newFanout(
		btclog.LevelInfo,
		btclogv2.NewDefaultHandler(&infoBuf),
	))

	infoLog.Debug("hidden detail")
	infoLog.Info("visible event")

	require.NotContains(t, infoBuf.String(), "hidden detail")
	require.Contains(t, infoBuf.String(), "visible event")

	var debugBuf bytes.Buffer
	debugLog := slog.New(newFanout(
		btclog.LevelDebug,
		btclogv2.NewDefaultHandler(&debugBuf),
	))

	debugLog.Debug("hidden detail")

	require.Contains(t, debugBuf.String(), "hidden detail")
}

// TestFanoutWithAttrs asserts that loggers derived with attributes still
// write to every stream with the attribute attached.
func TestFanoutWithAttrs(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	log := slog.New(newFanout(
		btclog.LevelInfo,
		btclogv2.NewDefaultHandler(&a),
		btclogv2.NewDefaultHandler(&b),
	))

	scoped := log.With("session", "sess-9")
	scoped.Info("resolved")

	require.Contains(t, a.String(), "sess-9")
	require.Contains(t, b.String(), "sess-9")
	require.Contains(t, a.String(), "resolved")
	require.Contains(t, b.String(), "resolved")
}

// TestNewLoggerFileStream asserts the assembled logger opens the rotating
// log file in the configured directory.
func TestNewLoggerFileStream(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()

	log, cleanup, err := NewLogger(LoggerConfig{
		LogDir: logDir,
		Quiet:  true,
	})
	require.NoError(t, err)
	require.NotNil(t, log)

	_, err = os.Stat(filepath.Join(logDir, DefaultLogFilename))
	require.NoError(t, err)

	cleanup()
}
