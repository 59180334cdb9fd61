package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_RunsAgainstServer(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	logPath := filepath.Join(t.TempDir(), "out.csv")
	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--url", ts.URL,
		"--id", "77",
		"--iterations", "2",
		"--interval", "0",
		"--log", logPath,
	})

	require.NoError(t, cmd.Execute())
	assert.EqualValues(t, 2, hits.Load())

	raw, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,tx_musd,status,response", lines[0])
}

func TestRootCmd_RejectsMissingID(t *testing.T) {
	t.Setenv("LOADTEST_ID", "")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--iterations", "1", "--log", filepath.Join(t.TempDir(), "x.csv")})
	cmd.SetOut(new(strings.Builder))
	cmd.SetErr(new(strings.Builder))

	assert.Error(t, cmd.Execute())
}
