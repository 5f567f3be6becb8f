package main

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shopperEnv(t *testing.T, apiURL string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STATE_DIR", dir)
	t.Setenv("STATE_REDIS_ADDR", "")
	t.Setenv("API_BASE_URL", apiURL)
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func TestRun_ExitCodes(t *testing.T) {
	dead := httptest.NewServer(nil)
	deadURL := dead.URL
	dead.Close()

	dir := shopperEnv(t, deadURL)

	assert.Equal(t, 2, run(nil))
	assert.Equal(t, 2, run([]string{"no-such-command"}))
	assert.Equal(t, 2, run([]string{"qty", "p1"}))
	assert.Equal(t, 1, run([]string{"products"}), "an unreachable API is a runtime failure")

	_, err := os.Stat(filepath.Join(dir, "has_visited.json"))
	assert.NoError(t, err)
}

func TestRun_ClearPersistsCart(t *testing.T) {
	dir := shopperEnv(t, "http://127.0.0.1:1")

	require.Equal(t, 0, run([]string{"clear"}))

	data, err := os.ReadFile(filepath.Join(dir, "cart.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}
