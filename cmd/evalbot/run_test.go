package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xilef-bot/evalbot/internal/infrastructure/config"
	"github.com/xilef-bot/evalbot/internal/infrastructure/logging"
	"github.com/xilef-bot/evalbot/internal/infrastructure/server"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		runMessage, runRemote, runTimeoutMS, runModules = false, "", 0, nil
	})
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCollectScriptsGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.js", "1")
	writeFile(t, dir, "nested/deep/b.js", "2")
	writeFile(t, dir, "notes.md", "3")

	scripts, err := collectScripts([]string{filepath.Join(dir, "**", "*.js")}, nil)
	require.NoError(t, err)
	require.Len(t, scripts, 2)
	assert.Equal(t, "1", scripts[0].source)
	assert.Equal(t, "2", scripts[1].source)
}

func TestCollectScriptsRejects(t *testing.T) {
	dir := t.TempDir()
	bin := writeFile(t, dir, "blob.js", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	_, err := collectScripts([]string{bin}, nil)
	assert.ErrorContains(t, err, "not a text file")

	_, err = collectScripts([]string{filepath.Join(dir, "*.ts")}, nil)
	assert.ErrorContains(t, err, "no file matches")

	_, err = collectScripts([]string{dir}, nil)
	assert.ErrorContains(t, err, "is a directory")
}

func TestRunLocal(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hello.js", "console.log('hi'); 40 + 2")

	out, err := execute(t, "", "run", path)
	require.NoError(t, err)
	assert.Equal(t, "# expression\n```js\n42\n```\n# stdout\n```js\nhi\n```\n", out)
}

func TestRunStdinMessage(t *testing.T) {
	out, err := execute(t, "look:\n```js\nmessage.channel.send('pong'); 'ok'\n```", "run", "-m", "-")
	require.NoError(t, err)
	assert.Equal(t, "# expression\n```js\n'ok'\n```\n> pong\n", out)
}

func TestRunFailureExitCode(t *testing.T) {
	out, err := execute(t, "require('fs')", "run", "--allow", "path", "-")

	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExitFailure, ee.code)
	assert.Contains(t, out, "# error - debug\n```\nError: module 'fs' is restricted\n```")
}

func TestRunRemote(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	srv, err := server.NewServer(cfg, logging.NewNop(), "test")
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	out, err := execute(t, "console.error('careful'); undefined", "run", "--remote", ts.URL, "-")
	require.NoError(t, err)
	assert.Equal(t, "# stderr\n```js\ncareful\n```\n", out)

	_, err = execute(t, "```js\nnope(\n```", "run", "--remote", ts.URL, "-m", "-")
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExitFailure, ee.code)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "evalbot dev"))
}
