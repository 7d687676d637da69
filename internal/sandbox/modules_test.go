package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardModules(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{name: "path join", script: "require('path').join('a', 'b', '../c')", want: "'a/c'"},
		{name: "path extname", script: "require('path').extname('/x/y.tar.gz')", want: "'.gz'"},
		{name: "path dotfile", script: "require('path').extname('.bashrc')", want: "''"},
		{name: "path dirname", script: "require('path').dirname('/a/b/')", want: "'/a'"},
		{name: "path relative", script: "require('path').relative('/a/b', '/a/c/d')", want: "'../c/d'"},
		{
			name:   "crypto sha256",
			script: "require('crypto').createHash('sha256').update('abc').digest('hex')",
			want:   "'ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad'",
		},
		{name: "crypto uuid", script: "require('crypto').randomUUID().length", want: "36"},
		{name: "crypto bytes", script: "require('crypto').randomBytes(8).length", want: "8"},
		{
			name: "events",
			script: `
				const EventEmitter = require('events');
				const e = new EventEmitter();
				let n = 0;
				e.on('x', (v) => { n += v });
				e.once('x', (v) => { n += 100 });
				e.emit('x', 2);
				e.emit('x', 3);
				n`,
			want: "105",
		},
		{name: "util format", script: "require('util').format('%s=%d', 'a', 1)", want: "'a=1'"},
		{name: "perf now", script: "typeof require('perf_hooks').performance.now()", want: "'number'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := run(t, tt.script, DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Text)
		})
	}
}

func TestAssertModule(t *testing.T) {
	_, err := run(t, "require('assert').strictEqual(1, 2)", DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AssertionError: Expected values to be strictly equal")

	res, err := run(t, `
		const assert = require('assert');
		assert.deepStrictEqual({ a: [1] }, { a: [1] });
		assert.throws(() => { throw new TypeError('x') }, TypeError);
		'ok'
	`, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "'ok'", res.Text)
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, ".", joinPath("", ""))
	assert.Equal(t, "/a/b/", normalizePath("/a//b/"))
	assert.Equal(t, "/x/y", resolvePath("a", "/x", "y"))
	assert.Equal(t, "file", basename("/dir/file.txt", ".txt"))
	assert.Equal(t, "", extname("noext"))
}
