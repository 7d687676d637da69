package capability

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Definition() Definition {
	return m.Called().Get(0).(Definition)
}

func (m *mockProvider) Value() any {
	return m.Called().Get(0)
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	p := new(mockProvider)
	p.On("Definition").Return(Definition{Name: "Ledger", Source: SourceStatic})

	require.NoError(t, r.Register(p))

	got, ok := r.Get("LEDGER")
	require.True(t, ok)
	assert.Same(t, p, got)
	assert.Equal(t, []string{"ledger"}, r.Names())
}

func TestRegisterRejectsBadNames(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(Static("", "", 1)))
	assert.Error(t, r.Register(Static("two words", "", 1)))
}

func TestCatalogSnapshotsEveryInvocation(t *testing.T) {
	r := NewRegistry()
	p := new(mockProvider)
	p.On("Definition").Return(Definition{Name: "counter"})
	p.On("Value").Return(1).Once()
	p.On("Value").Return(2).Once()
	require.NoError(t, r.Register(p))
	require.NoError(t, r.Register(Static("Config", "", map[string]any{"a": 1})))

	first := r.Catalog()
	second := r.Catalog()

	assert.Equal(t, 1, first["counter"])
	assert.Equal(t, 2, second["counter"])
	assert.Equal(t, map[string]any{"a": 1}, first["config"])
	p.AssertExpectations(t)
}

func TestCatalogCopiesFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caps.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cfg": {"greeting": "hi", "tags": ["a"]}}`), 0o600))

	r := NewRegistry()
	_, err := r.RegisterFile(path)
	require.NoError(t, err)

	first := r.Catalog()["cfg"].(map[string]any)
	first["greeting"] = "pwned"
	first["tags"].([]any)[0] = "b"

	second := r.Catalog()["cfg"].(map[string]any)
	assert.Equal(t, "hi", second["greeting"])
	assert.Equal(t, []any{"a"}, second["tags"])
}

func TestCloneKeepsTypes(t *testing.T) {
	in := map[string]int{"a": 1}
	out := clone(in).(map[string]int)
	out["a"] = 2
	assert.Equal(t, 1, in["a"])

	assert.Nil(t, clone(nil))
	assert.Equal(t, "x", clone("x"))
	assert.Equal(t, []any{nil, 1}, clone([]any{nil, 1}))
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Static("x", "", 1)))
	r.Unregister("X")

	_, ok := r.Get("x")
	assert.False(t, ok)
	assert.Empty(t, r.Catalog())
}

func TestHost(t *testing.T) {
	v := Host("1.2.3", time.Now()).Value().(map[string]any)
	assert.Equal(t, "1.2.3", v["version"])
	assert.Equal(t, "evalbot", v["name"])
	assert.NotContains(t, v, "env")
}

func TestStats(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Static("a", "", 1)))
	require.NoError(t, r.Register(Func("b", "", func() any { return 2 })))

	stats := r.Stats()
	assert.Equal(t, 2, stats["total"])
	assert.Equal(t, map[string]int{SourceStatic: 1, SourceFunc: 1}, stats["sources"])
}

func TestRegisterFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"caps.yaml": "ledger:\n  balance: 10\nmotd: hello\n",
		"caps.toml": "motd = \"hello\"\n\n[ledger]\nbalance = 10\n",
		"caps.json": `{"motd": "hello", "ledger": {"balance": 10}}`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			r := NewRegistry()
			names, err := r.RegisterFile(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"ledger", "motd"}, names)

			catalog := r.Catalog()
			assert.Equal(t, "hello", catalog["motd"])
			assert.Contains(t, catalog["ledger"], "balance")

			p, ok := r.Get("motd")
			require.True(t, ok)
			assert.Equal(t, SourceFile, p.Definition().Source)
		})
	}
}

func TestLoadFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caps.ini")
	require.NoError(t, os.WriteFile(path, []byte("a=1"), 0o600))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "unsupported")
}
