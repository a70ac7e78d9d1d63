package template

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBuiltin(t *testing.T) {
	r := NewRegistry(t.TempDir())

	for _, name := range builtinOrder {
		tpl, err := r.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, tpl.Info.Name)
		assert.NotEmpty(t, tpl.SectionList, name)
		assert.NotEmpty(t, tpl.Preamble, name)
	}
}

func TestGetUnknown(t *testing.T) {
	r := NewRegistry(t.TempDir())
	_, err := r.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestSectionList(t *testing.T) {
	r := NewRegistry(t.TempDir())
	tpl, err := r.Get("default")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Overview", "Agenda", "Discussion", "Decisions", "Action items", "Next meeting",
	}, tpl.SectionList)
}

func TestFileShadowsBuiltin(t *testing.T) {
	dir := t.TempDir()
	custom := `---
name: "My default"
description: "customized"
---

# Minutes

## Only section

-
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.md"), []byte(custom), 0o644))

	r := NewRegistry(dir)
	tpl, err := r.Get("default")
	require.NoError(t, err)
	assert.Equal(t, "My default", tpl.Info.DisplayName)
	assert.Equal(t, []string{"Only section"}, tpl.SectionList)
}

func TestInstallBuiltins(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(dir)
	require.NoError(t, r.InstallBuiltins())

	for _, name := range builtinOrder {
		_, err := os.Stat(filepath.Join(dir, name+".md"))
		assert.NoError(t, err, name)
	}

	// A second install must not clobber user edits.
	edited := filepath.Join(dir, "standup.md")
	require.NoError(t, os.WriteFile(edited, []byte("# mine\n\n## A\n"), 0o644))
	require.NoError(t, r.InstallBuiltins())
	data, err := os.ReadFile(edited)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n\n## A\n", string(data))
}

func TestListIncludesCustom(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "retro.md"),
		[]byte("---\nname: \"Retro\"\ndescription: \"retrospective\"\n---\n\n## Went well\n"), 0o644))

	r := NewRegistry(dir)
	infos, err := r.List()
	require.NoError(t, err)

	names := make([]string, 0, len(infos))
	for _, i := range infos {
		names = append(names, i.Name)
	}
	assert.Contains(t, names, "retro")
	assert.Contains(t, names, "default")
}

func TestRender(t *testing.T) {
	r := NewRegistry(t.TempDir())
	tpl, err := r.Get("default")
	require.NoError(t, err)

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	out := tpl.Render(RenderContext{
		StartTime:   start,
		EndTime:     start.Add(95 * time.Minute),
		UpdateCount: 3,
	})

	assert.Contains(t, out, "2025-06-01")
	assert.Contains(t, out, "10:00")
	assert.Contains(t, out, "11:35")
	assert.Contains(t, out, "01:35:00")
	assert.Contains(t, out, "3 updates")
	assert.NotContains(t, out, "{{")
}
