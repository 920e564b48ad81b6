package renderer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/naka-gawa/github-stats-badges/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func sampleStats() *domain.Stats {
	return &domain.Stats{
		Name:          "Octo <Cat>",
		Stargazers:    1234567,
		Forks:         5,
		Repos:         []string{"a/a", "a/b"},
		Contributions: 1500,
		LinesAdded:    999,
		LinesDeleted:  1,
		Views:         42,
		Languages: map[string]domain.Language{
			"Go":  {Size: 150, Occurrences: 2, Color: "#00ADD8", Prop: 75},
			"C++": {Size: 50, Occurrences: 1, Prop: 25},
		},
	}
}

func TestRenderer_Overview(t *testing.T) {
	templates := fstest.MapFS{
		OverviewFile: {Data: []byte("{{ name }}|{{ stars }}|{{ forks }}|{{ contributions }}|{{ lines_changed }}|{{ views }}|{{ repos }}")},
	}
	r := NewWithTemplates(templates, t.TempDir(), discardLogger())

	out, err := r.Overview(sampleStats())

	require.NoError(t, err)
	assert.Equal(t, "Octo &lt;Cat&gt;|1,234,567|5|1,500|1,000|42|2", string(out))
}

func TestRenderer_Languages(t *testing.T) {
	templates := fstest.MapFS{
		LanguagesFile: {Data: []byte("[{{ progress }}][{{ lang_list }}]")},
	}
	r := NewWithTemplates(templates, t.TempDir(), discardLogger())

	out, err := r.Languages(sampleStats())

	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `<span style="background-color: #00ADD8;width: 74.250%;margin-right: 0.750%;" class="progress-item"></span>`)
	assert.Contains(t, s, `<span style="background-color: #000000;width: 25.000%;margin-right: 0.000%;" class="progress-item"></span>`)
	assert.Contains(t, s, `<span class="percent">75.00%</span>`)
	assert.Contains(t, s, `animation-delay: 150ms;`)
	assert.Contains(t, s, `<span class="lang">C++</span>`)
	assert.Less(t, strings.Index(s, "Go</span>"), strings.Index(s, "C++</span>"))
}

func TestRenderer_Languages_Empty(t *testing.T) {
	templates := fstest.MapFS{LanguagesFile: {Data: []byte("[{{ progress }}][{{ lang_list }}]")}}
	r := NewWithTemplates(templates, t.TempDir(), discardLogger())

	out, err := r.Languages(&domain.Stats{})

	require.NoError(t, err)
	assert.Equal(t, "[][]", string(out))
}

func TestRenderer_Generate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generated")
	r := New(dir, discardLogger())

	require.NoError(t, r.Generate(context.Background(), sampleStats()))

	overview, err := os.ReadFile(filepath.Join(dir, OverviewFile))
	require.NoError(t, err)
	assert.Contains(t, string(overview), "Octo &lt;Cat&gt;'s GitHub Statistics")
	assert.NotContains(t, string(overview), "{{")

	languages, err := os.ReadFile(filepath.Join(dir, LanguagesFile))
	require.NoError(t, err)
	assert.Contains(t, string(languages), `class="progress-item"`)
	assert.NotContains(t, string(languages), "{{")
}

func TestRenderer_Generate_MissingTemplate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generated")
	r := NewWithTemplates(fstest.MapFS{OverviewFile: {Data: []byte("{{ name }}")}}, dir, discardLogger())

	err := r.Generate(context.Background(), sampleStats())

	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, OverviewFile))
}

func TestRenderer_Generate_FailedWriteLeavesNoBadges(t *testing.T) {
	dir := t.TempDir()
	// overview.svg is placed after languages.svg; a non-empty directory in its way makes that fail.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, OverviewFile, "blocker"), 0o755))
	r := New(dir, discardLogger())

	err := r.Generate(context.Background(), sampleStats())

	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, LanguagesFile))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "staged files must be cleaned up")
	assert.Equal(t, OverviewFile, entries[0].Name())
}
