package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats_SortedLanguages(t *testing.T) {
	s := &Stats{
		Languages: map[string]Language{
			"Go":     {Size: 50},
			"Rust":   {Size: 200},
			"Python": {Size: 50},
		},
	}

	langs := s.SortedLanguages()

	require.Len(t, langs, 3)
	assert.Equal(t, "Rust", langs[0].Name)
	assert.Equal(t, "Go", langs[1].Name)
	assert.Equal(t, "Python", langs[2].Name)
}

func TestStats_Accessors(t *testing.T) {
	s := &Stats{Repos: []string{"a/a", "a/b"}, LinesAdded: 10, LinesDeleted: 3}

	assert.Equal(t, 2, s.TotalRepos())
	added, deleted := s.LinesChanged()
	assert.Equal(t, 10, added)
	assert.Equal(t, 3, deleted)
	assert.Empty(t, (&Stats{}).SortedLanguages())
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("boom")

	var transportErr *TransportError
	err := error(&TransportError{Op: "fetch page", Err: cause})
	require.True(t, errors.As(err, &transportErr))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "fetch page")

	err = &ConfigurationError{Field: "ACCESS_TOKEN", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN")

	shape := &DataShapeError{Repo: "a/b", Field: "color"}
	assert.Equal(t, "unexpected data shape in a/b: missing color", shape.Error())
}

func TestOrigin_String(t *testing.T) {
	assert.Equal(t, "owned", OriginOwned.String())
	assert.Equal(t, "contributed", OriginContributed.String())
}
