// Package domain contains the core data structures and domain logic for the application.
package domain

import "sort"

const (
	// DefaultLanguageColor is used when GitHub reports no color for a language.
	DefaultLanguageColor = "#000000"
	// DefaultLanguageName is used for language edges that come back without a name.
	DefaultLanguageName = "Other"
	// NotebookLanguage is never counted towards language totals.
	NotebookLanguage = "Jupyter Notebook"
)

// Origin tells which collection a repository was listed in.
type Origin int

const (
	OriginOwned Origin = iota
	OriginContributed
)

func (o Origin) String() string {
	if o == OriginContributed {
		return "contributed"
	}
	return "owned"
}

// LanguageEdge is one language entry of a repository, as reported by GitHub.
type LanguageEdge struct {
	Name  string
	Size  int
	Color string
}

// RepositoryRecord is a repository as it appears on a single page.
// It only lives until it has been folded into the aggregate.
type RepositoryRecord struct {
	NameWithOwner string
	Stargazers    int
	Forks         int
	Languages     []LanguageEdge
	Origin        Origin
}

// Collection is one page of one of the two paginated repository listings.
type Collection struct {
	Repos       []RepositoryRecord
	HasNextPage bool
	EndCursor   string
}

// Page is the result of a single overview query.
type Page struct {
	// Name is the display name of the user, falling back to the login.
	Name        string
	Owned       Collection
	Contributed Collection
}

// Language is the aggregated usage of one language across all folded repositories.
type Language struct {
	Size        int     `json:"size"`
	Occurrences int     `json:"occurrences"`
	Color       string  `json:"color"`
	Prop        float64 `json:"prop"`
}

// NamedLanguage pairs a Language with its name for ordered output.
type NamedLanguage struct {
	Name string `json:"name"`
	Language
}

// Stats holds the finalized statistics of a run. It is built once and only read afterwards.
type Stats struct {
	Name          string              `json:"name"`
	Stargazers    int                 `json:"stargazers"`
	Forks         int                 `json:"forks"`
	Repos         []string            `json:"repos"`
	Languages     map[string]Language `json:"languages"`
	Contributions int                 `json:"contributions"`
	LinesAdded    int                 `json:"lines_added"`
	LinesDeleted  int                 `json:"lines_deleted"`
	Views         int                 `json:"views"`
}

// TotalRepos returns the number of repositories that were folded into the stats.
func (s *Stats) TotalRepos() int {
	return len(s.Repos)
}

// LinesChanged returns additions and deletions by the user across all folded repositories.
func (s *Stats) LinesChanged() (int, int) {
	return s.LinesAdded, s.LinesDeleted
}

// SortedLanguages returns the languages ordered by size, largest first.
// Languages of equal size are ordered by name so the output is stable.
func (s *Stats) SortedLanguages() []NamedLanguage {
	langs := make([]NamedLanguage, 0, len(s.Languages))
	for name, lang := range s.Languages {
		langs = append(langs, NamedLanguage{Name: name, Language: lang})
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i].Size != langs[j].Size {
			return langs[i].Size > langs[j].Size
		}
		return langs[i].Name < langs[j].Name
	})
	return langs
}
