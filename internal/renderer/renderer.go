// Package renderer turns finalized stats into the overview and languages SVG badges.
package renderer

import (
	"context"
	"embed"
	"fmt"
	"html"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/naka-gawa/github-stats-badges/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	OverviewFile  = "overview.svg"
	LanguagesFile = "languages.svg"

	animationDelayMs = 150
)

//go:embed templates/*.svg
var embedded embed.FS

// Renderer fills the badge templates and writes them to an output directory.
type Renderer struct {
	templates fs.FS
	outDir    string
	logger    logrus.FieldLogger
	printer   *message.Printer
}

// New creates a Renderer using the built-in templates.
func New(outDir string, logger logrus.FieldLogger) *Renderer {
	templates, _ := fs.Sub(embedded, "templates")
	return NewWithTemplates(templates, outDir, logger)
}

// NewWithTemplates creates a Renderer that reads overview.svg and languages.svg from templates.
func NewWithTemplates(templates fs.FS, outDir string, logger logrus.FieldLogger) *Renderer {
	return &Renderer{
		templates: templates,
		outDir:    outDir,
		logger:    logger,
		printer:   message.NewPrinter(language.English),
	}
}

// Generate renders both badges concurrently. The files are staged next to their
// targets and moved into place only when both are staged; if placing one fails,
// the other is removed again so a failed run leaves no badges behind.
func (r *Renderer) Generate(ctx context.Context, s *domain.Stats) error {
	var overview, languages []byte
	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		overview, err = r.Overview(s)
		return err
	})
	eg.Go(func() error {
		var err error
		languages, err = r.Languages(s)
		return err
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := r.writeAll(map[string][]byte{OverviewFile: overview, LanguagesFile: languages}); err != nil {
		return err
	}
	r.logger.WithField("dir", r.outDir).Info("Badges generated.")
	return nil
}

// Overview renders the summary badge.
func (r *Renderer) Overview(s *domain.Stats) ([]byte, error) {
	tmpl, err := fs.ReadFile(r.templates, OverviewFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read overview template: %w", err)
	}
	added, deleted := s.LinesChanged()
	values := []struct {
		key   string
		value int
	}{
		{"stars", s.Stargazers},
		{"forks", s.Forks},
		{"contributions", s.Contributions},
		{"lines_changed", added + deleted},
		{"views", s.Views},
		{"repos", s.TotalRepos()},
	}

	pairs := []string{placeholder("name"), html.EscapeString(s.Name)}
	for _, v := range values {
		r.logger.WithField(v.key, v.value).Debug("overview value")
		pairs = append(pairs, placeholder(v.key), r.printer.Sprintf("%d", v.value))
	}
	return []byte(strings.NewReplacer(pairs...).Replace(string(tmpl))), nil
}

// Languages renders the language distribution badge, largest language first.
func (r *Renderer) Languages(s *domain.Stats) ([]byte, error) {
	tmpl, err := fs.ReadFile(r.templates, LanguagesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read languages template: %w", err)
	}

	var progress, list strings.Builder
	langs := s.SortedLanguages()
	for i, lang := range langs {
		color := lang.Color
		if color == "" {
			color = domain.DefaultLanguageColor
		}
		ratio := [2]float64{0.98, 0.02}
		if lang.Prop > 50 {
			ratio = [2]float64{0.99, 0.01}
		}
		if i == len(langs)-1 {
			ratio = [2]float64{1, 0}
		}
		fmt.Fprintf(&progress, `<span style="background-color: %s;width: %0.3f%%;margin-right: %0.3f%%;" class="progress-item"></span>`,
			color, ratio[0]*lang.Prop, ratio[1]*lang.Prop)
		fmt.Fprintf(&list, `
<li style="animation-delay: %dms;">
<svg xmlns="http://www.w3.org/2000/svg" class="octicon" style="fill:%s;"
viewBox="0 0 16 16" version="1.1" width="16" height="16"><path
fill-rule="evenodd" d="M8 4a4 4 0 100 8 4 4 0 000-8z"></path></svg>
<span class="lang">%s</span>
<span class="percent">%0.2f%%</span>
</li>
`, i*animationDelayMs, color, html.EscapeString(lang.Name), lang.Prop)
	}

	out := strings.NewReplacer(
		placeholder("progress"), progress.String(),
		placeholder("lang_list"), list.String(),
	).Replace(string(tmpl))
	return []byte(out), nil
}

func (r *Renderer) writeAll(files map[string][]byte) error {
	staged := make(map[string]string, len(files))
	defer func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}()

	names := make([]string, 0, len(files))
	for name, content := range files {
		tmp, err := r.stage(name, content)
		if err != nil {
			return err
		}
		staged[name] = tmp
		names = append(names, name)
	}
	sort.Strings(names)

	var placed []string
	for _, name := range names {
		path := filepath.Join(r.outDir, name)
		if err := os.Rename(staged[name], path); err != nil {
			for _, p := range placed {
				os.Remove(p)
			}
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		delete(staged, name)
		placed = append(placed, path)
		r.logger.WithField("path", path).Debug("wrote badge")
	}
	return nil
}

func (r *Renderer) stage(name string, content []byte) (string, error) {
	f, err := os.CreateTemp(r.outDir, "."+name+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", name, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to stage %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to stage %s: %w", name, err)
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to stage %s: %w", name, err)
	}
	return f.Name(), nil
}

func placeholder(key string) string {
	return "{{ " + key + " }}"
}
