package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/citecheck/internal/corpus"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/worker"
)

// ErrNoBriefs is returned when no brief text could be loaded. It aborts a run.
var ErrNoBriefs = errors.New("no briefs found")

var briefLoaders = []corpus.Loader{corpus.TextLoader{}, corpus.HTMLLoader{}}

// LoadBriefs reads every brief in dir, in file name order
func LoadBriefs(dir string, logger *slog.Logger) ([]model.Brief, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s does not exist", ErrNoBriefs, dir)
		}
		return nil, fmt.Errorf("read brief directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	return loadBriefFiles(paths, logger)
}

// LoadBriefList reads the briefs named in a list file, one path per line,
// keeping list order. Relative paths are resolved against the list's directory.
func LoadBriefList(listPath string, logger *slog.Logger) ([]model.Brief, error) {
	lines, err := worker.ReadListFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read brief list: %w", err)
	}

	base := filepath.Dir(listPath)
	paths := make([]string, 0, len(lines))
	for _, line := range lines {
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		paths = append(paths, line)
	}

	return loadBriefFiles(paths, logger)
}

func loadBriefFiles(paths []string, logger *slog.Logger) ([]model.Brief, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var briefs []model.Brief
	seen := make(map[string]string)
	for _, path := range paths {
		name := filepath.Base(path)
		loader := loaderFor(name)
		if loader == nil {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable brief", "path", path, "error", err)
			continue
		}
		text, err := loader.Load(data)
		if err != nil {
			logger.Warn("Skipping brief", "path", path, "loader", loader.Name(), "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			logger.Warn("Skipping empty brief", "path", path)
			continue
		}

		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("two briefs share the name %s: %s and %s", name, prev, path)
		}
		seen[name] = path

		briefs = append(briefs, model.Brief{
			ID:             name,
			Path:           path,
			Text:           text,
			Classification: Classify(name),
		})
	}

	if len(briefs) == 0 {
		return nil, ErrNoBriefs
	}
	return briefs, nil
}

func loaderFor(name string) corpus.Loader {
	for _, l := range briefLoaders {
		if l.CanHandle(name) {
			return l
		}
	}
	return nil
}

var partyWords = []string{"appellant", "appellee", "petitioner", "respondent", "relator", "amicus", "state", "defendant", "plaintiff"}

// Classify infers a brief's kind and filing party from its file name, e.g.
// "2024-03-01 State's Response Brief.txt" is a response by the state.
func Classify(fileName string) model.BriefClassification {
	words := titleWords(fileName)

	var c model.BriefClassification
	for _, w := range words {
		switch {
		case c.Kind == "" && w == "reply":
			c.Kind = model.BriefReply
		case c.Kind == "" && (w == "response" || w == "answer" || w == "responsive"):
			c.Kind = model.BriefResponse
		case c.Kind == "" && (w == "opening" || w == "principal" || w == "initial" || w == "merits"):
			c.Kind = model.BriefOpening
		}
		if c.Party == "" {
			for _, p := range partyWords {
				if w == p || w == p+"s" {
					c.Party = p
					break
				}
			}
		}
	}

	if c.Kind == "" {
		switch c.Party {
		case "appellant", "petitioner", "relator":
			c.Kind = model.BriefOpening
		case "appellee", "respondent", "state":
			c.Kind = model.BriefResponse
		default:
			c.Kind = model.BriefOther
		}
	}
	return c
}

// titleWords de-slugs a file name into lowercase words
func titleWords(fileName string) []string {
	name := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	name = strings.ToLower(name)
	name = strings.NewReplacer("'s", "", "’s", "").Replace(name)
	return strings.FieldsFunc(name, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}
