package corpus

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
)

// ErrNoCorpus is returned when the authority directory is missing or holds no
// readable opinions. It aborts a run.
var ErrNoCorpus = errors.New("no authority files found")

// Corpus is the read-only set of authority documents for one run
type Corpus struct {
	docs []*model.AuthorityDocument
	byID map[string]*model.AuthorityDocument
}

// New builds a corpus from documents, ordered by identifier.
func New(docs ...*model.AuthorityDocument) *Corpus {
	sorted := append([]*model.AuthorityDocument(nil), docs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	c := &Corpus{
		docs: sorted,
		byID: make(map[string]*model.AuthorityDocument, len(sorted)),
	}
	for _, d := range sorted {
		c.byID[d.ID] = d
	}
	return c
}

// Load reads every supported file in dir. Files no loader accepts are
// ignored; files that fail to load are skipped with a warning.
func Load(dir string, headerBytes int, logger *slog.Logger) (*Corpus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s does not exist", ErrNoCorpus, dir)
		}
		return nil, fmt.Errorf("read authority directory: %w", err)
	}

	loaders := []Loader{TextLoader{}, HTMLLoader{}}

	var docs []*model.AuthorityDocument
	seen := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		loader := findLoader(loaders, name)
		if loader == nil {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("Skipping unreadable authority", "file", name, "error", err)
			continue
		}

		text, err := loader.Load(data)
		if err != nil {
			logger.Warn("Skipping authority", "file", name, "loader", loader.Name(), "error", err)
			continue
		}

		id := IdentifierFromFileName(name)
		if prev, dup := seen[id]; dup {
			logger.Warn("Duplicate authority identifier, keeping first", "id", id, "kept", prev, "skipped", name)
			continue
		}
		seen[id] = name

		docs = append(docs, model.NewAuthorityDocument(id, name, text, headerBytes))
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoCorpus, dir)
	}

	logger.Debug("Loaded authority corpus", "dir", dir, "documents", len(docs))
	return New(docs...), nil
}

// IdentifierFromFileName strips the extension from a file named by the
// "Case Name, Volume Reporter Page (Court Year, disposition)" convention.
func IdentifierFromFileName(name string) string {
	return strings.TrimSpace(strings.TrimSuffix(name, filepath.Ext(name)))
}

// Docs returns the documents in identifier order. The slice must not be modified.
func (c *Corpus) Docs() []*model.AuthorityDocument {
	return c.docs
}

// Get returns the document with the given identifier.
func (c *Corpus) Get(id string) (*model.AuthorityDocument, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.docs)
}
