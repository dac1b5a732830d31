package corpus

import (
	"bytes"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Loader turns one authority file into plain opinion text
type Loader interface {
	// Name returns the loader name
	Name() string

	// CanHandle checks if this loader understands the file
	CanHandle(fileName string) bool

	// Load converts the file contents to text
	Load(data []byte) (string, error)
}

// TextLoader reads plain-text opinions as downloaded from a legal database
type TextLoader struct{}

// Name returns the loader name
func (TextLoader) Name() string { return "text" }

// CanHandle accepts .txt files
func (TextLoader) CanHandle(fileName string) bool {
	return strings.EqualFold(filepath.Ext(fileName), ".txt")
}

// Load decodes the file, replacing invalid UTF-8
func (TextLoader) Load(data []byte) (string, error) {
	return strings.ToValidUTF8(string(data), "�"), nil
}

// HTMLLoader reads opinions saved as HTML pages
type HTMLLoader struct{}

// Name returns the loader name
func (HTMLLoader) Name() string { return "html" }

// CanHandle accepts .html and .htm files
func (HTMLLoader) CanHandle(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	return ext == ".html" || ext == ".htm"
}

// Load extracts the visible text of the page, one line per block element
func (HTMLLoader) Load(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head", "nav":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			buf.WriteString("\n")
		}
	}
	walk(doc)

	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "li", "tr", "section", "article", "center", "blockquote", "pre":
		return true
	}
	return false
}

// findLoader returns the first loader that accepts the file, or nil
func findLoader(loaders []Loader, fileName string) Loader {
	for _, l := range loaders {
		if l.CanHandle(fileName) {
			return l
		}
	}
	return nil
}
