package model

import "unicode/utf8"

// DefaultHeaderBytes is how much of an opinion counts as its header (caption,
// parallel cites, court, date).
const DefaultHeaderBytes = 3000

// AuthorityDocument is the full text of one cited opinion
type AuthorityDocument struct {
	ID       string `json:"id"`        // File name without extension
	FileName string `json:"file_name"` // File name on disk
	Text     string `json:"-"`         // Full opinion text

	headerBytes int
}

// NewAuthorityDocument creates a document whose header spans headerBytes of text.
func NewAuthorityDocument(id, fileName, text string, headerBytes int) *AuthorityDocument {
	if headerBytes <= 0 {
		headerBytes = DefaultHeaderBytes
	}
	return &AuthorityDocument{
		ID:          id,
		FileName:    fileName,
		Text:        text,
		headerBytes: headerBytes,
	}
}

// Header returns the leading portion of the opinion, cut on a rune boundary.
func (d *AuthorityDocument) Header() string {
	limit := d.headerBytes
	if limit <= 0 {
		limit = DefaultHeaderBytes
	}
	if len(d.Text) <= limit {
		return d.Text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(d.Text[cut]) {
		cut--
	}
	return d.Text[:cut]
}
