package domain

import "strings"

// Paper is a bibliographic record returned by a paper source.
// Missing fields are empty strings; Authors is never nil once normalized.
type Paper struct {
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Abstract string   `json:"abstract"`
	Link     string   `json:"link"`
}

// Normalize collapses whitespace in text fields, drops blank author names,
// and guarantees a non-nil Authors slice.
func (p Paper) Normalize() Paper {
	out := Paper{
		Title:    NormalizeWhitespace(p.Title),
		Abstract: NormalizeWhitespace(p.Abstract),
		Link:     strings.TrimSpace(p.Link),
		Authors:  make([]string, 0, len(p.Authors)),
	}
	for _, a := range p.Authors {
		if name := NormalizeWhitespace(a); name != "" {
			out.Authors = append(out.Authors, name)
		}
	}
	return out
}

// PaperAnalysis pairs a paper with the completion produced for it.
type PaperAnalysis struct {
	Paper    Paper  `json:"paper"`
	Analysis string `json:"analysis"`
}

// NormalizeWhitespace replaces runs of whitespace (including newlines) with a
// single space and trims the result.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
