// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPageText returns the plain text layer of every page of an
// unencrypted document, one entry per page. Pages without a text layer
// yield an empty string.
func ExtractPageText(path string) (pages []string, err error) {
	// The parser panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("extracting text from %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s for text extraction: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	n := r.NumPage()
	fonts := make(map[string]*pdf.Font)
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("reading text of %s page %d: %w", path, i, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}
