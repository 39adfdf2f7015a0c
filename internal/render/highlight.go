// Package render turns stored text into HTML: syntax-highlighted pages
// for "key.ext" views and the markdown help page.
package render

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const DefaultStyle = "github"

// Highlighter renders code as a standalone HTML document.
type Highlighter struct {
	style     *chroma.Style
	formatter *html.Formatter
}

// NewHighlighter uses the named chroma style, falling back to chroma's
// default style when the name is unknown.
func NewHighlighter(styleName string) *Highlighter {
	return &Highlighter{
		style:     styles.Get(styleName),
		formatter: html.New(html.Standalone(true), html.TabWidth(4)),
	}
}

// Highlight renders code with the lexer registered for the file
// extension ext. ok is false when no lexer knows ext.
func (h *Highlighter) Highlight(code, ext string) (page []byte, ok bool, err error) {
	lexer := lexers.Get(ext)
	if lexer == nil {
		return nil, false, nil
	}

	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return nil, false, fmt.Errorf("render: tokenising %s: %w", ext, err)
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return nil, false, fmt.Errorf("render: formatting %s: %w", ext, err)
	}

	return buf.Bytes(), true, nil
}
