package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownToText reduces a markdown document to its plain text content by
// walking the goldmark AST. Inline markup is dropped, code blocks are kept
// verbatim, block boundaries become blank lines.
func markdownToText(source []byte) string {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte('\n')
				}
			}
		case *ast.FencedCodeBlock:
			if entering {
				writeBlockLines(&b, source, node)
			}
		case *ast.CodeBlock:
			if entering {
				writeBlockLines(&b, source, node)
			}
		default:
			if !entering && n.Type() == ast.TypeBlock {
				b.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(collapseBlankLines(b.String()))
}

func writeBlockLines(b *strings.Builder, source []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	b.WriteString("\n\n")
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
