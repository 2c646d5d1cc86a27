package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/avandenberg/ledgerbook/ast"
	lberrors "github.com/avandenberg/ledgerbook/errors"
	"github.com/avandenberg/ledgerbook/parser"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and source context.
type ErrorRenderer struct {
	source []byte
	width  int
}

// NewErrorRenderer creates a renderer with source content for context. The
// context lines are truncated to the terminal width.
func NewErrorRenderer(source []byte) *ErrorRenderer {
	width := 0
	if w, _, err := term.GetSize(int(stderrFd())); err == nil {
		width = w
	}
	return &ErrorRenderer{source: source, width: width}
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	if e, ok := err.(interface {
		GetPosition() ast.Position
		GetDirective() ast.Directive
		Error() string
	}); ok {
		return r.renderWithContext(e.Error(), e.GetDirective())
	}

	if e, ok := err.(*parser.ParseError); ok {
		if r.source != nil {
			return r.renderWithSourceContext(e.Pos, e.Error())
		}
	}

	if e, ok := err.(interface {
		GetPosition() ast.Position
		Error() string
	}); ok {
		if r.source != nil {
			return r.renderWithSourceContext(e.GetPosition(), e.Error())
		}
	}

	return err.Error()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

func (r *ErrorRenderer) renderWithSourceContext(pos ast.Position, message string) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	sourceLines := strings.Split(string(r.source), "\n")

	startLine := pos.Line - 3
	endLine := pos.Line + 1

	if startLine < 0 {
		startLine = 0
	}
	if endLine >= len(sourceLines) {
		endLine = len(sourceLines) - 1
	}

	for i := startLine; i <= endLine; i++ {
		if i >= len(sourceLines) {
			break
		}
		buf.WriteString("   ")
		buf.WriteString(errContextStyle.Render(r.clip(sourceLines[i])))
		buf.WriteByte('\n')

		if i == pos.Line-1 && pos.Column > 0 {
			buf.WriteString("   ")
			for j := 0; j < pos.Column-1; j++ {
				buf.WriteByte(' ')
			}
			buf.WriteString(errCaretStyle.Render("^"))
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

func (r *ErrorRenderer) renderWithContext(message string, directive ast.Directive) string {
	if directive == nil {
		return errorStyle.Render(message)
	}

	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	for _, line := range lberrors.RenderDirective(directive) {
		buf.WriteString("   ")
		buf.WriteString(errContextStyle.Render(r.clip(line)))
		buf.WriteByte('\n')
	}

	return buf.String()
}

func stderrFd() uintptr {
	return os.Stderr.Fd()
}

// clip truncates a context line to the terminal width, accounting for the
// 3-column indent.
func (r *ErrorRenderer) clip(line string) string {
	if r.width <= 3 || len(line) <= r.width-3 {
		return line
	}
	return line[:r.width-4] + "…"
}
