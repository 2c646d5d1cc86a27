// Package errors provides error formatting infrastructure for booking and
// parse errors. It separates error formatting from domain logic, allowing
// errors to be rendered in multiple formats (text, JSON) for different
// consumers (CLI, web API).
//
// The package defines a Formatter interface and provides two implementations:
//   - TextFormatter: formats errors for command-line output with the
//     offending directive reproduced underneath
//   - JSONFormatter: formats errors as structured JSON for the web API
//
// Domain-specific error types remain in their respective packages (ledger,
// parser); this package handles the presentation layer.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avandenberg/ledgerbook/ast"
	"github.com/avandenberg/ledgerbook/parser"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	// Format formats a single error.
	Format(err error) string

	// FormatAll formats multiple errors.
	FormatAll(errs []error) string
}

// TextFormatter formats errors for command-line output.
type TextFormatter struct {
	sourceContent []byte // Optional source content for parse error context
}

// TextFormatterOption is an option for configuring TextFormatter.
type TextFormatterOption func(*TextFormatter)

// WithSource sets the source content for parse error context.
func WithSource(source []byte) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.sourceContent = source
	}
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts ...TextFormatterOption) *TextFormatter {
	tf := &TextFormatter{}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Format formats a single error, reproducing the offending directive or
// source lines underneath the message when context is available.
func (tf *TextFormatter) Format(err error) string {
	// Error with position and directive context
	if e, ok := err.(interface {
		GetPosition() ast.Position
		GetDirective() ast.Directive
		Error() string
	}); ok {
		return tf.formatWithContext(e.Error(), e.GetDirective())
	}

	// Parse error with source context
	if e, ok := err.(*parser.ParseError); ok {
		if tf.sourceContent != nil {
			return tf.formatWithSourceContext(e.Pos, e.Error(), tf.sourceContent)
		}
	}

	// Error with position only
	if e, ok := err.(interface {
		GetPosition() ast.Position
		Error() string
	}); ok {
		if tf.sourceContent != nil {
			return tf.formatWithSourceContext(e.GetPosition(), e.Error(), tf.sourceContent)
		}
	}

	return err.Error()
}

// FormatAll formats multiple errors, separating them with blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf bytes.Buffer
	for i, err := range errs {
		buf.WriteString(tf.Format(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// formatWithSourceContext formats an error followed by the original source
// lines around the error position, with a caret under the error column.
func (tf *TextFormatter) formatWithSourceContext(pos ast.Position, message string, sourceContent []byte) string {
	var buf bytes.Buffer

	buf.WriteString(message)
	buf.WriteString("\n\n")

	sourceLines := strings.Split(string(sourceContent), "\n")

	// Show 2 lines before and 2 after the error line
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
		buf.WriteString(sourceLines[i])
		buf.WriteByte('\n')

		if i == pos.Line-1 && pos.Column > 0 {
			buf.WriteString("   ")
			for j := 0; j < pos.Column-1; j++ {
				buf.WriteByte(' ')
			}
			buf.WriteString("^\n")
		}
	}

	return buf.String()
}

// formatWithContext formats an error with the offending directive rendered
// underneath.
func (tf *TextFormatter) formatWithContext(message string, directive ast.Directive) string {
	if directive == nil {
		return message
	}

	var buf bytes.Buffer

	buf.WriteString(message)
	buf.WriteString("\n\n")

	for _, line := range RenderDirective(directive) {
		buf.WriteString("   ")
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	return buf.String()
}

// RenderDirective reproduces a directive in source-like form, one string per
// line. Shared by the text formatter and the CLI's styled renderer.
func RenderDirective(directive ast.Directive) []string {
	switch d := directive.(type) {
	case *ast.Transaction:
		lines := make([]string, 0, 1+len(d.Postings))

		header := fmt.Sprintf("%s %s %q", d.When.String(), flagOrTxn(d.Flag), d.Description)
		for _, tag := range d.Tags {
			header += " #" + string(tag)
		}
		lines = append(lines, header)

		for _, p := range d.Postings {
			line := "  " + string(p.Account)
			if p.Amount != nil {
				line += "  " + p.Amount.String()
			}
			if p.Cost != nil {
				line += " " + p.Cost.String()
			}
			lines = append(lines, line)
		}
		return lines

	case *ast.Balance:
		line := fmt.Sprintf("%s balance %s  %s", d.When.String(), d.Account, d.Amount.String())
		if d.Tolerance != "" {
			line += " ~ " + d.Tolerance
		}
		return []string{line}

	case *ast.Open:
		line := fmt.Sprintf("%s open %s", d.When.String(), d.Account)
		if len(d.Currencies) > 0 {
			line += " " + strings.Join(d.Currencies, ",")
		}
		return []string{line}

	case *ast.Close:
		return []string{fmt.Sprintf("%s close %s", d.When.String(), d.Account)}

	case *ast.Currency:
		return []string{fmt.Sprintf("%s currency %s", d.When.String(), d.Code)}

	default:
		return nil
	}
}

func flagOrTxn(flag string) string {
	if flag == "" {
		return "txn"
	}
	return flag
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Type     string                 `json:"type"`
	Message  string                 `json:"message"`
	Position *PositionJSON          `json:"position,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// PositionJSON represents a file position in JSON format.
type PositionJSON struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	errJSON := jf.toJSON(err)
	data, _ := json.Marshal(errJSON)
	return string(data)
}

// FormatAll formats multiple errors as a JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	jsonErrors := jf.FormatAllToSlice(errs)
	data, _ := json.MarshalIndent(jsonErrors, "", "  ")
	return string(data)
}

// FormatAllToSlice returns errors as a slice of ErrorJSON structs.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		result = append(result, jf.toJSON(err))
	}
	return result
}

// toJSON converts an error to ErrorJSON.
func (jf *JSONFormatter) toJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
		Details: make(map[string]interface{}),
	}

	if e, ok := err.(interface{ GetPosition() ast.Position }); ok {
		pos := e.GetPosition()
		errJSON.Position = &PositionJSON{
			Filename: pos.Filename,
			Line:     pos.Line,
			Column:   pos.Column,
		}
	}

	if e, ok := err.(interface{ GetDirective() ast.Directive }); ok {
		if d := e.GetDirective(); d != nil {
			errJSON.Details["directive"] = d.Directive()
			errJSON.Details["date"] = d.Date().String()
		}
	}

	return errJSON
}
