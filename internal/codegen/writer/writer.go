package writer

import (
	"fmt"
	"strings"
)

// Writer accumulates generated source text with indentation tracking
type Writer struct {
	sb            strings.Builder
	indentLevel   int
	indentString  string
	commentPrefix string
	linePrefix    string
	needsIndent   bool
}

// NewWriter creates a writer using indentString per level and "# " comments
func NewWriter(indentString string) *Writer {
	return &Writer{
		indentString:  indentString,
		commentPrefix: "# ",
		needsIndent:   true,
	}
}

// WithCommentPrefix changes the prefix used by WriteComment
func (w *Writer) WithCommentPrefix(prefix string) *Writer {
	w.commentPrefix = prefix
	return w
}

// Indent increases the indentation level
func (w *Writer) Indent() {
	w.indentLevel++
	w.updatePrefix()
}

// Dedent decreases the indentation level
func (w *Writer) Dedent() {
	if w.indentLevel > 0 {
		w.indentLevel--
		w.updatePrefix()
	}
}

// Write writes a string without adding a newline
func (w *Writer) Write(s string) {
	if w.needsIndent && s != "" {
		w.sb.WriteString(w.linePrefix)
		w.needsIndent = false
	}
	w.sb.WriteString(s)
}

// Writef writes a formatted string without adding a newline
func (w *Writer) Writef(format string, args ...interface{}) {
	w.Write(fmt.Sprintf(format, args...))
}

// WriteLine writes a string and adds a newline
func (w *Writer) WriteLine(s string) {
	w.Write(s)
	w.Newline()
}

// WriteLinef writes a formatted string and adds a newline
func (w *Writer) WriteLinef(format string, args ...interface{}) {
	w.Writef(format, args...)
	w.Newline()
}

// WriteLines writes a multi-line block, indenting every non-empty line.
// A single trailing newline in text is ignored.
func (w *Writer) WriteLines(text string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		w.WriteLine(line)
	}
}

// Newline adds a newline character
func (w *Writer) Newline() {
	w.sb.WriteString("\n")
	w.needsIndent = true
}

// BlankLine adds an empty line unless the output already ends with one
func (w *Writer) BlankLine() {
	if w.sb.Len() > 0 && !strings.HasSuffix(w.sb.String(), "\n\n") {
		w.Newline()
	}
}

// IndentLevel returns the current indentation level
func (w *Writer) IndentLevel() int {
	return w.indentLevel
}

// String returns the generated code as a string
func (w *Writer) String() string {
	return w.sb.String()
}

// Bytes returns the generated code as a byte slice
func (w *Writer) Bytes() []byte {
	return []byte(w.sb.String())
}

// Reset clears the writer's content and resets indentation
func (w *Writer) Reset() {
	w.sb.Reset()
	w.indentLevel = 0
	w.linePrefix = ""
	w.needsIndent = true
}

func (w *Writer) updatePrefix() {
	w.linePrefix = strings.Repeat(w.indentString, w.indentLevel)
}

// WriteBlock writes content inside a block with proper indentation
// Example: WriteBlock("if ok:", "", func() { w.WriteLine("print(1)") })
func (w *Writer) WriteBlock(opener, closer string, content func()) {
	w.WriteLine(opener)
	w.Indent()
	content()
	w.Dedent()
	if closer != "" {
		w.WriteLine(closer)
	}
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// WriteComment writes a single-line comment. Line breaks in comment become
// spaces so the text cannot leave the comment.
func (w *Writer) WriteComment(comment string) {
	if comment == "" {
		w.WriteLine(strings.TrimRight(w.commentPrefix, " "))
		return
	}
	w.WriteLine(w.commentPrefix + lineBreaks.Replace(comment))
}

// WriteRule writes a comment made of n repetitions of ch, used as a section banner
func (w *Writer) WriteRule(ch string, n int) {
	w.WriteComment(strings.Repeat(ch, n))
}

var docStringEscaper = strings.NewReplacer(`\`, `\\`, `"""`, `\"\"\"`)

// WriteDocString writes a Python triple-quoted docstring. Backslashes and
// embedded triple quotes are escaped.
func (w *Writer) WriteDocString(lines []string) {
	w.WriteLine(`"""`)
	for _, line := range lines {
		w.WriteLine(docStringEscaper.Replace(line))
	}
	w.WriteLine(`"""`)
}
