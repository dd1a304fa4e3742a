// Package highlight renders token spans as highlighted excerpts of the lines
// that contain them, one table row per token.
package highlight

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/hlspan/internal/lineindex"
	"github.com/zjrosen/hlspan/internal/log"
	"github.com/zjrosen/hlspan/internal/span"
)

// ErrTranslationOverrun is returned when a character-indexed span asks for
// more characters than the resolved lines hold.
var ErrTranslationOverrun = errors.New("character index past end of resolved lines")

// Markers substituted into rendered text.
const (
	NewlineMarker = "⏎"
	TruncateTail  = "…"
	DeletePicture = '␡'

	controlPictures = '\u2400' // ␀; control byte c is shown as controlPictures+c
)

// Labeler is anything that can name a token for display.
type Labeler interface {
	TokenName() string
}

// Label is a plain string label.
type Label string

// TokenName returns the label itself.
func (l Label) TokenName() string { return string(l) }

type stringerLabel struct{ fmt.Stringer }

func (s stringerLabel) TokenName() string { return s.String() }

// StringerLabel adapts any fmt.Stringer into a Labeler.
func StringerLabel(s fmt.Stringer) Labeler { return stringerLabel{s} }

// Row is one rendered token.
type Row struct {
	Label     string
	Span      span.Range
	FirstLine int // 1-based
	LastLine  int // 1-based
	Text      string
}

// Lines renders the row's line numbers as "n" or "n-m".
func (r Row) Lines() string {
	if r.FirstLine == r.LastLine {
		return strconv.Itoa(r.FirstLine)
	}
	return fmt.Sprintf("%d-%d", r.FirstLine, r.LastLine)
}

// Options configures a Highlighter.
type Options struct {
	Separator string
	Unit      span.Unit
	TabWidth  int
	ShowSpan  bool // add a numeric span column
	ShowLine  bool // add a line number column
	MaxWidth  int  // truncate rendered lines to this display width; 0 disables
	Style     lipgloss.Style
	Border    lipgloss.Border
}

// DefaultOptions returns LF lines, character indices and a tab width of 4.
func DefaultOptions() Options {
	return Options{
		Separator: lineindex.LF,
		Unit:      span.UnitChars,
		TabWidth:  4,
		Style:     SpanStyle,
		Border:    lipgloss.NormalBorder(),
	}
}

// Highlighter accumulates one Row per submitted token.
// It is not safe for concurrent use.
type Highlighter struct {
	source string
	index  *lineindex.Index
	opts   Options
	tab    string
	rows   []Row
}

// New builds the line index for source and returns an empty Highlighter.
// source must stay unchanged for the Highlighter's lifetime.
func New(source string, opts Options) (*Highlighter, error) {
	if opts.TabWidth < 0 {
		return nil, fmt.Errorf("tab width must be >= 0, got %d", opts.TabWidth)
	}
	if opts.MaxWidth < 0 {
		return nil, fmt.Errorf("max width must be >= 0, got %d", opts.MaxWidth)
	}

	index, err := lineindex.Build(source, opts.Separator, opts.Unit)
	if err != nil {
		return nil, fmt.Errorf("building line index: %w", err)
	}

	return &Highlighter{
		source: source,
		index:  index,
		opts:   opts,
		tab:    strings.Repeat(" ", opts.TabWidth),
	}, nil
}

// NewLF returns a Highlighter over "\n"-separated lines with default options.
func NewLF(source string) *Highlighter {
	h, _ := New(source, DefaultOptions())
	return h
}

// NewCRLF returns a Highlighter over "\r\n"-separated lines with default options.
func NewCRLF(source string) *Highlighter {
	opts := DefaultOptions()
	opts.Separator = lineindex.CRLF
	h, _ := New(source, opts)
	return h
}

// Index returns the line index built for the source.
func (h *Highlighter) Index() *lineindex.Index { return h.index }

// Submit resolves s to its enclosing lines and appends a highlighted row.
// s must be expressed in the Highlighter's unit. On error nothing is appended.
func (h *Highlighter) Submit(label Labeler, s span.Span) error {
	first, last, err := h.index.ResolveLines(s)
	if err != nil {
		return err
	}
	lines := span.ByteRange{
		Start: h.index.Boundary(first).Bytes.Start,
		End:   h.index.Boundary(last).Bytes.End,
	}

	middle, err := h.toBytes(s, h.index.Boundary(first), lines)
	if err != nil {
		return err
	}

	prefix := h.source[lines.Start:middle.Start]
	spanned := h.source[middle.Start:middle.End]
	suffix := h.source[middle.End:lines.End]

	text := h.visible(prefix) + h.mark(h.visible(spanned)) + h.visible(suffix)
	if h.opts.MaxWidth > 0 {
		text = truncateLines(text, h.opts.MaxWidth)
	}

	row := Row{
		Label:     label.TokenName(),
		Span:      span.Of(s),
		FirstLine: first + 1,
		LastLine:  last + 1,
		Text:      text,
	}
	h.rows = append(h.rows, row)

	log.Debug(log.CatHighlight, "Submitted token",
		"label", row.Label, "span", row.Span, "lines", row.Lines(), "bytes", middle)
	return nil
}

// toBytes converts s into byte offsets. In byte mode the offsets must fall on
// UTF-8 character boundaries. In char mode characters are counted forward
// from the start of the first resolved line.
func (h *Highlighter) toBytes(s span.Span, first lineindex.LineBoundary, lines span.ByteRange) (span.ByteRange, error) {
	if h.opts.Unit == span.UnitBytes {
		for _, off := range []int{s.Start(), s.End()} {
			if off < len(h.source) && !utf8.RuneStart(h.source[off]) {
				return span.ByteRange{}, fmt.Errorf("%w: byte offset %d splits a UTF-8 character", span.ErrMalformedSpan, off)
			}
		}
		return span.ByteRange{Start: span.ByteOffset(s.Start()), End: span.ByteOffset(s.End())}, nil
	}

	resolved := h.source[:lines.End]
	start, ok := advance(resolved, int(first.Bytes.Start), span.CharIndex(s.Start()-first.Index.Start))
	if !ok {
		return span.ByteRange{}, fmt.Errorf("%w: start %d", ErrTranslationOverrun, s.Start())
	}
	end, ok := advance(resolved, int(start), span.CharIndex(s.End()-s.Start()))
	if !ok {
		return span.ByteRange{}, fmt.Errorf("%w: end %d", ErrTranslationOverrun, s.End())
	}
	return span.ByteRange{Start: start, End: end}, nil
}

// advance returns the byte offset n characters after from, or false if src
// ends first.
func advance(src string, from int, n span.CharIndex) (span.ByteOffset, bool) {
	off := from
	for ; n > 0; n-- {
		if off >= len(src) {
			return 0, false
		}
		_, size := utf8.DecodeRuneInString(src[off:])
		off += size
	}
	return span.ByteOffset(off), true
}

// visible expands tabs, marks line ends and swaps the remaining C0 controls
// and DEL for their Unicode control pictures. "\r\n" is one line end.
func (h *Highlighter) visible(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\t':
			b.WriteString(h.tab)
		case c == '\r' && i+1 < len(s) && s[i+1] == '\n':
			b.WriteString(NewlineMarker + "\n")
			i++
		case c == '\n':
			b.WriteString(NewlineMarker + "\n")
		case c < 0x20:
			b.WriteRune(controlPictures + rune(c))
		case c == 0x7f:
			b.WriteRune(DeletePicture)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// mark styles each physical line separately so lipgloss never pads a
// multi-line span to a block.
func (h *Highlighter) mark(s string) string {
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		if p != "" {
			parts[i] = h.opts.Style.Render(p)
		}
	}
	return strings.Join(parts, "\n")
}

func truncateLines(s string, width int) string {
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		parts[i] = ansi.Truncate(p, width, TruncateTail)
	}
	return strings.Join(parts, "\n")
}

// Len returns the number of accumulated rows.
func (h *Highlighter) Len() int { return len(h.rows) }

// Rows returns a copy of the accumulated rows in submission order.
func (h *Highlighter) Rows() []Row {
	out := make([]Row, len(h.rows))
	copy(out, h.rows)
	return out
}

// Render formats the accumulated rows as a table. It does not change state.
func (h *Highlighter) Render() string {
	headers := []string{"token"}
	if h.opts.ShowLine {
		headers = append(headers, "line")
	}
	if h.opts.ShowSpan {
		headers = append(headers, "span")
	}
	headers = append(headers, "source")

	t := table.New().
		Border(h.opts.Border).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		})

	for _, r := range h.rows {
		cells := []string{r.Label}
		if h.opts.ShowLine {
			cells = append(cells, r.Lines())
		}
		if h.opts.ShowSpan {
			cells = append(cells, r.Span.String())
		}
		cells = append(cells, r.Text)
		t.Row(cells...)
	}

	return t.Render()
}

// Print writes the rendered table and a trailing newline to w.
func (h *Highlighter) Print(w io.Writer) error {
	_, err := fmt.Fprintln(w, h.Render())
	return err
}

// Emit prints the rendered table to standard output.
func (h *Highlighter) Emit() error {
	return h.Print(os.Stdout)
}
