package highlight

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/hlspan/internal/lineindex"
	"github.com/zjrosen/hlspan/internal/span"
)

func init() {
	// Force ANSI color output in tests (lipgloss disables colors when no TTY)
	lipgloss.SetColorProfile(termenv.ANSI256)
}

func newHighlighter(t *testing.T, source string, mutate func(*Options)) *Highlighter {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	h, err := New(source, opts)
	require.NoError(t, err)
	return h
}

func submit(t *testing.T, h *Highlighter, label string, start, end int) Row {
	t.Helper()
	require.NoError(t, h.Submit(Label(label), span.Range{Lo: start, Hi: end}))
	rows := h.Rows()
	return rows[len(rows)-1]
}

func TestSubmit_HighlightsSpanWithinLine(t *testing.T) {
	h := newHighlighter(t, "12 345 6", nil)

	row := submit(t, h, "Int", 3, 6)

	require.Equal(t, "12 "+SpanStyle.Render("345")+" 6", row.Text)
	require.Equal(t, "12 345 6", ansi.Strip(row.Text))
	require.Equal(t, "Int", row.Label)
	require.Equal(t, span.Range{Lo: 3, Hi: 6}, row.Span)
}

func TestSubmit_NoTabSubstitutionWithoutTabs(t *testing.T) {
	h := newHighlighter(t, "12 345 6", nil)

	row := submit(t, h, "Int", 4, 7)

	require.Equal(t, "12 3"+SpanStyle.Render("45 ")+"6", row.Text)
}

func TestSubmit_ExpandsTabs(t *testing.T) {
	h := newHighlighter(t, "\tx\t= 1", func(o *Options) { o.TabWidth = 2 })

	row := submit(t, h, "Ident", 1, 2)

	require.Equal(t, "  "+SpanStyle.Render("x")+"  = 1", row.Text)
}

func TestSubmit_ZeroTabWidthDropsTabs(t *testing.T) {
	h := newHighlighter(t, "\tx", func(o *Options) { o.TabWidth = 0 })

	row := submit(t, h, "Ident", 1, 2)

	require.Equal(t, SpanStyle.Render("x"), row.Text)
}

func TestSubmit_MultiLineSpanMarksNewlines(t *testing.T) {
	h := newHighlighter(t, "ab\ncd\nef", nil)

	row := submit(t, h, "Block", 1, 4)

	want := "a" + SpanStyle.Render("b"+NewlineMarker) + "\n" + SpanStyle.Render("c") + "d"
	require.Equal(t, want, row.Text)
	require.Equal(t, "ab⏎\ncd", ansi.Strip(row.Text))
	require.Equal(t, 1, row.FirstLine)
	require.Equal(t, 2, row.LastLine)
	require.Equal(t, "1-2", row.Lines())
}

func TestSubmit_EmptySpan(t *testing.T) {
	h := newHighlighter(t, "abc\ndef", nil)

	row := submit(t, h, "Empty", 5, 5)

	require.Equal(t, "def", row.Text)
	require.Equal(t, "2", row.Lines())
}

func TestSubmit_CharIndicesTranslateToBytes(t *testing.T) {
	h := newHighlighter(t, "바람에\n아비리아\n말리기", nil)

	row := submit(t, h, "Word", 5, 7)

	require.Equal(t, "아"+SpanStyle.Render("비리")+"아", row.Text)
	require.Equal(t, 2, row.FirstLine)
}

func TestSubmit_CharSpanStartingInsideSeparator(t *testing.T) {
	// Separator "==" occupies chars 1..3; start 2 is inside it.
	h := newHighlighter(t, "é==ü", func(o *Options) { o.Separator = "==" })

	row := submit(t, h, "Sep", 2, 4)

	require.Equal(t, "é="+SpanStyle.Render("=ü"), row.Text)
}

func TestSubmit_ByteOffsets(t *testing.T) {
	h := newHighlighter(t, "바람\n말", func(o *Options) { o.Unit = span.UnitBytes })

	row := submit(t, h, "Syllable", 3, 6)

	require.Equal(t, "바"+SpanStyle.Render("람"), row.Text)
}

func TestSubmit_ByteOffsetSplittingCharacterIsMalformed(t *testing.T) {
	h := newHighlighter(t, "바람", func(o *Options) { o.Unit = span.UnitBytes })

	err := h.Submit(Label("Bad"), span.Range{Lo: 1, Hi: 3})

	require.True(t, errors.Is(err, span.ErrMalformedSpan))
	require.Contains(t, err.Error(), "splits a UTF-8 character")
	require.Equal(t, 0, h.Len())
}

func TestSubmit_ErrorsAppendNothing(t *testing.T) {
	h := newHighlighter(t, "abc", nil)

	err := h.Submit(Label("Inverted"), span.Range{Lo: 2, Hi: 1})
	require.ErrorIs(t, err, span.ErrMalformedSpan)

	err = h.Submit(Label("Past end"), span.Range{Lo: 0, Hi: 4})
	require.ErrorIs(t, err, lineindex.ErrOutOfRange)

	require.Equal(t, 0, h.Len())
	require.Empty(t, h.Rows())
}

func TestSubmit_CRLF(t *testing.T) {
	h := NewCRLF("ab\r\ncd")

	row := submit(t, h, "Ident", 4, 5)

	require.Equal(t, SpanStyle.Render("c")+"d", row.Text)
	require.Equal(t, lineindex.CRLF, h.Index().Separator())
}

func TestSubmit_CRLFMultiLineSpan(t *testing.T) {
	h := NewCRLF("ab\r\ncd")

	row := submit(t, h, "Block", 1, 5)

	want := "a" + SpanStyle.Render("b"+NewlineMarker) + "\n" + SpanStyle.Render("c") + "d"
	require.Equal(t, want, row.Text)
	require.Equal(t, "ab⏎\ncd", ansi.Strip(row.Text))
	require.NotContains(t, h.Render(), "\r")
}

func TestSubmit_LFIndexOverCRLFText(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		want       string
	}{
		{name: "single line keeps CR visible", start: 0, end: 1, want: "ab␍"},
		{name: "span across CRLF", start: 1, end: 5, want: "ab⏎\ncd␍"},
		{name: "span ending on CR", start: 1, end: 3, want: "ab␍"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLF("ab\r\ncd\r\n")

			row := submit(t, h, "Ident", tt.start, tt.end)

			require.Equal(t, tt.want, ansi.Strip(row.Text))
			require.NotContains(t, row.Text, "\r")
			require.NotContains(t, h.Render(), "\r")
		})
	}
}

func TestSubmit_ControlCharactersAreVisible(t *testing.T) {
	h := NewLF("a\x1bb\x00c\x7f")

	row := submit(t, h, "Ctl", 1, 2)

	require.Equal(t, SpanStyle.Render("\u241b")+"b\u2400c"+string(DeletePicture), row.Text[1:])
	require.Equal(t, "a␛b␀c␡", ansi.Strip(row.Text))
}

func TestSubmit_MaxWidthTruncates(t *testing.T) {
	h := newHighlighter(t, "abcdefghij", func(o *Options) { o.MaxWidth = 5 })

	row := submit(t, h, "Ident", 0, 2)

	require.Equal(t, "abcd"+TruncateTail, ansi.Strip(row.Text))
}

type kind int

func (k kind) String() string { return [...]string{"Zero", "One"}[k] }

func TestStringerLabel(t *testing.T) {
	h := NewLF("x")

	require.NoError(t, h.Submit(StringerLabel(kind(1)), span.Pair{0, 1}))

	require.Equal(t, "One", h.Rows()[0].Label)
}

func TestNew_Errors(t *testing.T) {
	_, err := New("abc", Options{Separator: "\n", TabWidth: -1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "tab width")

	_, err = New("abc", Options{Separator: "\n", MaxWidth: -2})
	require.Error(t, err)
	require.Contains(t, err.Error(), "max width")

	_, err = New("abc", Options{Separator: ""})
	require.ErrorIs(t, err, lineindex.ErrEmptySeparator)
}

func TestRender_PreservesSubmissionOrder(t *testing.T) {
	h := newHighlighter(t, "if x { y }", nil)
	submit(t, h, "If", 0, 2)
	submit(t, h, "Ident", 3, 4)
	submit(t, h, "LBrace", 5, 6)

	out := ansi.Strip(h.Render())

	require.Contains(t, out, "token")
	require.Contains(t, out, "source")
	require.NotContains(t, out, "span")
	ifAt := strings.Index(out, "If")
	identAt := strings.Index(out, "Ident")
	braceAt := strings.Index(out, "LBrace")
	require.Less(t, ifAt, identAt)
	require.Less(t, identAt, braceAt)
	require.Contains(t, out, "┌")
}

func TestRender_IsIdempotent(t *testing.T) {
	h := newHighlighter(t, "abc\ndef", nil)
	submit(t, h, "A", 0, 1)
	submit(t, h, "Multi", 2, 5)

	first := h.Render()
	second := h.Render()

	require.Equal(t, first, second)
	require.Equal(t, 2, h.Len())
}

func TestRender_OptionalColumns(t *testing.T) {
	h := newHighlighter(t, "abc\ndef", func(o *Options) {
		o.ShowSpan = true
		o.ShowLine = true
		o.Border = lipgloss.RoundedBorder()
	})
	submit(t, h, "Ident", 4, 7)

	out := ansi.Strip(h.Render())

	require.Contains(t, out, "line")
	require.Contains(t, out, "span")
	require.Contains(t, out, "4..7")
	require.Contains(t, out, "╭")
}

func TestRender_EmptyHighlighter(t *testing.T) {
	out := ansi.Strip(NewLF("").Render())

	require.Contains(t, out, "token")
	require.Contains(t, out, "source")
}

func TestPrint(t *testing.T) {
	h := NewLF("abc")
	submit(t, h, "Ident", 0, 3)

	var buf bytes.Buffer
	require.NoError(t, h.Print(&buf))

	require.Equal(t, h.Render()+"\n", buf.String())
}

func TestBorderByName(t *testing.T) {
	b, err := BorderByName("sharp")
	require.NoError(t, err)
	require.Equal(t, lipgloss.NormalBorder(), b)

	_, err = BorderByName("wavy")
	require.Error(t, err)
}

func TestProperty_CharAndByteModesAgreeOnASCII(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		src := rapid.StringMatching(`[a-c \t\n]{0,40}`).Draw(rt, "src")
		lo := rapid.IntRange(0, len(src)).Draw(rt, "lo")
		hi := rapid.IntRange(lo, len(src)).Draw(rt, "hi")

		chars := NewLF(src)
		opts := DefaultOptions()
		opts.Unit = span.UnitBytes
		bytesMode, err := New(src, opts)
		require.NoError(rt, err)

		require.NoError(rt, chars.Submit(Label("t"), span.Range{Lo: lo, Hi: hi}))
		require.NoError(rt, bytesMode.Submit(Label("t"), span.Range{Lo: lo, Hi: hi}))
		require.Equal(rt, bytesMode.Rows()[0].Text, chars.Rows()[0].Text)
	})
}

func TestProperty_StrippedTextIsResolvedLines(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		src := rapid.StringMatching(`[a바 \n]{0,30}`).Draw(rt, "src")
		h := NewLF(src)
		extent := h.Index().Extent()
		lo := rapid.IntRange(0, extent).Draw(rt, "lo")
		hi := rapid.IntRange(lo, extent).Draw(rt, "hi")

		s := span.Range{Lo: lo, Hi: hi}
		require.NoError(rt, h.Submit(Label("t"), s))

		lines, err := h.Index().Resolve(s)
		require.NoError(rt, err)
		want := strings.ReplaceAll(lines.Slice(src), "\n", NewlineMarker+"\n")
		require.Equal(rt, want, ansi.Strip(h.Rows()[0].Text))
	})
}
