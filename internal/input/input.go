// Package input loads the source text and parses span descriptions.
//
// Source comes from a file or from standard input. On standard input the
// source ends at a delimiter line of ten or more '=' characters; every line
// after it describes one span as "<start> <end> [label]".
package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/zjrosen/hlspan/internal/log"
)

// DelimiterMinLen is the minimum number of '=' characters in a delimiter line.
const DelimiterMinLen = 10

// UnnamedLabel is shown for span lines without a label.
const UnnamedLabel = "?"

// ErrMalformedLine is wrapped by every ParseError.
var ErrMalformedLine = errors.New("malformed span line")

// ParseError describes a span line that could not be parsed.
type ParseError struct {
	Line int // 1-based line number within the span section
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("span line %d %q: %v", e.Line, e.Text, e.Err)
}

// Unwrap exposes ErrMalformedLine and the underlying cause.
func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedLine, e.Err}
}

// SpanLine is one parsed span description.
type SpanLine struct {
	Lo    int
	Hi    int
	Label string
}

// Start returns the span start.
func (s SpanLine) Start() int { return s.Lo }

// End returns the span end.
func (s SpanLine) End() int { return s.Hi }

// TokenName returns the label, or UnnamedLabel when it is empty.
func (s SpanLine) TokenName() string {
	if s.Label == "" {
		return UnnamedLabel
	}
	return s.Label
}

// IsDelimiter reports whether line separates the source from the spans.
func IsDelimiter(line string) bool {
	return len(line) >= DelimiterMinLen && strings.Trim(line, "=") == ""
}

// LoadFile reads the whole file at path as source text.
func LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's source file
	if err != nil {
		return "", fmt.Errorf("reading source file: %w", err)
	}
	log.Debug(log.CatInput, "Loaded source file", "path", path, "bytes", len(data))
	return string(data), nil
}

// Reader reads source text and span lines from a single stream.
type Reader struct {
	br   *bufio.Reader
	line int
}

// NewReader wraps r. Lines have no length limit.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// readLine returns the next line without its "\n" or "\r\n" terminator.
// ok is false once the stream is exhausted.
func (r *Reader) readLine() (line string, ok bool, err error) {
	line, err = r.br.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", false, err
		}
		if line == "" {
			return "", false, nil
		}
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, true, nil
}

// ReadSource consumes lines up to and including the delimiter line and
// returns them joined, each followed by "\n". Reaching EOF first ends the
// source without error.
func (r *Reader) ReadSource() (string, error) {
	var b strings.Builder
	lines := 0
	for {
		line, ok, err := r.readLine()
		if err != nil {
			return "", fmt.Errorf("reading source: %w", err)
		}
		if !ok {
			break
		}
		if IsDelimiter(line) {
			log.Debug(log.CatInput, "Found source delimiter", "lines", lines)
			return b.String(), nil
		}
		b.WriteString(line)
		b.WriteByte('\n')
		lines++
	}
	log.Debug(log.CatInput, "Source ended without delimiter", "lines", lines)
	return b.String(), nil
}

// ReadSpans parses each remaining non-blank line and passes it to fn.
// A malformed line is handed to onError as a *ParseError; if onError is nil
// or returns an error, reading stops with that error. An error from fn also
// stops reading.
func (r *Reader) ReadSpans(fn func(SpanLine) error, onError func(*ParseError) error) error {
	for {
		text, ok, err := r.readLine()
		if err != nil {
			return fmt.Errorf("reading spans: %w", err)
		}
		if !ok {
			return nil
		}
		r.line++
		if strings.TrimSpace(text) == "" {
			continue
		}

		sl, err := ParseSpanLine(text)
		if err != nil {
			perr := &ParseError{Line: r.line, Text: text, Err: err}
			if onError == nil {
				return perr
			}
			if err := onError(perr); err != nil {
				return err
			}
			continue
		}

		if err := fn(sl); err != nil {
			return err
		}
	}
}

// SpanLines collects every remaining span line, stopping at the first
// malformed one.
func (r *Reader) SpanLines() ([]SpanLine, error) {
	var out []SpanLine
	err := r.ReadSpans(func(sl SpanLine) error {
		out = append(out, sl)
		return nil
	}, nil)
	return out, err
}

// ParseSpanLine parses "<start> <end> [label]". The label is everything after
// the second field with surrounding whitespace trimmed.
func ParseSpanLine(text string) (SpanLine, error) {
	startField, rest, ok := cutField(text)
	if !ok {
		return SpanLine{}, errors.New("missing start")
	}
	endField, label, ok := cutField(rest)
	if !ok {
		return SpanLine{}, errors.New("missing end")
	}

	start, err := strconv.Atoi(startField)
	if err != nil || start < 0 {
		return SpanLine{}, fmt.Errorf("invalid start %q", startField)
	}
	end, err := strconv.Atoi(endField)
	if err != nil || end < 0 {
		return SpanLine{}, fmt.Errorf("invalid end %q", endField)
	}

	return SpanLine{Lo: start, Hi: end, Label: strings.TrimSpace(label)}, nil
}

// cutField splits off the first whitespace-delimited field.
func cutField(s string) (field, rest string, ok bool) {
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return "", "", false
	}
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", true
}
