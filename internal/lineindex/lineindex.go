// Package lineindex maps spans over a text buffer to the physical lines that
// contain them.
//
// An Index is built once from an immutable source and a fixed line separator.
// Each line is recorded twice: as a byte range (for slicing) and as a range in
// the index's addressing unit (for lookups). The index holds only offsets, so
// callers must keep the source alive and unchanged while the index is in use.
// After Build returns, an Index is read-only and safe for concurrent use.
package lineindex

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zjrosen/hlspan/internal/log"
	"github.com/zjrosen/hlspan/internal/span"
)

// Common line separators.
const (
	LF   = "\n"
	CRLF = "\r\n"
)

// ErrEmptySeparator is returned by Build when the separator is "".
var ErrEmptySeparator = errors.New("line separator must not be empty")

// ErrOutOfRange is returned when a span ends past the end of the indexed source.
var ErrOutOfRange = errors.New("span out of range")

// LineBoundary is the extent of one physical line, excluding its separator.
type LineBoundary struct {
	Bytes span.ByteRange
	Index span.IndexRange
}

// Index is an ordered, immutable table of line boundaries.
type Index struct {
	lines     []LineBoundary
	separator string
	unit      span.Unit
}

// Build scans source for every non-overlapping occurrence of separator and
// records one boundary per line. The result always has
// count(separator)+1 boundaries; a source ending in a separator gets a
// trailing empty line.
func Build(source, separator string, unit span.Unit) (*Index, error) {
	if separator == "" {
		return nil, ErrEmptySeparator
	}

	sepBytes := len(separator)
	sepUnits := sepBytes
	if unit == span.UnitChars {
		sepUnits = utf8.RuneCountInString(separator)
	}

	lines := make([]LineBoundary, 0, strings.Count(source, separator)+1)
	startByte, startIndex := 0, 0

	for {
		rel := strings.Index(source[startByte:], separator)
		if rel < 0 {
			break
		}
		endByte := startByte + rel
		endIndex := startIndex + unitLen(source[startByte:endByte], unit)

		lines = append(lines, newBoundary(startByte, endByte, startIndex, endIndex))

		startByte = endByte + sepBytes
		startIndex = endIndex + sepUnits
	}

	// Tail after the last separator (the whole source when there was none).
	tail := source[startByte:]
	lines = append(lines, newBoundary(startByte, len(source), startIndex, startIndex+unitLen(tail, unit)))

	log.Debug(log.CatIndex, "Built line index",
		"lines", len(lines), "unit", unit, "separator", strconv.Quote(separator), "bytes", len(source))

	return &Index{lines: lines, separator: separator, unit: unit}, nil
}

// BuildLF builds an index over "\n"-separated lines.
func BuildLF(source string, unit span.Unit) *Index {
	idx, _ := Build(source, LF, unit)
	return idx
}

// BuildCRLF builds an index over "\r\n"-separated lines.
func BuildCRLF(source string, unit span.Unit) *Index {
	idx, _ := Build(source, CRLF, unit)
	return idx
}

func newBoundary(startByte, endByte, startIndex, endIndex int) LineBoundary {
	return LineBoundary{
		Bytes: span.ByteRange{Start: span.ByteOffset(startByte), End: span.ByteOffset(endByte)},
		Index: span.IndexRange{Start: startIndex, End: endIndex},
	}
}

func unitLen(s string, unit span.Unit) int {
	if unit == span.UnitBytes {
		return len(s)
	}
	return utf8.RuneCountInString(s)
}

// Len returns the number of lines.
func (x *Index) Len() int { return len(x.lines) }

// Boundary returns the i-th line boundary. It panics if i is out of range.
func (x *Index) Boundary(i int) LineBoundary { return x.lines[i] }

// Boundaries returns a copy of all line boundaries in order.
func (x *Index) Boundaries() []LineBoundary {
	out := make([]LineBoundary, len(x.lines))
	copy(out, x.lines)
	return out
}

// Unit returns the addressing unit the index was built with.
func (x *Index) Unit() span.Unit { return x.unit }

// Separator returns the line separator the index was built with.
func (x *Index) Separator() string { return x.separator }

// Extent returns the length of the indexed source in the index's unit.
func (x *Index) Extent() int { return x.lines[len(x.lines)-1].Index.End }

// startLine returns the last line whose start is <= offset.
// An offset inside a separator rounds down to the line before it.
func (x *Index) startLine(offset int) int {
	i := sort.Search(len(x.lines), func(i int) bool {
		return x.lines[i].Index.Start > offset
	})
	return i - 1
}

// endLine returns the first line whose end is >= offset.
// An offset inside a separator rounds up to the line after it.
func (x *Index) endLine(offset int) int {
	return sort.Search(len(x.lines), func(i int) bool {
		return x.lines[i].Index.End >= offset
	})
}

// LineOf returns the 0-based line containing offset, rounding offsets that
// fall inside a separator down to the preceding line.
func (x *Index) LineOf(offset int) (int, error) {
	if offset < 0 || offset > x.Extent() {
		return 0, fmt.Errorf("%w: offset %d, extent %d", ErrOutOfRange, offset, x.Extent())
	}
	return x.startLine(offset), nil
}

// ResolveLines returns the 0-based numbers of the first and last lines the
// span touches or abuts.
func (x *Index) ResolveLines(s span.Span) (first, last int, err error) {
	if err := span.Validate(s); err != nil {
		return 0, 0, err
	}
	if s.End() > x.Extent() {
		return 0, 0, fmt.Errorf("%w: span %d..%d, extent %d %s",
			ErrOutOfRange, s.Start(), s.End(), x.Extent(), x.unit)
	}

	first = x.startLine(s.Start())
	last = x.endLine(s.End())
	return first, last, nil
}

// ResolveBoundaries returns the boundaries of the lines containing the
// span's start and end.
func (x *Index) ResolveBoundaries(s span.Span) (LineBoundary, LineBoundary, error) {
	first, last, err := x.ResolveLines(s)
	if err != nil {
		return LineBoundary{}, LineBoundary{}, err
	}
	return x.lines[first], x.lines[last], nil
}

// Resolve returns the byte range covering every line the span touches,
// regardless of the index's addressing unit. A span lying entirely inside a
// separator resolves to the lines on both sides of it.
func (x *Index) Resolve(s span.Span) (span.ByteRange, error) {
	a, b, err := x.ResolveBoundaries(s)
	if err != nil {
		return span.ByteRange{}, err
	}
	return span.ByteRange{Start: a.Bytes.Start, End: b.Bytes.End}, nil
}
