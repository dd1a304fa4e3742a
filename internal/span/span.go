// Package span defines the span capability shared by the line index and the
// highlighter, along with the two coordinate systems spans can be expressed in.
package span

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedSpan is returned for spans with a negative start, an inverted
// range, or offsets that do not land on a valid position in the source.
var ErrMalformedSpan = errors.New("malformed span")

// Span is anything that exposes a half-open [Start, End) interval.
// Callers guarantee Start() <= End(); Validate checks it.
type Span interface {
	Start() int
	End() int
}

// Range is a half-open interval [Lo, Hi).
type Range struct {
	Lo int
	Hi int
}

// Start returns the inclusive start of the range.
func (r Range) Start() int { return r.Lo }

// End returns the exclusive end of the range.
func (r Range) End() int { return r.Hi }

// String renders the range as "lo..hi".
func (r Range) String() string { return fmt.Sprintf("%d..%d", r.Lo, r.Hi) }

// Pair is a (start, end) tuple.
type Pair [2]int

// Start returns the first element.
func (p Pair) Start() int { return p[0] }

// End returns the second element.
func (p Pair) End() int { return p[1] }

// Of copies any Span into a Range.
func Of(s Span) Range {
	return Range{Lo: s.Start(), Hi: s.End()}
}

// Validate reports ErrMalformedSpan when s starts before zero or ends before it starts.
func Validate(s Span) error {
	start, end := s.Start(), s.End()
	if start < 0 {
		return fmt.Errorf("%w: negative start %d", ErrMalformedSpan, start)
	}
	if start > end {
		return fmt.Errorf("%w: start %d is after end %d", ErrMalformedSpan, start, end)
	}
	return nil
}

// Unit is the addressing unit a stream of spans is expressed in.
type Unit int

const (
	// UnitChars counts Unicode scalar values.
	UnitChars Unit = iota
	// UnitBytes counts raw bytes of the UTF-8 encoding.
	UnitBytes
)

// String returns the unit name.
func (u Unit) String() string {
	switch u {
	case UnitChars:
		return "chars"
	case UnitBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// ParseUnit parses "chars" or "bytes" (case-insensitive).
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chars", "char", "characters", "":
		return UnitChars, nil
	case "bytes", "byte":
		return UnitBytes, nil
	}
	return UnitChars, fmt.Errorf("unknown addressing unit %q (must be \"chars\" or \"bytes\")", s)
}

// ByteOffset is an offset into the raw UTF-8 bytes of a source.
type ByteOffset int

// CharIndex is a count of Unicode scalar values from the start of a source.
type CharIndex int

// ByteRange is a half-open interval of byte offsets.
type ByteRange struct {
	Start ByteOffset
	End   ByteOffset
}

// Len returns the number of bytes covered.
func (r ByteRange) Len() int { return int(r.End - r.Start) }

// Slice returns the part of src covered by the range.
func (r ByteRange) Slice(src string) string { return src[r.Start:r.End] }

// String renders the range as "start..end".
func (r ByteRange) String() string { return fmt.Sprintf("%d..%d", r.Start, r.End) }

// IndexRange is a half-open interval in whichever unit an index was built with.
// In byte mode it is numerically identical to the matching ByteRange.
type IndexRange struct {
	Start int
	End   int
}

// Len returns the number of units covered.
func (r IndexRange) Len() int { return r.End - r.Start }

// Contains reports whether offset lies in [Start, End].
// The end is inclusive so that an empty line still contains its own start.
func (r IndexRange) Contains(offset int) bool {
	return offset >= r.Start && offset <= r.End
}
