package internal

import "fmt"

// Position represents a location in the scanned source
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Delimiter is one scan candidate: a prefix and the suffix that closes it
type Delimiter struct {
	Prefix string
	Suffix string
}

// MinLen returns the shortest input a complete match can occupy
func (d Delimiter) MinLen() int {
	return len(d.Prefix) + len(d.Suffix)
}

// Segment is one piece of the scanned source. Literal segments carry
// Candidate == SegmentText; wrapped segments carry the index of the
// matched delimiter in the candidate list.
type Segment struct {
	Candidate  int      // Index into the candidate list, or SegmentText
	Start      int      // Byte offset of the first byte (prefix start for wrapped)
	End        int      // Byte offset one past the last byte (suffix end for wrapped)
	InnerStart int      // Interior start; equals Start for literal segments
	InnerEnd   int      // Interior end; equals End for literal segments
	Position   Position // Position of the first byte
}

// IsText returns true if this is a literal text segment
func (s Segment) IsText() bool {
	return s.Candidate == SegmentText
}

// Unterminated describes a wrapper that was still open at end of input
type Unterminated struct {
	Candidate int      // Index of the open delimiter
	Position  Position // Position of its prefix
}

// Result is the outcome of a scan. When Unterminated is non-nil the open
// region has already been reclassified as literal text in Segments.
type Result struct {
	Segments     []Segment
	Unterminated *Unterminated
}
