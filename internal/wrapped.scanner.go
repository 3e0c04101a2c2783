package internal

import (
	"strings"

	"go.uber.org/zap"
)

// Scanner splits source into literal and wrapped segments in one
// left-to-right pass. Candidates are tried in slice order, so the
// caller decides priority.
type Scanner struct {
	source     string
	candidates []Delimiter
	pos        int // Current byte position
	line       int // Current line (1-indexed)
	column     int // Current column (1-indexed)
	state      ScanState
	open       int      // Candidate index while inside a wrapper
	openPos    Position // Position of the open wrapper's prefix
	innerStart int      // Interior start of the open wrapper
	textStart  Position // Start of pending literal text
	nextSuffix []int    // Per candidate: next known suffix offset, or suffixUnknown/suffixMissing
	segments   []Segment
	logger     *zap.Logger
}

// NewScanner creates a scanner over source with the given ordered candidates
func NewScanner(source string, candidates []Delimiter, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgScannerCreated,
		zap.Int(LogFieldSource, len(source)),
		zap.Int(LogFieldCandidates, len(candidates)),
	)
	start := Position{Offset: 0, Line: 1, Column: 1}
	nextSuffix := make([]int, len(candidates))
	for i := range nextSuffix {
		nextSuffix[i] = suffixUnknown
	}
	return &Scanner{
		source:     source,
		candidates: candidates,
		line:       1,
		column:     1,
		state:      ScanStateOutside,
		open:       SegmentText,
		textStart:  start,
		nextSuffix: nextSuffix,
		logger:     logger,
	}
}

// Run scans the whole source and returns the segments
func (s *Scanner) Run() Result {
	s.logger.Debug(LogMsgScanStart)

	for !s.isAtEnd() {
		switch s.state {
		case ScanStateInside:
			s.stepInside()
		default:
			s.stepOutside()
		}
	}

	result := s.finish()
	s.logger.Debug(LogMsgScanEnd, zap.Int(LogFieldSegments, len(result.Segments)))
	return result
}

// stepOutside looks for a prefix at the current position
func (s *Scanner) stepOutside() {
	idx, ok := s.matchPrefix()
	if !ok {
		s.advance()
		return
	}

	s.flushText()
	s.openPos = s.currentPosition()
	s.open = idx
	s.advanceN(len(s.candidates[idx].Prefix))
	s.innerStart = s.pos
	s.state = ScanStateInside

	s.logger.Debug(LogMsgWrapperOpened,
		zap.Int(LogFieldCandidate, idx),
		zap.String(LogFieldPrefix, s.candidates[idx].Prefix),
		zap.Int(LogFieldOffset, s.openPos.Offset),
	)
}

// stepInside looks for the open wrapper's suffix at the current position.
// Other prefixes have no meaning here.
func (s *Scanner) stepInside() {
	suffix := s.candidates[s.open].Suffix
	if !s.matchStr(suffix) {
		s.advance()
		return
	}

	innerEnd := s.pos
	s.advanceN(len(suffix))
	s.segments = append(s.segments, Segment{
		Candidate:  s.open,
		Start:      s.openPos.Offset,
		End:        s.pos,
		InnerStart: s.innerStart,
		InnerEnd:   innerEnd,
		Position:   s.openPos,
	})

	s.state = ScanStateOutside
	s.open = SegmentText
	s.textStart = s.currentPosition()
}

// matchPrefix returns the candidate to open at the current position.
// The first candidate whose prefix matches and whose suffix occurs later
// in the input wins, so `{%}` opens as curly and `{{x}` as curly with
// interior "{x". If prefixes matched but no suffix follows any of them,
// the first opens anyway; it cannot close and ends unterminated.
func (s *Scanner) matchPrefix() (int, bool) {
	fallback := SegmentText

	for i, c := range s.candidates {
		if c.Prefix == "" || !s.matchStr(c.Prefix) {
			continue
		}
		if s.suffixAhead(i, s.pos+len(c.Prefix)) {
			return i, true
		}
		if fallback == SegmentText {
			fallback = i
		}
	}

	if fallback != SegmentText {
		return fallback, true
	}
	return SegmentText, false
}

// suffixAhead reports whether candidate i's suffix occurs at or after from.
// from never decreases for a given candidate, so a found offset stays valid
// until passed and a miss stays a miss for the rest of the scan.
func (s *Scanner) suffixAhead(i, from int) bool {
	switch next := s.nextSuffix[i]; {
	case next == suffixMissing:
		return false
	case next >= from:
		return true
	}

	idx := strings.Index(s.source[from:], s.candidates[i].Suffix)
	if idx < 0 {
		s.nextSuffix[i] = suffixMissing
		return false
	}
	s.nextSuffix[i] = from + idx
	return true
}

// finish flushes pending text and handles an unterminated wrapper. The
// unterminated region is its own literal segment, after any text that
// preceded its prefix.
func (s *Scanner) finish() Result {
	if s.state != ScanStateInside {
		s.flushText()
		return Result{Segments: s.segments}
	}

	unterminated := &Unterminated{
		Candidate: s.open,
		Position:  s.openPos,
	}
	s.logger.Debug(LogMsgUnterminated,
		zap.Int(LogFieldCandidate, s.open),
		zap.Int(LogFieldOffset, s.openPos.Offset),
		zap.Int(LogFieldLine, s.openPos.Line),
		zap.Int(LogFieldColumn, s.openPos.Column),
	)

	s.appendText(s.openPos, s.pos)
	s.state = ScanStateOutside
	s.open = SegmentText
	return Result{Segments: s.segments, Unterminated: unterminated}
}

// flushText emits literal text accumulated since textStart, if any
func (s *Scanner) flushText() {
	if s.pos > s.textStart.Offset {
		s.appendText(s.textStart, s.pos)
	}
	s.textStart = s.currentPosition()
}

// appendText adds a literal segment covering start up to end
func (s *Scanner) appendText(start Position, end int) {
	s.segments = append(s.segments, Segment{
		Candidate:  SegmentText,
		Start:      start.Offset,
		End:        end,
		InnerStart: start.Offset,
		InnerEnd:   end,
		Position:   start,
	})
}

// Helper methods

// currentPosition returns the current position
func (s *Scanner) currentPosition() Position {
	return Position{
		Offset: s.pos,
		Line:   s.line,
		Column: s.column,
	}
}

// isAtEnd returns true if we've reached the end of source
func (s *Scanner) isAtEnd() bool {
	return s.pos >= len(s.source)
}

// advance consumes one byte
func (s *Scanner) advance() {
	if s.isAtEnd() {
		return
	}
	if s.source[s.pos] == CharNewline {
		s.line++
		s.column = 1
	} else {
		s.column++
	}
	s.pos++
}

// advanceN advances by n bytes
func (s *Scanner) advanceN(n int) {
	for i := 0; i < n && !s.isAtEnd(); i++ {
		s.advance()
	}
}

// matchStr returns true if the remaining source starts with str
func (s *Scanner) matchStr(str string) bool {
	return strings.HasPrefix(s.source[s.pos:], str)
}
