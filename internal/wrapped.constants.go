package internal

// ScanState is the state of the scanner state machine
type ScanState int

// Scan state constants
const (
	ScanStateOutside ScanState = iota // not inside a matched wrapper
	ScanStateInside                   // accumulating interior text of an open wrapper
)

// Scan state names for debugging
const (
	ScanStateNameOutside = "OUTSIDE"
	ScanStateNameInside  = "INSIDE"
)

// String returns the string representation of the scan state
func (s ScanState) String() string {
	switch s {
	case ScanStateInside:
		return ScanStateNameInside
	default:
		return ScanStateNameOutside
	}
}

// SegmentText marks a literal text segment (no candidate)
const SegmentText = -1

// Suffix look-ahead cache markers
const (
	suffixUnknown = -2 // not searched yet
	suffixMissing = -1 // no occurrence in the rest of the source
)

// Character constants
const (
	CharNewline = '\n'
)

// Log message constants
const (
	LogMsgScannerCreated = "scanner created"
	LogMsgScanStart      = "starting scan"
	LogMsgScanEnd        = "scan complete"
	LogMsgWrapperOpened  = "wrapper opened"
	LogMsgUnterminated   = "unterminated wrapper reclassified as text"
)

// Log field names
const (
	LogFieldSource     = "source_length"
	LogFieldCandidates = "candidate_count"
	LogFieldSegments   = "segment_count"
	LogFieldCandidate  = "candidate"
	LogFieldPrefix     = "prefix"
	LogFieldOffset     = "offset"
	LogFieldLine       = "line"
	LogFieldColumn     = "column"
)
