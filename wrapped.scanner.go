package wrapped

import (
	"context"
	"time"

	"github.com/itsatony/go-wrapped/internal"
	"go.uber.org/zap"
)

// Scanner splits text into literal and placeholder elements.
// A Scanner is immutable after construction and safe for concurrent use.
type Scanner struct {
	catalog    Catalog
	candidates []internal.Delimiter
	policy     Policy
	logger     *zap.Logger
	metrics    MetricsRecorder
}

// NewScanner creates a scanner. The catalog defaults to DefaultCatalog()
// and the policy to PolicyLenient.
func NewScanner(opts ...Option) (*Scanner, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return newScanner(cfg), nil
}

// MustNewScanner creates a scanner and panics if the options are invalid.
func MustNewScanner(opts ...Option) *Scanner {
	s, err := NewScanner(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func newScanner(cfg *config) *Scanner {
	cfg.logger.Debug(LogMsgScannerCreated,
		zap.String(LogFieldPolicy, cfg.policy.String()),
		zap.Int(LogFieldCatalog, len(cfg.catalog)),
	)
	return &Scanner{
		catalog:    cfg.catalog,
		candidates: cfg.catalog.candidates(),
		policy:     cfg.policy,
		logger:     cfg.logger,
		metrics:    cfg.metrics,
	}
}

// Policy returns the scanner's unterminated-wrapper policy
func (s *Scanner) Policy() Policy {
	return s.policy
}

// Catalog returns a copy of the scanner's catalog
func (s *Scanner) Catalog() Catalog {
	return s.catalog.clone()
}

// Scan splits text into elements. Under PolicyLenient it never fails: an
// unterminated wrapper, from its prefix to the end of text, becomes one Text
// element. It is not merged with the text before it, so "Hello ${" scans to
// Text("Hello "), Text("${"). Under PolicyStrict the same input fails with
// an unterminated wrapper error.
// Element text is sliced from the input without copying.
func (s *Scanner) Scan(text string) ([]Element, error) {
	start := time.Now()
	result := internal.NewScanner(text, s.candidates, s.logger).Run()

	if result.Unterminated != nil && s.policy == PolicyStrict {
		kind := s.catalog[result.Unterminated.Candidate].Kind
		pos := fromInternalPosition(result.Unterminated.Position)
		err := NewUnterminatedWrapperError(kind, pos)
		s.logger.Debug(LogMsgScanFailed,
			zap.String(LogFieldWrapper, kind.String()),
			zap.Int(LogFieldOffset, pos.Offset),
		)
		s.metrics.RecordScan(context.Background(), time.Since(start), 0, 0, err)
		return nil, err
	}

	elements := make([]Element, 0, len(result.Segments))
	placeholders := 0
	for _, seg := range result.Segments {
		pos := fromInternalPosition(seg.Position)
		if seg.IsText() {
			elements = append(elements, NewTextElement(text[seg.Start:seg.End], pos))
			continue
		}
		item := NewItem(s.catalog[seg.Candidate].Kind, text[seg.InnerStart:seg.InnerEnd])
		elements = append(elements, NewWrappedElement(item, pos))
		placeholders++
	}

	s.metrics.RecordScan(context.Background(), time.Since(start), len(elements), placeholders, nil)
	return elements, nil
}

// Reconstruct concatenates elements back into source form using the
// scanner's catalog
func (s *Scanner) Reconstruct(elements []Element) string {
	return s.catalog.Reconstruct(elements)
}

// defaultScanner backs the package-level helpers
var defaultScanner = MustNewScanner()

// Scan splits text into elements with the default catalog and lenient
// policy. It never fails.
func Scan(text string) []Element {
	elements, _ := defaultScanner.Scan(text)
	return elements
}
