package wrapped

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Result is the outcome of formatting an element sequence.
type Result struct {
	Output     string // Substituted text
	Resolved   int    // Placeholders replaced by a resolver
	Unresolved []Item // Placeholders written back in their original form
}

// Formatter substitutes placeholders through an ordered resolver chain.
// Placeholders that no resolver handles are written back as
// prefix + text + suffix. A Formatter is safe for concurrent use as
// long as its resolvers are.
type Formatter struct {
	scanner   *Scanner
	resolvers []Resolver
	logger    *zap.Logger
	metrics   MetricsRecorder
}

// NewFormatter creates a formatter with resolvers tried in the given order.
// Options configure the scanner used by Substitute.
func NewFormatter(resolvers []Resolver, opts ...Option) (*Formatter, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return newFormatter(newScanner(cfg), resolvers, cfg), nil
}

// MustNewFormatter creates a formatter and panics if the options are invalid.
func MustNewFormatter(resolvers []Resolver, opts ...Option) *Formatter {
	f, err := NewFormatter(resolvers, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

func newFormatter(scanner *Scanner, resolvers []Resolver, cfg *config) *Formatter {
	chain := make([]Resolver, 0, len(resolvers))
	for _, r := range resolvers {
		if r != nil {
			chain = append(chain, r)
		}
	}
	cfg.logger.Debug(LogMsgFormatterCreated, zap.Int(LogFieldResolvers, len(chain)))
	return &Formatter{
		scanner:   scanner,
		resolvers: chain,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
	}
}

// Render maps every element: text verbatim, placeholders through the
// resolver chain in scan order, each resolver at most once per placeholder.
func (f *Formatter) Render(elements []Element) *Result {
	start := time.Now()
	result := &Result{}

	var sb strings.Builder
	for _, el := range elements {
		if !el.IsWrapped() {
			sb.WriteString(el.Text)
			continue
		}
		if v, ok := f.resolve(el.Item); ok {
			sb.WriteString(v)
			result.Resolved++
			continue
		}
		sb.WriteString(f.scanner.catalog.Wrap(el.Item))
		result.Unresolved = append(result.Unresolved, el.Item)
	}
	result.Output = sb.String()

	f.metrics.RecordSubstitution(context.Background(), time.Since(start), result.Resolved, len(result.Unresolved))
	f.logger.Debug(LogMsgFormatComplete,
		zap.Int(LogFieldResolved, result.Resolved),
		zap.Int(LogFieldUnresolved, len(result.Unresolved)),
	)
	return result
}

// Format returns the substituted text for elements.
func (f *Formatter) Format(elements []Element) string {
	return f.Render(elements).Output
}

// Substitute scans text and formats it. Resolution starts only after the
// whole text is scanned. Under a strict scanner the unterminated wrapper
// error is returned unchanged.
func (f *Formatter) Substitute(text string) (string, error) {
	elements, err := f.scanner.Scan(text)
	if err != nil {
		return "", err
	}
	return f.Format(elements), nil
}

// resolve tries the chain in registration order
func (f *Formatter) resolve(item Item) (string, bool) {
	for _, r := range f.resolvers {
		if v, ok := r.Resolve(item); ok {
			return v, true
		}
	}
	return "", false
}

// Substitute replaces placeholders in text using resolvers in order, with
// the default catalog and lenient policy. It never fails.
func Substitute(text string, resolvers ...Resolver) string {
	cfg := &config{logger: zap.NewNop(), metrics: NoopMetrics{}}
	return newFormatter(defaultScanner, resolvers, cfg).Format(Scan(text))
}

// SubstituteFunc is Substitute with a single resolver function.
func SubstituteFunc(text string, fn func(Item) (string, bool)) string {
	if fn == nil {
		return Substitute(text)
	}
	return Substitute(text, ResolverFunc(fn))
}
