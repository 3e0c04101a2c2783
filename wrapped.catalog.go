package wrapped

import (
	"strings"

	"github.com/itsatony/go-wrapped/internal"
)

// WrapperKind names a delimiter style. The built-in kinds are listed
// below; callers may define their own and place them in a Catalog.
type WrapperKind string

// Built-in wrapper kinds
const (
	WrapperTripleCurly  WrapperKind = WrapperNameTripleCurly
	WrapperDoubleCurly  WrapperKind = WrapperNameDoubleCurly
	WrapperCurlyPercent WrapperKind = WrapperNameCurlyPercent
	WrapperCurlyHash    WrapperKind = WrapperNameCurlyHash
	WrapperDollarCurly  WrapperKind = WrapperNameDollarCurly
	WrapperCurly        WrapperKind = WrapperNameCurly
)

// builtinDelimiters holds prefix and suffix for every built-in kind
var builtinDelimiters = map[WrapperKind]Delimiter{
	WrapperTripleCurly:  {Kind: WrapperTripleCurly, Prefix: StrTripleCurlyOpen, Suffix: StrTripleCurlyClose},
	WrapperDoubleCurly:  {Kind: WrapperDoubleCurly, Prefix: StrDoubleCurlyOpen, Suffix: StrDoubleCurlyClose},
	WrapperCurlyPercent: {Kind: WrapperCurlyPercent, Prefix: StrCurlyPercentOpen, Suffix: StrCurlyPercentClose},
	WrapperCurlyHash:    {Kind: WrapperCurlyHash, Prefix: StrCurlyHashOpen, Suffix: StrCurlyHashClose},
	WrapperDollarCurly:  {Kind: WrapperDollarCurly, Prefix: StrDollarCurlyOpen, Suffix: StrCurlyClose},
	WrapperCurly:        {Kind: WrapperCurly, Prefix: StrCurlyOpen, Suffix: StrCurlyClose},
}

// String returns the kind name
func (k WrapperKind) String() string {
	return string(k)
}

// Prefix returns the opening delimiter of a built-in kind, or "" for
// kinds that only exist in a custom Catalog
func (k WrapperKind) Prefix() string {
	return builtinDelimiters[k].Prefix
}

// Suffix returns the closing delimiter of a built-in kind, or "" for
// kinds that only exist in a custom Catalog
func (k WrapperKind) Suffix() string {
	return builtinDelimiters[k].Suffix
}

// IsBuiltin reports whether the kind is one of the built-in kinds
func (k WrapperKind) IsBuiltin() bool {
	_, ok := builtinDelimiters[k]
	return ok
}

// Delimiter pairs a wrapper kind with its prefix and suffix
type Delimiter struct {
	Kind   WrapperKind
	Prefix string
	Suffix string
}

// MinLen returns the length of the shortest complete match (empty interior)
func (d Delimiter) MinLen() int {
	return len(d.Prefix) + len(d.Suffix)
}

// Catalog is an ordered list of delimiters. Order is match priority:
// when several prefixes start at the same position, the first entry
// whose suffix also occurs later in the input wins.
type Catalog []Delimiter

// DefaultCatalog returns the five standard wrappers in priority order.
// The {-family multi-byte prefixes come before the plain { prefix.
func DefaultCatalog() Catalog {
	return Catalog{
		builtinDelimiters[WrapperDoubleCurly],
		builtinDelimiters[WrapperCurlyPercent],
		builtinDelimiters[WrapperCurlyHash],
		builtinDelimiters[WrapperDollarCurly],
		builtinDelimiters[WrapperCurly],
	}
}

// LegacyCatalog returns the default catalog with the triple-curly
// wrapper in front, so {{{x}}} is matched as one placeholder.
func LegacyCatalog() Catalog {
	return append(Catalog{builtinDelimiters[WrapperTripleCurly]}, DefaultCatalog()...)
}

// Validate checks that the catalog can drive a scan
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return NewCatalogError(ErrMsgEmptyCatalog, "")
	}

	seen := make(map[WrapperKind]struct{}, len(c))
	for _, d := range c {
		switch {
		case d.Kind == "":
			return NewCatalogError(ErrMsgEmptyWrapperKind, "")
		case d.Prefix == "":
			return NewCatalogError(ErrMsgEmptyPrefix, d.Kind)
		case d.Suffix == "":
			return NewCatalogError(ErrMsgEmptySuffix, d.Kind)
		}
		if _, dup := seen[d.Kind]; dup {
			return NewCatalogError(ErrMsgDuplicateKind, d.Kind)
		}
		seen[d.Kind] = struct{}{}
	}
	return nil
}

// Lookup returns the delimiter registered for kind
func (c Catalog) Lookup(kind WrapperKind) (Delimiter, bool) {
	for _, d := range c {
		if d.Kind == kind {
			return d, true
		}
	}
	return Delimiter{}, false
}

// Kinds returns the kinds in priority order
func (c Catalog) Kinds() []WrapperKind {
	kinds := make([]WrapperKind, len(c))
	for i, d := range c {
		kinds[i] = d.Kind
	}
	return kinds
}

// Wrap returns the canonical delimited form of item. Kinds missing from
// the catalog fall back to the built-in table, then to the bare text.
func (c Catalog) Wrap(item Item) string {
	d, ok := c.Lookup(item.Wrapper)
	if !ok {
		d, ok = builtinDelimiters[item.Wrapper]
	}
	if !ok {
		return item.Text
	}
	return d.Prefix + item.Text + d.Suffix
}

// Reconstruct concatenates elements back into source form
func (c Catalog) Reconstruct(elements []Element) string {
	var sb strings.Builder
	for _, el := range elements {
		if el.IsWrapped() {
			sb.WriteString(c.Wrap(el.Item))
			continue
		}
		sb.WriteString(el.Text)
	}
	return sb.String()
}

// candidates converts the catalog into the scanner's candidate list
func (c Catalog) candidates() []internal.Delimiter {
	out := make([]internal.Delimiter, len(c))
	for i, d := range c {
		out[i] = internal.Delimiter{Prefix: d.Prefix, Suffix: d.Suffix}
	}
	return out
}

// clone returns a copy so callers cannot mutate a scanner's catalog
func (c Catalog) clone() Catalog {
	out := make(Catalog, len(c))
	copy(out, c)
	return out
}
