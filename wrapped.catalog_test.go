package wrapped

import (
	"errors"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog_Order(t *testing.T) {
	catalog := DefaultCatalog()

	assert.Equal(t, []WrapperKind{
		WrapperDoubleCurly,
		WrapperCurlyPercent,
		WrapperCurlyHash,
		WrapperDollarCurly,
		WrapperCurly,
	}, catalog.Kinds())
	require.NoError(t, catalog.Validate())
}

func TestDefaultCatalog_MinLen(t *testing.T) {
	tests := []struct {
		kind   WrapperKind
		minLen int
	}{
		{WrapperDoubleCurly, 4},
		{WrapperCurlyPercent, 4},
		{WrapperCurlyHash, 4},
		{WrapperDollarCurly, 3},
		{WrapperCurly, 2},
	}

	catalog := DefaultCatalog()
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			d, ok := catalog.Lookup(tt.kind)
			require.True(t, ok)
			assert.Equal(t, tt.minLen, d.MinLen())
		})
	}
}

func TestLegacyCatalog(t *testing.T) {
	catalog := LegacyCatalog()

	require.Len(t, catalog, 6)
	assert.Equal(t, WrapperTripleCurly, catalog[0].Kind)
	assert.Equal(t, 6, catalog[0].MinLen())
	assert.Equal(t, DefaultCatalog(), catalog[1:])

	_, ok := DefaultCatalog().Lookup(WrapperTripleCurly)
	assert.False(t, ok, "triple curly must not be in the default catalog")
}

func TestDefaultCatalog_ReturnsFreshCopy(t *testing.T) {
	a := DefaultCatalog()
	a[0].Prefix = "<<"

	assert.Equal(t, StrDoubleCurlyOpen, DefaultCatalog()[0].Prefix)
}

func TestWrapperKind_Delimiters(t *testing.T) {
	tests := []struct {
		kind   WrapperKind
		prefix string
		suffix string
	}{
		{WrapperTripleCurly, "{{{", "}}}"},
		{WrapperDoubleCurly, "{{", "}}"},
		{WrapperCurlyPercent, "{%", "%}"},
		{WrapperCurlyHash, "{#", "#}"},
		{WrapperDollarCurly, "${", "}"},
		{WrapperCurly, "{", "}"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.prefix, tt.kind.Prefix())
			assert.Equal(t, tt.suffix, tt.kind.Suffix())
			assert.True(t, tt.kind.IsBuiltin())
		})
	}

	custom := WrapperKind("angle")
	assert.False(t, custom.IsBuiltin())
	assert.Empty(t, custom.Prefix())
	assert.Empty(t, custom.Suffix())
}

func TestCatalog_Validate(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		errMsg  string
	}{
		{
			name:    "empty catalog",
			catalog: Catalog{},
			errMsg:  ErrMsgEmptyCatalog,
		},
		{
			name:    "missing kind",
			catalog: Catalog{{Prefix: "<", Suffix: ">"}},
			errMsg:  ErrMsgEmptyWrapperKind,
		},
		{
			name:    "missing prefix",
			catalog: Catalog{{Kind: "angle", Suffix: ">"}},
			errMsg:  ErrMsgEmptyPrefix,
		},
		{
			name:    "missing suffix",
			catalog: Catalog{{Kind: "angle", Prefix: "<"}},
			errMsg:  ErrMsgEmptySuffix,
		},
		{
			name: "duplicate kind",
			catalog: Catalog{
				{Kind: WrapperCurly, Prefix: "{", Suffix: "}"},
				{Kind: WrapperCurly, Prefix: "<", Suffix: ">"},
			},
			errMsg: ErrMsgDuplicateKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)

			var customErr *cuserr.CustomError
			assert.True(t, errors.As(err, &customErr))
		})
	}
}

func TestCatalog_Wrap(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		name     string
		item     Item
		expected string
	}{
		{"double curly", NewItem(WrapperDoubleCurly, "name"), "{{name}}"},
		{"curly keeps whitespace", NewItem(WrapperCurly, " name "), "{ name }"},
		{"dollar curly", NewItem(WrapperDollarCurly, "HOME"), "${HOME}"},
		{"empty interior", NewItem(WrapperCurlyHash, ""), "{##}"},
		{"builtin outside catalog", NewItem(WrapperTripleCurly, "x"), "{{{x}}}"},
		{"unknown kind", NewItem("angle", "x"), "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, catalog.Wrap(tt.item))
		})
	}
}

func TestCatalog_CustomKind(t *testing.T) {
	catalog := append(Catalog{{Kind: "angle", Prefix: "<<", Suffix: ">>"}}, DefaultCatalog()...)
	require.NoError(t, catalog.Validate())

	d, ok := catalog.Lookup("angle")
	require.True(t, ok)
	assert.Equal(t, 4, d.MinLen())
	assert.Equal(t, "<<x>>", catalog.Wrap(NewItem("angle", "x")))
}
