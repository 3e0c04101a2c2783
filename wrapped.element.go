package wrapped

import (
	"fmt"

	"github.com/itsatony/go-wrapped/internal"
)

// Position represents a location in the scanned text
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// fromInternalPosition converts a scanner position
func fromInternalPosition(p internal.Position) Position {
	return Position{Offset: p.Offset, Line: p.Line, Column: p.Column}
}

// Item is a recognized placeholder. Text is exactly the interior between
// prefix and suffix, untrimmed.
type Item struct {
	Wrapper WrapperKind
	Text    string
}

// NewItem creates an item
func NewItem(wrapper WrapperKind, text string) Item {
	return Item{Wrapper: wrapper, Text: text}
}

// String returns a human-readable representation of the item
func (i Item) String() string {
	return fmt.Sprintf("%s(%q)", i.Wrapper, i.Text)
}

// ElementType distinguishes literal text from placeholders
type ElementType string

// Element is one piece of a scanned text: a literal run or a placeholder
type Element struct {
	Type     ElementType // ElementTypeText or ElementTypeWrapped
	Text     string      // Literal content; empty for wrapped elements
	Item     Item        // Placeholder; zero for text elements
	Position Position    // Position of the element's first byte
}

// NewTextElement creates a literal text element
func NewTextElement(text string, pos Position) Element {
	return Element{
		Type:     ElementTypeText,
		Text:     text,
		Position: pos,
	}
}

// NewWrappedElement creates a placeholder element
func NewWrappedElement(item Item, pos Position) Element {
	return Element{
		Type:     ElementTypeWrapped,
		Item:     item,
		Position: pos,
	}
}

// IsText returns true if this is a literal text element
func (e Element) IsText() bool {
	return e.Type == ElementTypeText
}

// IsWrapped returns true if this is a placeholder element
func (e Element) IsWrapped() bool {
	return e.Type == ElementTypeWrapped
}

// String returns a human-readable representation of the element
func (e Element) String() string {
	if e.IsWrapped() {
		return fmt.Sprintf("Wrapped{%s @ %s}", e.Item, e.Position)
	}
	return fmt.Sprintf("Text{%q @ %s}", e.Text, e.Position)
}

// Reconstruct concatenates elements back into source form using the
// built-in delimiters
func Reconstruct(elements []Element) string {
	return LegacyCatalog().Reconstruct(elements)
}
