// Package model defines the editor's native slide and element records.
// These are the JSON structures the frontend slide store consumes; the
// importer and outline packages produce them, the store persists them.
package model

import (
	"crypto/rand"
	"fmt"
)

// Canvas dimensions of the editor's fixed logical coordinate system.
const (
	CanvasWidth  = 960
	CanvasHeight = 540
)

// Slide types. The importer uses a coarse heuristic: the first slide of a
// deck is the cover, everything else is content.
const (
	SlideTypeCover   = "cover"
	SlideTypeContent = "content"
)

// Element types for the SlideElement tagged union.
const (
	ElementTypeText  = "text"
	ElementTypeImage = "image"
)

// Horizontal text alignment values.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// Default slide colors. Imported decks do not consult the source theme.
const (
	DefaultBackgroundColor = "#FFFFFF"
	DefaultTextColor       = "#000000"
)

// SlideElement is a positioned element on a slide. Type selects which of
// the text/image fields are meaningful; the union is flattened into one
// struct so it round-trips through JSON without a custom marshaller.
type SlideElement struct {
	Type   string `json:"type"` // "text" or "image"
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	ZIndex int    `json:"zIndex"`

	// Text fields (Type == "text")
	Content  string `json:"content,omitempty"`
	FontSize int    `json:"fontSize,omitempty"`
	Bold     bool   `json:"bold,omitempty"`
	Align    string `json:"align,omitempty"`
	Color    string `json:"color,omitempty"`

	// Image fields (Type == "image"); Src is a self-contained data URI.
	Src string `json:"src,omitempty"`
}

// Slide is one editor slide. Elements are ordered back-to-front: all
// images first (in document order), then all text.
type Slide struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Title           string         `json:"title"`
	BackgroundColor string         `json:"backgroundColor"`
	TextColor       string         `json:"textColor"`
	Elements        []SlideElement `json:"elements,omitempty"`
}

// Presentation is a named deck as stored and served by the backend.
type Presentation struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	SlideCount int     `json:"slide_count"`
	CreatedAt  string  `json:"created_at"`
	Slides     []Slide `json:"slides,omitempty"`
}

// NewID returns a 32-character lowercase hex identifier.
func NewID() string {
	b := make([]byte, 16)
	rand.Read(b) // cannot fail since Go 1.24
	return fmt.Sprintf("%x", b)
}
