package importer

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
)

// presentationPart is the package's root descriptor.
const presentationPart = "ppt/presentation.xml"

// Widescreen (16:9) slide size in EMU, the format's modern default.
const (
	DefaultCanvasWidthEMU  = 12192000
	DefaultCanvasHeightEMU = 6858000
)

// Classic (4:3) slide size in EMU, selectable as the fallback for older
// packages that omit the slide-size declaration.
const (
	ClassicCanvasWidthEMU  = 9144000
	ClassicCanvasHeightEMU = 6858000
)

// Metadata holds the source canvas's physical dimensions.
type Metadata struct {
	CanvasWidthEMU  int64
	CanvasHeightEMU int64
}

// WidescreenMetadata returns the 16:9 default canvas.
func WidescreenMetadata() Metadata {
	return Metadata{CanvasWidthEMU: DefaultCanvasWidthEMU, CanvasHeightEMU: DefaultCanvasHeightEMU}
}

// ClassicMetadata returns the 4:3 canvas.
func ClassicMetadata() Metadata {
	return Metadata{CanvasWidthEMU: ClassicCanvasWidthEMU, CanvasHeightEMU: ClassicCanvasHeightEMU}
}

// ReadMetadata extracts the slide-size declaration from the root
// presentation descriptor. Producers write the cx/cy attributes in either
// order, so attributes are matched by name. This never fails: any missing
// part, malformed markup, or implausible value yields the fallback
// (or the widescreen default if the fallback is zero).
func ReadMetadata(a *Archive, fallback Metadata) Metadata {
	if fallback.CanvasWidthEMU <= 0 || fallback.CanvasHeightEMU <= 0 {
		fallback = WidescreenMetadata()
	}

	data, err := a.Read(presentationPart)
	if err != nil {
		return fallback
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fallback
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sldSz" {
			continue
		}
		var cx, cy int64
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "cx":
				cx, _ = strconv.ParseInt(attr.Value, 10, 64)
			case "cy":
				cy, _ = strconv.ParseInt(attr.Value, 10, 64)
			}
		}
		if cx > 0 && cy > 0 {
			return Metadata{CanvasWidthEMU: cx, CanvasHeightEMU: cy}
		}
		return fallback
	}
	return fallback
}
