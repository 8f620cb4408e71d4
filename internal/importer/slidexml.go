package importer

import "encoding/xml"

// Slide markup structs. Field tags use unqualified local names, which
// encoding/xml matches against any namespace. That makes the parse
// tolerant of producers that bind the drawing namespaces to non-standard
// prefixes, and of attributes appearing in any order.

type slideXML struct {
	CSld struct {
		SpTree spTreeXML `xml:"spTree"`
	} `xml:"cSld"`
}

type spTreeXML struct {
	Shapes   []shapeXML `xml:"sp"`
	Pictures []picXML   `xml:"pic"`
}

type shapeXML struct {
	SpPr   spPrXML    `xml:"spPr"`
	TxBody *txBodyXML `xml:"txBody"`
}

type picXML struct {
	BlipFill struct {
		Blip struct {
			Embed string `xml:"embed,attr"`
		} `xml:"blip"`
	} `xml:"blipFill"`
	SpPr spPrXML `xml:"spPr"`
}

type spPrXML struct {
	Xfrm *xfrmXML `xml:"xfrm"`
}

type xfrmXML struct {
	Off *struct {
		X int64 `xml:"x,attr"`
		Y int64 `xml:"y,attr"`
	} `xml:"off"`
	Ext *struct {
		CX int64 `xml:"cx,attr"`
		CY int64 `xml:"cy,attr"`
	} `xml:"ext"`
}

type txBodyXML struct {
	Paragraphs []paragraphXML `xml:"p"`
}

type paragraphXML struct {
	PPr *struct {
		Algn string `xml:"algn,attr"`
	} `xml:"pPr"`
	Runs []runXML `xml:"r"`
}

type runXML struct {
	RPr *runPropsXML `xml:"rPr"`
	T   string       `xml:"t"`
}

type runPropsXML struct {
	Sz        string `xml:"sz,attr"`
	B         string `xml:"b,attr"`
	SolidFill *struct {
		SrgbClr struct {
			Val string `xml:"val,attr"`
		} `xml:"srgbClr"`
	} `xml:"solidFill"`
}

// rect extracts the shape's transform block. Returns false when the
// markup omits the transform (placeholder shapes inherit theirs from the
// layout, which this importer does not chase).
func (p spPrXML) rect() (PhysicalRect, bool) {
	if p.Xfrm == nil || p.Xfrm.Off == nil || p.Xfrm.Ext == nil {
		return PhysicalRect{}, false
	}
	return PhysicalRect{
		X: p.Xfrm.Off.X,
		Y: p.Xfrm.Off.Y,
		W: p.Xfrm.Ext.CX,
		H: p.Xfrm.Ext.CY,
	}, true
}

// parseSlideXML unmarshals one slide part. A parse failure degrades to an
// empty slide rather than failing the import; one damaged slide must not
// take the rest of the deck down.
func parseSlideXML(data []byte) spTreeXML {
	var doc slideXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return spTreeXML{}
	}
	return doc.CSld.SpTree
}
