package importer

import (
	"strconv"
	"strings"

	"slideflow/internal/model"
)

// minTextSize is the smallest rendered dimension, in logical pixels, a
// text box may have and still be imported.
const minTextSize = 5

// Font size bounds and default, in points. Source sizes are declared in
// hundredths of a point.
const (
	minFontSize     = 8
	maxFontSize     = 72
	defaultFontSize = 18
)

// extractText converts a slide's text shapes into text elements. Each
// shape becomes at most one element: paragraphs are joined with newlines
// and run formatting is collapsed to a single attribute set. The first
// declared value wins for size, alignment, and color; bold is set when
// any run asks for it.
func extractText(tree spTreeXML, tr Transformer) []model.SlideElement {
	var elems []model.SlideElement
	for _, sp := range tree.Shapes {
		if sp.TxBody == nil {
			continue
		}
		phys, ok := sp.SpPr.rect()
		if !ok {
			continue
		}
		rect := tr.Rect(phys)
		if rect.W < minTextSize || rect.H < minTextSize {
			continue
		}
		content, attrs := collapseBody(*sp.TxBody)
		if strings.TrimSpace(content) == "" {
			continue
		}
		elems = append(elems, model.SlideElement{
			Type:     model.ElementTypeText,
			X:        rect.X,
			Y:        rect.Y,
			Width:    rect.W,
			Height:   rect.H,
			Content:  content,
			FontSize: attrs.fontSize,
			Bold:     attrs.bold,
			Align:    attrs.align,
			Color:    attrs.color,
		})
	}
	return elems
}

type textAttrs struct {
	fontSize int
	bold     bool
	align    string
	color    string
}

// collapseBody flattens a text body into one string plus one attribute
// set. Paragraph boundaries become newlines; runs inside a paragraph are
// concatenated as-is.
func collapseBody(body txBodyXML) (string, textAttrs) {
	attrs := textAttrs{fontSize: defaultFontSize, align: model.AlignLeft, color: model.DefaultTextColor}
	sizeSet, alignSet, colorSet := false, false, false

	var lines []string
	for _, para := range body.Paragraphs {
		if !alignSet && para.PPr != nil {
			switch para.PPr.Algn {
			case "ctr":
				attrs.align = model.AlignCenter
				alignSet = true
			case "r":
				attrs.align = model.AlignRight
				alignSet = true
			case "l":
				alignSet = true
			}
		}
		var line strings.Builder
		for _, run := range para.Runs {
			line.WriteString(run.T)
			if run.RPr == nil {
				continue
			}
			if !sizeSet && run.RPr.Sz != "" {
				if hundredths, err := strconv.Atoi(run.RPr.Sz); err == nil && hundredths > 0 {
					attrs.fontSize = clampFontSize(hundredths / 100)
					sizeSet = true
				}
			}
			if run.RPr.B == "1" || run.RPr.B == "true" {
				attrs.bold = true
			}
			if !colorSet && run.RPr.SolidFill != nil && len(run.RPr.SolidFill.SrgbClr.Val) == 6 {
				attrs.color = "#" + strings.ToUpper(run.RPr.SolidFill.SrgbClr.Val)
				colorSet = true
			}
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n"), attrs
}

func clampFontSize(pt int) int {
	if pt < minFontSize {
		return minFontSize
	}
	if pt > maxFontSize {
		return maxFontSize
	}
	return pt
}
