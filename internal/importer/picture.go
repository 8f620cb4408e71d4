package importer

import "slideflow/internal/model"

// minPictureSize is the smallest rendered dimension, in logical pixels,
// an image may have and still be imported. Anything under it is bullet
// glyphs, divider lines, or similar decoration.
const minPictureSize = 10

// extractPictures converts a slide's picture shapes into image elements.
// Shapes are walked in document order; a shape missing its transform, its
// relationship, or its media part is skipped without affecting siblings.
func extractPictures(a *Archive, tree spTreeXML, rels *RelationshipMap, tr Transformer) []model.SlideElement {
	var elems []model.SlideElement
	for _, pic := range tree.Pictures {
		phys, ok := pic.SpPr.rect()
		if !ok {
			continue
		}
		rect := tr.Rect(phys)
		if rect.W < minPictureSize || rect.H < minPictureSize {
			continue
		}
		part, ok := rels.Resolve(pic.BlipFill.Blip.Embed)
		if !ok {
			continue
		}
		src, ok := ExtractMedia(a, part)
		if !ok {
			continue
		}
		elems = append(elems, model.SlideElement{
			Type:   model.ElementTypeImage,
			X:      rect.X,
			Y:      rect.Y,
			Width:  rect.W,
			Height: rect.H,
			Src:    src,
		})
	}
	return elems
}
