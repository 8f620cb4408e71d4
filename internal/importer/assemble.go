package importer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"slideflow/internal/model"
)

// zIndex bands. Images always paint under text, so the two element kinds
// get disjoint ranges regardless of how many of each a slide has.
const (
	imageZIndexBase = 0
	textZIndexBase  = 100
)

// maxTitleRunes bounds the full content of a text element that can still
// supply the slide title. Longer elements are body text, not headings.
const maxTitleRunes = 100

// assembleSlide builds one editor slide from its extracted elements.
// index is the zero-based position in the deck; the first slide becomes
// the cover. Images keep document order in the low zIndex band, text
// follows in the high band.
func assembleSlide(index int, images, texts []model.SlideElement) model.Slide {
	slideType := model.SlideTypeContent
	if index == 0 {
		slideType = model.SlideTypeCover
	}

	elems := make([]model.SlideElement, 0, len(images)+len(texts))
	for i, el := range images {
		el.ZIndex = imageZIndexBase + i
		elems = append(elems, el)
	}
	for i, el := range texts {
		el.ZIndex = textZIndexBase + i
		elems = append(elems, el)
	}

	return model.Slide{
		ID:              model.NewID(),
		Type:            slideType,
		Title:           slideTitle(index, texts),
		BackgroundColor: model.DefaultBackgroundColor,
		TextColor:       model.DefaultTextColor,
		Elements:        elems,
	}
}

// slideTitle derives a title from the first text element whose full
// content is under maxTitleRunes: that element's first line. Slides with
// only long-form text fall back to a positional name.
func slideTitle(index int, texts []model.SlideElement) string {
	for _, el := range texts {
		if utf8.RuneCountInString(el.Content) >= maxTitleRunes {
			continue
		}
		line := el.Content
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return fmt.Sprintf("Slide %d", index+1)
}
