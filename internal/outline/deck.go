package outline

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"slideflow/internal/model"
)

// Layout for generated slides. Titles sit in a band across the top, body
// text fills the content area below.
const (
	titleX, titleY, titleW, titleH = 80, 40, 800, 80
	bodyX, bodyY, bodyW, bodyH     = 80, 150, 800, 340

	titleFontSize = 32
	bodyFontSize  = 18

	// maxBodyLines caps how much text lands on one slide before the
	// remainder spills onto the next.
	maxBodyLines = 8

	// maxHeadingRunes is the longest line still treated as a section
	// heading when splitting into slides.
	maxHeadingRunes = 60
)

// BuildDeck converts a document into a starter deck named name. The
// document text is split into sections at blank lines; each section
// becomes one or more slides, the first line serving as the slide title
// when it reads like a heading.
func BuildDeck(data []byte, fileType, name string) (*model.Presentation, error) {
	text, err := ExtractText(data, fileType)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("document %s contains no text", name)
	}

	slides := []model.Slide{coverSlide(name)}
	for _, section := range splitSections(text) {
		slides = append(slides, sectionSlides(section, len(slides))...)
	}
	log.Printf("[Outline] %s: %d slides from %s document", name, len(slides), fileType)

	return &model.Presentation{
		ID:         model.NewID(),
		Name:       name,
		SlideCount: len(slides),
		Slides:     slides,
	}, nil
}

// splitSections breaks the cleaned text at blank lines.
func splitSections(text string) [][]string {
	var sections [][]string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				sections = append(sections, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, current)
	}
	return sections
}

// sectionSlides turns one section into slides, paginating long sections
// by maxBodyLines. startIndex is the deck position of the first slide
// produced, used only for fallback titles.
func sectionSlides(lines []string, startIndex int) []model.Slide {
	title := ""
	body := lines
	if utf8.RuneCountInString(lines[0]) <= maxHeadingRunes {
		title = lines[0]
		body = lines[1:]
	}

	var slides []model.Slide
	for first := true; first || len(body) > 0; first = false {
		n := len(body)
		if n > maxBodyLines {
			n = maxBodyLines
		}
		page, rest := body[:n], body[n:]
		body = rest

		index := startIndex + len(slides)
		slideTitle := title
		if slideTitle == "" {
			slideTitle = fmt.Sprintf("Slide %d", index+1)
		} else if !first {
			slideTitle = title + " (cont.)"
		}
		slides = append(slides, contentSlide(index, slideTitle, page))
		if len(body) == 0 {
			break
		}
	}
	return slides
}

func coverSlide(name string) model.Slide {
	return model.Slide{
		ID:              model.NewID(),
		Type:            model.SlideTypeCover,
		Title:           name,
		BackgroundColor: model.DefaultBackgroundColor,
		TextColor:       model.DefaultTextColor,
		Elements: []model.SlideElement{{
			Type:     model.ElementTypeText,
			X:        80,
			Y:        220,
			Width:    800,
			Height:   100,
			ZIndex:   100,
			Content:  name,
			FontSize: 40,
			Bold:     true,
			Align:    model.AlignCenter,
			Color:    model.DefaultTextColor,
		}},
	}
}

func contentSlide(index int, title string, body []string) model.Slide {
	elems := []model.SlideElement{{
		Type:     model.ElementTypeText,
		X:        titleX,
		Y:        titleY,
		Width:    titleW,
		Height:   titleH,
		ZIndex:   100,
		Content:  title,
		FontSize: titleFontSize,
		Bold:     true,
		Align:    model.AlignLeft,
		Color:    model.DefaultTextColor,
	}}
	if len(body) > 0 {
		elems = append(elems, model.SlideElement{
			Type:     model.ElementTypeText,
			X:        bodyX,
			Y:        bodyY,
			Width:    bodyW,
			Height:   bodyH,
			ZIndex:   101,
			Content:  strings.Join(body, "\n"),
			FontSize: bodyFontSize,
			Align:    model.AlignLeft,
			Color:    model.DefaultTextColor,
		})
	}
	return model.Slide{
		ID:              model.NewID(),
		Type:            model.SlideTypeContent,
		Title:           title,
		BackgroundColor: model.DefaultBackgroundColor,
		TextColor:       model.DefaultTextColor,
		Elements:        elems,
	}
}
