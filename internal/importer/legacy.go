package importer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"

	"slideflow/internal/model"
)

// Legacy binary record types. The stream is a sequence of 8-byte record
// headers; containers (recVer 0x0F) nest sub-records in their payload.
const (
	recSlideContainer  = 0x03EE
	recNotesContainer  = 0x03F0
	recMasterContainer = 0x03F8
	recTextCharsAtom   = 0x0FA0 // UTF-16LE
	recTextBytesAtom   = 0x0FA8 // ANSI
)

// minLegacyImageSize filters icons and bullet art out of the Pictures
// stream. 1KB of encoded data is below any real slide photo.
const minLegacyImageSize = 1024

// ImportLegacy converts an OLE2 (pre-2007 binary) presentation into the
// editor's slide model. The binary format carries no usable geometry for
// this importer, so each slide's text lands in a single full-content text
// box and extracted pictures become appendix slides. Progress and error
// semantics match Import.
func ImportLegacy(ctx context.Context, data []byte, name string, opts Options, fn ProgressFunc) (pres *model.Presentation, err error) {
	t := &tracker{fn: fn}
	fail := func(err error) error {
		t.emit(StageError, t.pct, err.Error(), 0)
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			pres = nil
			err = fail(&FormatError{Cause: fmt.Errorf("legacy parse panic: %v", r)})
		}
	}()

	t.emit(StageReading, readingPct, "Reading package", 0)
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, fail(&FormatError{Cause: err})
	}

	var docStream, picturesStream []byte
	for {
		entry, nextErr := doc.Next()
		if nextErr != nil {
			break
		}
		switch entry.Name {
		case "PowerPoint Document":
			docStream, _ = io.ReadAll(io.LimitReader(entry, maxPartSize))
		case "Pictures":
			picturesStream, _ = io.ReadAll(io.LimitReader(entry, maxPartSize))
		}
	}
	if len(docStream) == 0 {
		return nil, fail(&FormatError{Cause: fmt.Errorf("no document stream in container")})
	}

	t.emit(StageParsing, parsingPct, "Parsing presentation", 0)
	slideTexts := legacySlideTexts(docStream)
	if len(slideTexts) == 0 {
		return nil, fail(&EmptyPresentationError{})
	}

	var pictures [][]byte
	if opts.ImportImages && len(picturesStream) > 0 {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[Import] %s: picture stream recovered: %v", name, r)
					pictures = nil
				}
			}()
			pictures = legacyPictures(picturesStream)
		}()
	}

	total := len(slideTexts) + len(pictures)
	log.Printf("[Import] %s: legacy deck, %d text slides, %d pictures", name, len(slideTexts), len(pictures))

	slides := make([]model.Slide, 0, total)
	converted := 0
	step := func() error {
		select {
		case <-ctx.Done():
			log.Printf("[Import] %s: cancelled at slide %d/%d", name, converted+1, total)
			return ErrCancelled
		default:
		}
		converted++
		pct := parsingPct + converted*(convertedPct-parsingPct)/total
		t.emit(StageConverting, pct, fmt.Sprintf("Converting slide %d of %d", converted, total), 0)
		return nil
	}

	for _, lines := range slideTexts {
		if err := step(); err != nil {
			return nil, err
		}
		slides = append(slides, legacyTextSlide(len(slides), lines))
	}
	for i, img := range pictures {
		if err := step(); err != nil {
			return nil, err
		}
		slides = append(slides, legacyImageSlide(len(slides), i+1, img))
	}

	t.emit(StageDone, 100, "Import complete", len(slides))
	return &model.Presentation{
		ID:         model.NewID(),
		Name:       name,
		SlideCount: len(slides),
		Slides:     slides,
	}, nil
}

// legacyTextSlide lays the collected lines into one full-content text box.
func legacyTextSlide(index int, lines []string) model.Slide {
	content := strings.Join(lines, "\n")
	var texts []model.SlideElement
	if strings.TrimSpace(content) != "" {
		texts = []model.SlideElement{{
			Type:     model.ElementTypeText,
			X:        80,
			Y:        60,
			Width:    800,
			Height:   420,
			Content:  content,
			FontSize: defaultFontSize,
			Align:    model.AlignLeft,
			Color:    model.DefaultTextColor,
		}}
	}
	return assembleSlide(index, nil, texts)
}

// legacyImageSlide puts one extracted picture on its own slide, centered
// in a 4:3 box. The binary picture records carry no placement data.
func legacyImageSlide(index, pictureNum int, img []byte) model.Slide {
	mime := "image/png"
	if bytes.HasPrefix(img, []byte{0xFF, 0xD8, 0xFF}) {
		mime = "image/jpeg"
	}
	slide := assembleSlide(index, []model.SlideElement{{
		Type:   model.ElementTypeImage,
		X:      120,
		Y:      30,
		Width:  720,
		Height: 480,
		Src:    "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img),
	}}, nil)
	slide.Title = fmt.Sprintf("Picture %d", pictureNum)
	return slide
}

// legacySlideTexts walks the document stream and groups text atoms by the
// slide container they sit in. Master and notes subtrees are skipped so
// template placeholders never leak into the deck.
func legacySlideTexts(data []byte) [][]string {
	var slides [][]string
	pos := 0
	for pos+8 <= len(data) {
		recVerInstance := binary.LittleEndian.Uint16(data[pos : pos+2])
		recType := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
		recLen := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		recVer := recVerInstance & 0x0F
		pos += 8
		if recLen > uint32(len(data)-pos) {
			break
		}
		switch {
		case recType == recSlideContainer:
			slides = append(slides, collectTextAtoms(data[pos:pos+int(recLen)]))
			pos += int(recLen)
		case recType == recMasterContainer, recType == recNotesContainer:
			pos += int(recLen)
		case recVer == 0x0F:
			// Container: fall through into its sub-records.
		default:
			pos += int(recLen)
		}
	}
	return slides
}

// collectTextAtoms gathers the text atom payloads inside one slide
// container subtree, in record order.
func collectTextAtoms(data []byte) []string {
	var lines []string
	pos := 0
	for pos+8 <= len(data) {
		recVerInstance := binary.LittleEndian.Uint16(data[pos : pos+2])
		recType := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
		recLen := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		recVer := recVerInstance & 0x0F
		pos += 8
		if recLen > uint32(len(data)-pos) {
			break
		}
		switch recType {
		case recTextCharsAtom:
			if text := decodeUTF16LE(data[pos : pos+int(recLen)]); keepLegacyText(text) {
				lines = append(lines, strings.TrimSpace(text))
			}
			pos += int(recLen)
		case recTextBytesAtom:
			if text := string(data[pos : pos+int(recLen)]); keepLegacyText(text) {
				lines = append(lines, strings.TrimSpace(text))
			}
			pos += int(recLen)
		default:
			if recVer != 0x0F {
				pos += int(recLen)
			}
		}
	}
	return lines
}

func decodeUTF16LE(b []byte) string {
	u16s := make([]uint16, len(b)/2)
	for i := range u16s {
		u16s[i] = binary.LittleEndian.Uint16(b[i*2 : i*2+2])
	}
	return string(utf16.Decode(u16s))
}

// legacyNoisePatterns are master placeholder strings that survive in some
// slide records despite the master subtree being skipped.
var legacyNoisePatterns = []string{
	"Click to edit Master title style",
	"Click to edit Master text styles",
	"Click to edit Master subtitle style",
	"单击此处编辑母版",
}

var legacyNoiseExact = map[string]bool{
	"*":            true,
	"Second level": true,
	"Third level":  true,
	"Fourth level": true,
	"Fifth level":  true,
	"二级":           true,
	"三级":           true,
	"四级":           true,
	"五级":           true,
}

func keepLegacyText(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || legacyNoiseExact[text] {
		return false
	}
	for _, pat := range legacyNoisePatterns {
		if strings.Contains(text, pat) {
			return false
		}
	}
	return true
}

// legacyPictures pulls JPEG and PNG payloads out of the Pictures stream.
// Each entry is a BLIP record: 8-byte header, then a UID block whose size
// depends on the instance bits, then the raw image bytes.
func legacyPictures(data []byte) [][]byte {
	var images [][]byte
	pos := 0
	for pos+8 <= len(data) {
		recVerInstance := binary.LittleEndian.Uint16(data[pos : pos+2])
		recType := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
		recLen := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		recInstance := recVerInstance >> 4
		if int(recLen) > len(data)-(pos+8) {
			break
		}
		start := pos + 8
		pos += 8 + int(recLen)

		var headerSize int
		switch recType {
		case 0xF01D, 0xF01E: // JPEG, PNG
			headerSize = 17
			if recInstance&0x10 != 0 {
				headerSize = 33
			}
		default:
			continue
		}
		if int(recLen) < headerSize {
			continue
		}
		img := append([]byte(nil), data[start+headerSize:start+int(recLen)]...)
		if len(img) < minLegacyImageSize {
			continue
		}
		images = append(images, img)
	}
	return images
}
