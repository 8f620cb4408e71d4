// Package importer converts uploaded presentation packages into the
// editor's native slide model. The whole conversion runs in memory over
// the uploaded buffer; nothing touches disk.
package importer

import (
	"context"
	"fmt"
	"log"

	"slideflow/internal/model"
)

// Stage is one phase of an import. Stages only move forward; a finished
// import ends in StageDone or StageError and never transitions again.
type Stage int

const (
	StageIdle Stage = iota
	StageReading
	StageParsing
	StageConverting
	StageDone
	StageError
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageReading:
		return "reading"
	case StageParsing:
		return "parsing"
	case StageConverting:
		return "converting"
	case StageDone:
		return "done"
	case StageError:
		return "error"
	default:
		return "unknown"
	}
}

// Progress is one status snapshot emitted during an import. Progress is a
// percentage in [0,100] and never decreases across snapshots.
type Progress struct {
	Stage      string `json:"stage"`
	Progress   int    `json:"progress"`
	Message    string `json:"message"`
	SlideCount int    `json:"slideCount,omitempty"`
}

// ProgressFunc receives progress snapshots. It is called synchronously
// from the importing goroutine; a nil func disables reporting.
type ProgressFunc func(Progress)

// Options tunes one import call.
type Options struct {
	// ImportImages controls whether embedded pictures are extracted.
	// When false, only text comes through.
	ImportImages bool

	// DefaultCanvas is the canvas assumed when the package does not
	// declare a slide size. Zero means the widescreen default.
	DefaultCanvas Metadata
}

// DefaultOptions imports images onto a widescreen fallback canvas.
func DefaultOptions() Options {
	return Options{ImportImages: true, DefaultCanvas: WidescreenMetadata()}
}

// Percent milestones for the fixed stages. Converting interpolates the
// span between parsingPct and convertedPct per slide.
const (
	readingPct   = 10
	parsingPct   = 30
	convertedPct = 95
)

// tracker enforces the forward-only stage machine and monotonic percent.
type tracker struct {
	stage Stage
	pct   int
	fn    ProgressFunc
}

func (t *tracker) emit(stage Stage, pct int, msg string, slideCount int) {
	if stage < t.stage {
		stage = t.stage
	}
	if pct < t.pct {
		pct = t.pct
	}
	t.stage = stage
	t.pct = pct
	if t.fn != nil {
		t.fn(Progress{Stage: stage.String(), Progress: pct, Message: msg, SlideCount: slideCount})
	}
}

// Import converts the uploaded buffer into a presentation named name.
// The two fail-fast conditions are a buffer that is not a valid package
// (*FormatError) and a package with no slides (*EmptyPresentationError);
// everything below slide level degrades instead of failing. Cancellation
// via ctx is checked between slides and surfaces as ErrCancelled.
func Import(ctx context.Context, data []byte, name string, opts Options, fn ProgressFunc) (*model.Presentation, error) {
	t := &tracker{fn: fn}
	fail := func(err error) error {
		t.emit(StageError, t.pct, err.Error(), 0)
		return err
	}

	t.emit(StageReading, readingPct, "Reading package", 0)
	archive, err := OpenArchive(data)
	if err != nil {
		return nil, fail(err)
	}

	t.emit(StageParsing, parsingPct, "Parsing presentation", 0)
	refs, err := EnumerateSlides(archive)
	if err != nil {
		return nil, fail(err)
	}
	md := ReadMetadata(archive, opts.DefaultCanvas)
	tr := NewTransformer(md)
	log.Printf("[Import] %s: %d slides, canvas %dx%d EMU", name, len(refs), md.CanvasWidthEMU, md.CanvasHeightEMU)

	slides := make([]model.Slide, 0, len(refs))
	for i, ref := range refs {
		select {
		case <-ctx.Done():
			log.Printf("[Import] %s: cancelled at slide %d/%d", name, i+1, len(refs))
			return nil, ErrCancelled
		default:
		}
		slides = append(slides, convertSlide(archive, ref, i, tr, opts))
		pct := parsingPct + (i+1)*(convertedPct-parsingPct)/len(refs)
		t.emit(StageConverting, pct, fmt.Sprintf("Converting slide %d of %d", i+1, len(refs)), 0)
	}

	t.emit(StageDone, 100, "Import complete", len(slides))
	return &model.Presentation{
		ID:         model.NewID(),
		Name:       name,
		SlideCount: len(slides),
		Slides:     slides,
	}, nil
}

// convertSlide builds one editor slide from its package part. Any
// failure inside, including a panic out of the markup walk, yields an
// empty slide so the rest of the deck imports.
func convertSlide(a *Archive, ref SlideRef, index int, tr Transformer, opts Options) (slide model.Slide) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Import] slide %d: recovered: %v", ref.Number, r)
			slide = assembleSlide(index, nil, nil)
		}
	}()

	data, err := a.Read(ref.Part)
	if err != nil {
		log.Printf("[Import] slide %d: %v", ref.Number, err)
		return assembleSlide(index, nil, nil)
	}
	tree := parseSlideXML(data)

	var images []model.SlideElement
	if opts.ImportImages {
		rels := LoadRelationships(a, ref.Part)
		images = extractPictures(a, tree, rels, tr)
	}
	texts := extractText(tree, tr)
	return assembleSlide(index, images, texts)
}
