// Package preview renders slide thumbnails for imported presentation
// packages. Rendering uses the source package directly, so thumbnails
// show the original layout including features the importer simplifies.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log"

	goppt "github.com/VantageDataChat/GoPPT"
	"golang.org/x/image/draw"
)

// renderWidth is the width slides are rasterized at before downscaling.
const renderWidth = 1280

// Renderer produces PNG thumbnails from presentation package bytes.
type Renderer struct {
	// ThumbWidth is the output thumbnail width in pixels. Height follows
	// the slide's aspect ratio.
	ThumbWidth int
}

// NewRenderer returns a Renderer producing thumbnails of the given width.
// Widths under 64 are raised to 64.
func NewRenderer(thumbWidth int) *Renderer {
	if thumbWidth < 64 {
		thumbWidth = 64
	}
	return &Renderer{ThumbWidth: thumbWidth}
}

// Thumbnails renders every slide of the package as a PNG thumbnail. A
// slide that fails to render is skipped with a warning; the error return
// covers only failures that prevent reading the package at all.
func (r *Renderer) Thumbnails(data []byte) (thumbs [][]byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			thumbs = nil
			err = fmt.Errorf("thumbnail render panic: %v", rec)
		}
	}()

	pres, err := goppt.ReadFrom(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read package for preview: %w", err)
	}
	defer pres.Close()

	slides := pres.Slides()
	opts := goppt.DefaultRenderOptions()
	opts.Width = renderWidth
	opts.FontCache = goppt.NewFontCache()

	rendered, renderErr := pres.SlidesToImages(opts)
	if renderErr != nil {
		log.Printf("[Preview] batch render failed, retrying per slide: %v", renderErr)
	}

	for i := range slides {
		var img image.Image
		if renderErr == nil && i < len(rendered) {
			img = rendered[i]
		} else {
			single, sErr := pres.SlideToImage(i, opts)
			if sErr != nil {
				log.Printf("[Preview] slide %d render failed: %v", i+1, sErr)
				continue
			}
			img = single
		}

		encoded, encErr := r.encodeThumb(img)
		if encErr != nil {
			log.Printf("[Preview] slide %d encode failed: %v", i+1, encErr)
			continue
		}
		thumbs = append(thumbs, encoded)
	}
	return thumbs, nil
}

// encodeThumb downscales one rendered slide and encodes it as PNG.
func (r *Renderer) encodeThumb(img image.Image) ([]byte, error) {
	small := downscale(img, r.ThumbWidth)
	var buf bytes.Buffer
	if err := png.Encode(&buf, small); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// downscale resizes img to the target width, preserving aspect ratio.
// Images already at or below the target width pass through untouched.
func downscale(img image.Image, width int) image.Image {
	b := img.Bounds()
	if b.Dx() <= width {
		return img
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
