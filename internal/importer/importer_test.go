package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"slideflow/internal/model"
)

// buildPackage assembles an in-memory zip from part name to content.
func buildPackage(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create part %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write part %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const presentationXMLWidescreen = `<?xml version="1.0"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:sldSz cx="12192000" cy="6858000"/>
</p:presentation>`

func slideWithText(text, sz, bold, algn, color string) string {
	var rpr strings.Builder
	rpr.WriteString("<a:rPr")
	if sz != "" {
		rpr.WriteString(` sz="` + sz + `"`)
	}
	if bold != "" {
		rpr.WriteString(` b="` + bold + `"`)
	}
	rpr.WriteString(">")
	if color != "" {
		rpr.WriteString(`<a:solidFill><a:srgbClr val="` + color + `"/></a:solidFill>`)
	}
	rpr.WriteString("</a:rPr>")

	ppr := ""
	if algn != "" {
		ppr = `<a:pPr algn="` + algn + `"/>`
	}

	return `<?xml version="1.0"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:cSld><p:spTree>
    <p:sp>
      <p:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="6096000" cy="3429000"/></a:xfrm></p:spPr>
      <p:txBody><a:p>` + ppr + `<a:r>` + rpr.String() + `<a:t>` + text + `</a:t></a:r></a:p></p:txBody>
    </p:sp>
  </p:spTree></p:cSld>
</p:sld>`
}

func TestImportRejectsNonZipBuffer(t *testing.T) {
	_, err := Import(context.Background(), []byte("this is not a package"), "bad", DefaultOptions(), nil)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestImportRejectsEmptyPresentation(t *testing.T) {
	data := buildPackage(t, map[string]string{
		"ppt/presentation.xml": presentationXMLWidescreen,
	})
	_, err := Import(context.Background(), data, "empty", DefaultOptions(), nil)
	var ee *EmptyPresentationError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EmptyPresentationError, got %v", err)
	}
}

func TestImportConvertsTextShape(t *testing.T) {
	data := buildPackage(t, map[string]string{
		"ppt/presentation.xml":  presentationXMLWidescreen,
		"ppt/slides/slide1.xml": slideWithText("Hello World", "2400", "1", "ctr", "FF0000"),
	})

	pres, err := Import(context.Background(), data, "deck", DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if pres.SlideCount != 1 || len(pres.Slides) != 1 {
		t.Fatalf("expected 1 slide, got %d", pres.SlideCount)
	}

	slide := pres.Slides[0]
	if slide.Type != model.SlideTypeCover {
		t.Errorf("first slide type = %q, want cover", slide.Type)
	}
	if slide.Title != "Hello World" {
		t.Errorf("title = %q, want Hello World", slide.Title)
	}
	if len(slide.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(slide.Elements))
	}

	el := slide.Elements[0]
	if el.Type != model.ElementTypeText {
		t.Fatalf("element type = %q", el.Type)
	}
	if el.X != 0 || el.Y != 0 || el.Width != 480 || el.Height != 270 {
		t.Errorf("rect = (%d,%d,%d,%d), want (0,0,480,270)", el.X, el.Y, el.Width, el.Height)
	}
	if el.FontSize != 24 {
		t.Errorf("fontSize = %d, want 24", el.FontSize)
	}
	if !el.Bold {
		t.Error("expected bold")
	}
	if el.Align != model.AlignCenter {
		t.Errorf("align = %q, want center", el.Align)
	}
	if el.Color != "#FF0000" {
		t.Errorf("color = %q, want #FF0000", el.Color)
	}
}

func TestImportOrdersSlidesNumerically(t *testing.T) {
	data := buildPackage(t, map[string]string{
		"ppt/presentation.xml":   presentationXMLWidescreen,
		"ppt/slides/slide10.xml": slideWithText("Tenth", "", "", "", ""),
		"ppt/slides/slide2.xml":  slideWithText("Second", "", "", "", ""),
		"ppt/slides/slide1.xml":  slideWithText("First", "", "", "", ""),
	})

	pres, err := Import(context.Background(), data, "deck", DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	titles := []string{pres.Slides[0].Title, pres.Slides[1].Title, pres.Slides[2].Title}
	want := []string{"First", "Second", "Tenth"}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("slide %d title = %q, want %q", i, titles[i], want[i])
		}
	}
	if pres.Slides[0].Type != model.SlideTypeCover {
		t.Errorf("slide 0 type = %q, want cover", pres.Slides[0].Type)
	}
	if pres.Slides[1].Type != model.SlideTypeContent {
		t.Errorf("slide 1 type = %q, want content", pres.Slides[1].Type)
	}
}

func TestImportImagesPaintUnderText(t *testing.T) {
	slideXML := `<?xml version="1.0"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <p:cSld><p:spTree>
    <p:sp>
      <p:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="3048000" cy="1714500"/></a:xfrm></p:spPr>
      <p:txBody><a:p><a:r><a:t>Caption</a:t></a:r></a:p></p:txBody>
    </p:sp>
    <p:pic>
      <p:blipFill><a:blip r:embed="rId2"/></p:blipFill>
      <p:spPr><a:xfrm><a:off x="1524000" y="685800"/><a:ext cx="6096000" cy="3429000"/></a:xfrm></p:spPr>
    </p:pic>
  </p:spTree></p:cSld>
</p:sld>`
	relsXML := `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image1.png"/>
</Relationships>`

	data := buildPackage(t, map[string]string{
		"ppt/presentation.xml":             presentationXMLWidescreen,
		"ppt/slides/slide1.xml":            slideXML,
		"ppt/slides/_rels/slide1.xml.rels": relsXML,
		"ppt/media/image1.png":             "fake png bytes",
	})

	pres, err := Import(context.Background(), data, "deck", DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	elems := pres.Slides[0].Elements
	if len(elems) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(elems))
	}
	if elems[0].Type != model.ElementTypeImage {
		t.Fatalf("first element = %q, want image", elems[0].Type)
	}
	if elems[1].Type != model.ElementTypeText {
		t.Fatalf("second element = %q, want text", elems[1].Type)
	}
	if elems[0].ZIndex >= elems[1].ZIndex {
		t.Errorf("image zIndex %d not below text zIndex %d", elems[0].ZIndex, elems[1].ZIndex)
	}
	if !strings.HasPrefix(elems[0].Src, "data:image/png;base64,") {
		t.Errorf("image src prefix wrong: %.40s", elems[0].Src)
	}
	if elems[0].X != 120 || elems[0].Y != 54 || elems[0].Width != 480 || elems[0].Height != 270 {
		t.Errorf("image rect = (%d,%d,%d,%d)", elems[0].X, elems[0].Y, elems[0].Width, elems[0].Height)
	}
}

func TestImportSkipsImagesWhenDisabled(t *testing.T) {
	relsXML := `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId2" Target="../media/image1.png"/>
</Relationships>`
	slideXML := `<?xml version="1.0"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <p:cSld><p:spTree>
    <p:pic>
      <p:blipFill><a:blip r:embed="rId2"/></p:blipFill>
      <p:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="6096000" cy="3429000"/></a:xfrm></p:spPr>
    </p:pic>
  </p:spTree></p:cSld>
</p:sld>`

	data := buildPackage(t, map[string]string{
		"ppt/presentation.xml":             presentationXMLWidescreen,
		"ppt/slides/slide1.xml":            slideXML,
		"ppt/slides/_rels/slide1.xml.rels": relsXML,
		"ppt/media/image1.png":             "fake png bytes",
	})

	opts := DefaultOptions()
	opts.ImportImages = false
	pres, err := Import(context.Background(), data, "deck", opts, nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if len(pres.Slides[0].Elements) != 0 {
		t.Errorf("expected no elements with images disabled, got %d", len(pres.Slides[0].Elements))
	}
}

func TestImportSkipsUndersizedShapes(t *testing.T) {
	// 50800 EMU is 4 logical px on the widescreen canvas, under both
	// element minimums.
	slideXML := `<?xml version="1.0"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:cSld><p:spTree>
    <p:sp>
      <p:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="50800" cy="50800"/></a:xfrm></p:spPr>
      <p:txBody><a:p><a:r><a:t>tiny</a:t></a:r></a:p></p:txBody>
    </p:sp>
  </p:spTree></p:cSld>
</p:sld>`

	data := buildPackage(t, map[string]string{
		"ppt/presentation.xml":  presentationXMLWidescreen,
		"ppt/slides/slide1.xml": slideXML,
	})

	pres, err := Import(context.Background(), data, "deck", DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if len(pres.Slides[0].Elements) != 0 {
		t.Errorf("undersized shape should be skipped, got %d elements", len(pres.Slides[0].Elements))
	}
	if pres.Slides[0].Title != "Slide 1" {
		t.Errorf("title fallback = %q, want Slide 1", pres.Slides[0].Title)
	}
}

func TestImportToleratesDamagedSlide(t *testing.T) {
	data := buildPackage(t, map[string]string{
		"ppt/presentation.xml":  presentationXMLWidescreen,
		"ppt/slides/slide1.xml": "<p:sld this is not xml",
		"ppt/slides/slide2.xml": slideWithText("Survivor", "", "", "", ""),
	})

	pres, err := Import(context.Background(), data, "deck", DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if pres.SlideCount != 2 {
		t.Fatalf("expected 2 slides, got %d", pres.SlideCount)
	}
	if len(pres.Slides[0].Elements) != 0 {
		t.Errorf("damaged slide should be empty, got %d elements", len(pres.Slides[0].Elements))
	}
	if pres.Slides[1].Title != "Survivor" {
		t.Errorf("second slide title = %q", pres.Slides[1].Title)
	}
}

func TestImportProgressIsMonotonicAndEndsDone(t *testing.T) {
	data := buildPackage(t, map[string]string{
		"ppt/presentation.xml":  presentationXMLWidescreen,
		"ppt/slides/slide1.xml": slideWithText("One", "", "", "", ""),
		"ppt/slides/slide2.xml": slideWithText("Two", "", "", "", ""),
		"ppt/slides/slide3.xml": slideWithText("Three", "", "", "", ""),
	})

	var snaps []Progress
	_, err := Import(context.Background(), data, "deck", DefaultOptions(), func(p Progress) {
		snaps = append(snaps, p)
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if len(snaps) < 5 {
		t.Fatalf("expected at least 5 snapshots, got %d", len(snaps))
	}
	for i := 1; i < len(snaps); i++ {
		if snaps[i].Progress < snaps[i-1].Progress {
			t.Errorf("progress went backwards: %d then %d", snaps[i-1].Progress, snaps[i].Progress)
		}
	}
	last := snaps[len(snaps)-1]
	if last.Stage != "done" || last.Progress != 100 {
		t.Errorf("final snapshot = %s/%d, want done/100", last.Stage, last.Progress)
	}
	if last.SlideCount != 3 {
		t.Errorf("final slideCount = %d, want 3", last.SlideCount)
	}
	if snaps[0].Stage != "reading" {
		t.Errorf("first snapshot stage = %s, want reading", snaps[0].Stage)
	}
}

func TestImportCancellation(t *testing.T) {
	data := buildPackage(t, map[string]string{
		"ppt/presentation.xml":  presentationXMLWidescreen,
		"ppt/slides/slide1.xml": slideWithText("One", "", "", "", ""),
		"ppt/slides/slide2.xml": slideWithText("Two", "", "", "", ""),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sawError bool
	_, err := Import(ctx, data, "deck", DefaultOptions(), func(p Progress) {
		if p.Stage == "error" {
			sawError = true
		}
	})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if sawError {
		t.Error("cancellation must not emit an error-stage snapshot")
	}
}

func TestImportFormatErrorEmitsErrorStage(t *testing.T) {
	var last Progress
	_, err := Import(context.Background(), []byte("garbage"), "bad", DefaultOptions(), func(p Progress) {
		last = p
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if last.Stage != "error" {
		t.Errorf("final stage = %s, want error", last.Stage)
	}
}
