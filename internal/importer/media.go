package importer

import (
	"encoding/base64"
	"path"
	"strings"
)

// mediaMIME maps a media part's file extension to its MIME type. JPEG
// keeps its real type; every other raster format the editor renders is
// served as PNG, which browsers decode by content anyway.
func mediaMIME(part string) string {
	switch strings.ToLower(path.Ext(part)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "image/png"
	}
}

// ExtractMedia reads a media part and encodes it as a self-contained
// base64 data URI. The second return is false when the part is missing or
// unreadable; callers skip the element rather than failing the slide.
func ExtractMedia(a *Archive, part string) (string, bool) {
	data, err := a.Read(part)
	if err != nil || len(data) == 0 {
		return "", false
	}
	var b strings.Builder
	b.WriteString("data:")
	b.WriteString(mediaMIME(part))
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String(), true
}
