package importer

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

// maxPartSize caps a single decompressed part at 50MB. Embedded media
// larger than this is treated as absent rather than read into memory.
const maxPartSize = 50 << 20

// Archive is a read-only view over the parts of a zip-based presentation
// package. It is valid for the duration of one import call and is safe for
// concurrent reads.
type Archive struct {
	parts map[string]*zip.File
}

// OpenArchive opens an in-memory byte buffer as a presentation package.
// Returns a *FormatError if the buffer is not a valid zip container.
func OpenArchive(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &FormatError{Cause: err}
	}
	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = f
	}
	return &Archive{parts: parts}, nil
}

// Has reports whether the named part exists in the package.
func (a *Archive) Has(name string) bool {
	_, ok := a.parts[name]
	return ok
}

// Read returns the decompressed bytes of the named part.
func (a *Archive) Read(name string) ([]byte, error) {
	f, ok := a.parts[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found in package", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %s: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
	if err != nil {
		return nil, fmt.Errorf("read part %s: %w", name, err)
	}
	return data, nil
}

// ReadText returns the named part as a string.
func (a *Archive) ReadText(name string) (string, error) {
	data, err := a.Read(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// List returns the part paths with the given prefix, sorted. Archive
// iteration order is unspecified by the format, so callers that need a
// meaningful order must sort by their own key.
func (a *Archive) List(prefix string) []string {
	var names []string
	for name := range a.parts {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
