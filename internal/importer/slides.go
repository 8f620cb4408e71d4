package importer

import (
	"regexp"
	"sort"
	"strconv"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// SlideRef identifies one slide part inside the package.
type SlideRef struct {
	Number int    // the number embedded in the part name
	Part   string // full part path, e.g. ppt/slides/slide3.xml
}

// EnumerateSlides lists the slide parts of the package in presentation
// order. Zip entries come back lexically sorted, which would put slide10
// before slide2, so ordering is by the numeric suffix instead. Returns an
// *EmptyPresentationError when no slide part exists.
func EnumerateSlides(a *Archive) ([]SlideRef, error) {
	var refs []SlideRef
	for _, name := range a.List("ppt/slides/") {
		m := slidePartRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		refs = append(refs, SlideRef{Number: n, Part: name})
	}
	if len(refs) == 0 {
		return nil, &EmptyPresentationError{}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Number < refs[j].Number })
	return refs, nil
}
