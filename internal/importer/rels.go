package importer

import (
	"encoding/xml"
	"path"
	"strings"
)

// RelationshipMap resolves a slide's relationship IDs to package part
// paths. Image references in slide markup are indirect: the shape carries
// an r:embed ID and the slide's companion .rels part maps the ID to a
// target path.
type RelationshipMap struct {
	targets map[string]string
}

type relsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// relsPartFor returns the companion relationship part for a slide part.
// ppt/slides/slide3.xml -> ppt/slides/_rels/slide3.xml.rels
func relsPartFor(slidePart string) string {
	dir, base := path.Split(slidePart)
	return dir + "_rels/" + base + ".rels"
}

// LoadRelationships reads and parses the relationship part for the given
// slide. A missing or malformed part yields an empty map, not an error:
// the slide is still importable, its images just cannot be resolved.
func LoadRelationships(a *Archive, slidePart string) *RelationshipMap {
	rm := &RelationshipMap{targets: make(map[string]string)}
	data, err := a.Read(relsPartFor(slidePart))
	if err != nil {
		return rm
	}
	var doc relsXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return rm
	}
	for _, rel := range doc.Relationships {
		if rel.ID == "" || rel.Target == "" {
			continue
		}
		rm.targets[rel.ID] = normalizeTarget(rel.Target)
	}
	return rm
}

// normalizeTarget rebases a relationship target onto a package part path.
// Targets are relative to the slide's directory: "../media/image1.png"
// means ppt/media/image1.png, a bare "media/image1.png" would sit under
// ppt/slides/.
func normalizeTarget(target string) string {
	if strings.HasPrefix(target, "../") {
		return "ppt/" + strings.TrimPrefix(target, "../")
	}
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return "ppt/slides/" + target
}

// Resolve maps a relationship ID to its normalized part path.
func (rm *RelationshipMap) Resolve(id string) (string, bool) {
	part, ok := rm.targets[id]
	return part, ok
}

// Len reports the number of relationships in the map.
func (rm *RelationshipMap) Len() int { return len(rm.targets) }
