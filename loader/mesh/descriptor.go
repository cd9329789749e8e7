package mesh

import (
	"strings"

	"github.com/c360/ontosim/concept"
)

// descriptorRecord is the subset of a MeSH <DescriptorRecord> the loader reads.
type descriptorRecord struct {
	UI          string   `xml:"DescriptorUI"`
	Name        string   `xml:"DescriptorName>String"`
	TreeNumbers []string `xml:"TreeNumberList>TreeNumber"`
	Concepts    []struct {
		Preferred string `xml:"PreferredConceptYN,attr"`
		Terms     []struct {
			RecordPreferred string `xml:"RecordPreferredTermYN,attr"`
			String          string `xml:"String"`
		} `xml:"TermList>Term"`
	} `xml:"ConceptList>Concept"`
}

// Descriptor is one MeSH descriptor as seen by the overlay.
type Descriptor struct {
	ID          concept.ID
	UI          string
	Label       string
	TreeNumbers []string
}

func (r *descriptorRecord) toDescriptor(prefix string) Descriptor {
	return Descriptor{
		ID:          concept.NewID(prefix, r.UI),
		UI:          strings.TrimSpace(r.UI),
		Label:       r.preferredLabel(),
		TreeNumbers: trimAll(r.TreeNumbers),
	}
}

// preferredLabel is the descriptor name, falling back to the record
// preferred term of the preferred concept for records without a name.
func (r *descriptorRecord) preferredLabel() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	for _, c := range r.Concepts {
		if c.Preferred != "Y" {
			continue
		}
		for _, term := range c.Terms {
			if term.RecordPreferred == "Y" {
				return strings.TrimSpace(term.String)
			}
		}
	}
	return ""
}

// parentTreeNumber strips the last dotted segment: "F01.829.316" -> "F01.829".
// Top-level tree numbers have no parent.
func parentTreeNumber(tn string) (string, bool) {
	i := strings.LastIndexByte(tn, '.')
	if i <= 0 {
		return "", false
	}
	return tn[:i], true
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
