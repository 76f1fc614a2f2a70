package nlp

import (
	"fmt"
	"time"

	prose "github.com/jdkato/prose/v2"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Tagger labels free text with named entities. It is injected into the
// interpreter so tests can substitute a fake without loading a model.
// Implementations must be safe for concurrent use.
type Tagger interface {
	Tag(text string) NamedEntities
}

// ProseTagger is the production Tagger. It delegates person and
// organization recognition to the prose statistical model, takes cardinal
// numbers from prose's part-of-speech tags, and recognizes date phrases
// with the when parser.
type ProseTagger struct {
	dates *when.Parser
}

// NewProseTagger constructs the tagger and forces the packaged model to
// load immediately. A load failure here is a configuration problem and the
// process should not serve requests; per-call tagging never errors.
func NewProseTagger() (*ProseTagger, error) {
	if _, err := prose.NewDocument("startup probe", prose.WithSegmentation(false)); err != nil {
		return nil, fmt.Errorf("loading tagging model: %w", err)
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	return &ProseTagger{dates: w}, nil
}

// Tag buckets the tagger output into persons, dates, numbers and orgs.
// Labels outside those categories are discarded. Zero matches is a normal
// result, never an error.
func (t *ProseTagger) Tag(text string) NamedEntities {
	ents := EmptyNamedEntities()

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err == nil {
		for _, e := range doc.Entities() {
			switch e.Label {
			case "PERSON":
				ents.Persons = append(ents.Persons, e.Text)
			case "GPE", "ORGANIZATION":
				ents.Orgs = append(ents.Orgs, e.Text)
			}
		}
		for _, tok := range doc.Tokens() {
			// CD is the Penn Treebank tag for cardinal numbers.
			if tok.Tag == "CD" {
				ents.Numbers = append(ents.Numbers, tok.Text)
			}
		}
	}

	if r, err := t.dates.Parse(text, time.Now()); err == nil && r != nil {
		ents.Dates = append(ents.Dates, r.Text)
	}

	return ents
}
