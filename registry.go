package boxwire

import (
	"encoding/binary"
	"sort"

	"github.com/boxwire/boxwire/internal/bitio"
)

// templateRegistry implements spec.md §4.F: templates are indexed by their
// header's start marker; Select peeks the wire's leading bytes and returns
// the longest matching marker, ties broken by registration order.
type templateRegistry struct {
	templates []*Template // in registration order
}

func newTemplateRegistry() *templateRegistry {
	return &templateRegistry{}
}

// register adds tpl, keeping the registry sorted longest-marker-first so
// Select always tries the most specific marker before a shorter prefix of
// it, without disturbing registration order among equal-length markers.
func (tr *templateRegistry) register(tpl *Template) error {
	tr.templates = append(tr.templates, tpl)
	sort.SliceStable(tr.templates, func(i, j int) bool {
		return len(tr.templates[i].Header.StartMarker) > len(tr.templates[j].Header.StartMarker)
	})
	return nil
}

// ErrNoTemplate is returned by select/FindNext when no registered template's
// start marker matches the wire at the current position.
type ErrNoTemplate struct{}

func (ErrNoTemplate) Error() string { return "boxwire: no template matches the wire at this position" }

// selectTemplate peeks bytes at r's current position (restoring it
// afterwards) and returns the first registered template (by the longest-
// marker-first, then registration order) whose StartMarker matches.
func (tr *templateRegistry) selectTemplate(r *bitio.Reader) (*Template, error) {
	for _, tpl := range tr.templates {
		if matchMarker(r, tpl.Header.StartMarker) {
			return tpl, nil
		}
	}
	return nil, ErrNoTemplate{}
}

// matchMarker reports whether marker occurs verbatim at r's current
// position, without consuming any bytes.
func matchMarker(r *bitio.Reader, marker []byte) bool {
	if len(marker) == 0 {
		return true
	}
	r.Mark()
	defer r.Restore()
	for _, want := range marker {
		got, err := r.ReadUint(8, binary.BigEndian)
		if err != nil || byte(got) != want {
			return false
		}
	}
	return true
}

// findNext advances r byte by byte (restoring on every failed attempt)
// until selectTemplate succeeds or the buffer is exhausted, returning the
// absolute byte offset of the match or -1 (spec.md §4.F's FindNext, with an
// ErrNoTemplate alongside the -1 sentinel so callers need not rely on the
// magic number alone).
func (tr *templateRegistry) findNext(r *bitio.Reader) (int, *Template, error) {
	for r.Position() < r.Len() {
		if tpl, err := tr.selectTemplate(r); err == nil {
			return r.Position(), tpl, nil
		}
		// Advance exactly one byte and retry.
		if _, err := r.ReadUint(8, binary.BigEndian); err != nil {
			break
		}
	}
	return -1, nil, ErrNoTemplate{}
}
