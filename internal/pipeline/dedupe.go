package pipeline

import (
	"github.com/doutora-ia/questbank-cli/internal/model"
)

// Deduplicator collapses records with identical content fingerprints across
// an entire import run. It is owned by one run and holds unsynchronized
// state: admission must stay single-threaded (fold parallel per-source work
// into it sequentially).
type Deduplicator struct {
	seen       map[string]model.QuestionRecord
	order      []string
	duplicates int
}

// NewDeduplicator returns an empty run-scoped deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]model.QuestionRecord)}
}

// Admit stores the record if its fingerprint is unseen and reports whether
// it was admitted. First-seen wins: a later duplicate is dropped even when
// it carries a resolved answer the first occurrence lacks.
func (d *Deduplicator) Admit(rec model.QuestionRecord) bool {
	if _, ok := d.seen[rec.ContentHash]; ok {
		d.duplicates++
		return false
	}
	d.seen[rec.ContentHash] = rec
	d.order = append(d.order, rec.ContentHash)
	return true
}

// Records returns the admitted records in admission order.
func (d *Deduplicator) Records() []model.QuestionRecord {
	out := make([]model.QuestionRecord, 0, len(d.order))
	for _, hash := range d.order {
		out = append(out, d.seen[hash])
	}
	return out
}

// Unique returns how many records were admitted.
func (d *Deduplicator) Unique() int {
	return len(d.order)
}

// Duplicates returns how many incoming records were dropped as duplicates.
func (d *Deduplicator) Duplicates() int {
	return d.duplicates
}
