// Package fakereflog provides an in-memory implementation of refs.Reflog
// for use in the reference store's own test suite, standing in for the
// real reflog this package deliberately doesn't implement (§1: out of
// scope, interface only).
package fakereflog

// Reflog is an in-memory refs.Reflog that just records renames it was
// asked to perform, for test assertions.
type Reflog struct {
	renames []Rename
}

// Rename records a single requested reflog rename.
type Rename struct {
	Old, New string
}

// New creates an empty fake reflog.
func New() *Reflog {
	return &Reflog{}
}

// Rename implements refs.Reflog.Rename: it treats a missing source reflog
// as a no-op (there's nothing to track existence of in this fake, so every
// call is recorded and succeeds).
func (r *Reflog) Rename(oldName, newName string) error {
	r.renames = append(r.renames, Rename{Old: oldName, New: newName})
	return nil
}

// Renames returns every rename recorded so far, in call order.
func (r *Reflog) Renames() []Rename {
	out := make([]Rename, len(r.renames))
	copy(out, r.renames)
	return out
}
