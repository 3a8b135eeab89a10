// Package fakeodb provides an in-memory implementation of refs.ODB for use
// in the reference store's own test suite, standing in for the real
// content-addressed object database this package deliberately doesn't
// implement (§1: out of scope, interfaces only).
package fakeodb

import (
	"github.com/pkg/errors"

	"github.com/mutagen-io/refstore/pkg/refs"
)

// Object is a minimal fake ODB object: an id, a tag flag, and (for tag
// objects) the oid it directly points to.
type Object struct {
	OID      refs.ObjectID
	Tag      bool
	TagPoint refs.ObjectID
}

// ID implements refs.Object.ID.
func (o Object) ID() refs.ObjectID { return o.OID }

// IsTag implements refs.Object.IsTag.
func (o Object) IsTag() bool { return o.Tag }

// ODB is an in-memory refs.ODB, keyed by object id.
type ODB struct {
	objects map[refs.ObjectID]Object
}

// New creates an empty fake ODB.
func New() *ODB {
	return &ODB{objects: make(map[refs.ObjectID]Object)}
}

// AddCommit registers a plain (non-tag) object with the given id, as a
// stand-in for a commit, tree, or blob.
func (o *ODB) AddCommit(oid refs.ObjectID) {
	o.objects[oid] = Object{OID: oid}
}

// AddTag registers a tag object with the given id, pointing directly at
// target.
func (o *ODB) AddTag(oid, target refs.ObjectID) {
	o.objects[oid] = Object{OID: oid, Tag: true, TagPoint: target}
}

// Exists implements refs.ODB.Exists.
func (o *ODB) Exists(oid refs.ObjectID) bool {
	_, ok := o.objects[oid]
	return ok
}

// Lookup implements refs.ODB.Lookup.
func (o *ODB) Lookup(oid refs.ObjectID) (refs.Object, error) {
	obj, ok := o.objects[oid]
	if !ok {
		return nil, errors.Errorf("object %s not found", oid)
	}
	return obj, nil
}

// TagTarget implements refs.ODB.TagTarget.
func (o *ODB) TagTarget(tag refs.Object) (refs.ObjectID, error) {
	obj, ok := tag.(Object)
	if !ok {
		return "", errors.New("object is not a fakeodb.Object")
	}
	if !obj.Tag {
		return "", errors.Errorf("object %s is not a tag", obj.OID)
	}
	return obj.TagPoint, nil
}
