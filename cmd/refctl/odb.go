package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mutagen-io/refstore/pkg/refs"
)

// fsObject is a minimal on-disk stand-in for an ODB object record, used
// only by refctl's own --odb-dir flag. The real object database is
// explicitly out of this subsystem's scope (§1): this is a CLI-level
// convenience for exercising create/set/packall against a directory of
// marker files rather than a real content-addressed store.
type fsObject struct {
	oid    refs.ObjectID
	isTag  bool
	target refs.ObjectID
}

// ID implements refs.Object.ID.
func (o fsObject) ID() refs.ObjectID { return o.oid }

// IsTag implements refs.Object.IsTag.
func (o fsObject) IsTag() bool { return o.isTag }

// fsODB implements refs.ODB by reading one marker file per object id from
// a directory. A file's content is either empty (a plain commit/tree/blob
// object) or "tag <oid>\n" naming the tag's direct target.
type fsODB struct {
	dir string
}

// newFSODB returns a refs.ODB rooted at dir, or nil if dir is empty
// (meaning the caller didn't pass --odb-dir and target validation should
// be skipped).
func newFSODB(dir string) refs.ODB {
	if dir == "" {
		return nil
	}
	return &fsODB{dir: dir}
}

func (o *fsODB) path(oid refs.ObjectID) string {
	return filepath.Join(o.dir, string(oid))
}

// Exists implements refs.ODB.Exists.
func (o *fsODB) Exists(oid refs.ObjectID) bool {
	_, err := os.Stat(o.path(oid))
	return err == nil
}

// Lookup implements refs.ODB.Lookup.
func (o *fsODB) Lookup(oid refs.ObjectID) (refs.Object, error) {
	data, err := os.ReadFile(o.path(oid))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read object %s", oid)
	}
	content := strings.TrimSpace(string(data))
	if target, ok := strings.CutPrefix(content, "tag "); ok {
		return fsObject{oid: oid, isTag: true, target: refs.ObjectID(strings.TrimSpace(target))}, nil
	}
	return fsObject{oid: oid}, nil
}

// TagTarget implements refs.ODB.TagTarget.
func (o *fsODB) TagTarget(tag refs.Object) (refs.ObjectID, error) {
	obj, ok := tag.(fsObject)
	if !ok || !obj.isTag {
		return "", errors.Errorf("object %s is not a tag", tag.ID())
	}
	return obj.target, nil
}
