package refs

// Object is the minimal view the reference store needs of an ODB object: its
// own id and, for tag objects, the id it directly points to.
type Object interface {
	// ID returns the object's own content hash.
	ID() ObjectID
	// IsTag reports whether this object is a tag object (as opposed to a
	// commit, tree, or blob).
	IsTag() bool
}

// ODB is the external object-database collaborator this store depends on but
// does not implement. It is supplied by the enclosing repository.
type ODB interface {
	// Exists reports whether an object with the given id is present.
	Exists(oid ObjectID) bool
	// Lookup retrieves the object with the given id.
	Lookup(oid ObjectID) (Object, error)
	// TagTarget returns the oid a tag object directly points to, used by the
	// packed-ref codec's peel resolution (§4.C).
	TagTarget(tag Object) (ObjectID, error)
}
