package refs

import "time"

// ObjectID is an opaque content hash identifying an object in the ODB. It is
// compared bytewise and formatted as lowercase hex; the reference
// implementation uses 40 hex characters (a 20-byte hash), but this store
// treats the width as ODB-defined rather than hard-coding it, beyond the
// fixed-width parsing performed by the loose/packed codecs (§4.B/§4.C use
// ObjectIDLength for that).
type ObjectID string

// ObjectIDLength is the hex-encoded width of an ObjectID in the on-disk loose
// and packed formats.
const ObjectIDLength = 40

// Kind identifies whether a Reference is direct or symbolic.
type Kind uint8

const (
	// KindDirect means the reference stores an ObjectID directly.
	KindDirect Kind = iota
	// KindSymbolic means the reference names another reference.
	KindSymbolic
)

func (k Kind) String() string {
	if k == KindSymbolic {
		return "symbolic"
	}
	return "direct"
}

// Storage records which physical representation a Reference view was last
// read from.
type Storage uint8

const (
	// StorageLoose means the reference was read from its own loose file.
	StorageLoose Storage = iota
	// StoragePacked means the reference was read from the packed-refs cache.
	StoragePacked
)

func (s Storage) String() string {
	if s == StoragePacked {
		return "packed"
	}
	return "loose"
}

// Reference is a named pointer into the object database: either a direct
// reference to an ObjectID, or a symbolic reference naming another
// reference. A Symbolic reference always has Storage == StorageLoose, since
// the packed format has no symbolic representation.
type Reference struct {
	name    string
	kind    Kind
	oid     ObjectID
	target  string
	storage Storage
	modTime time.Time
	owner   *Repository
}

// Name returns the reference's canonical name.
func (r *Reference) Name() string { return r.name }

// Kind returns whether the reference is direct or symbolic.
func (r *Reference) Kind() Kind { return r.kind }

// DirectOID returns the reference's object id and true if it is direct, or
// the zero value and false if it is symbolic.
func (r *Reference) DirectOID() (ObjectID, bool) {
	if r.kind != KindDirect {
		return "", false
	}
	return r.oid, true
}

// SymbolicTarget returns the name this reference points to and true if it is
// symbolic, or the zero value and false if it is direct.
func (r *Reference) SymbolicTarget() (string, bool) {
	if r.kind != KindSymbolic {
		return "", false
	}
	return r.target, true
}

// IsPacked reports whether this view was last read from the packed-refs
// cache rather than a loose file.
func (r *Reference) IsPacked() bool { return r.storage == StoragePacked }

// ModTime returns the last-observed modification time of the underlying
// source (the loose file's mtime, or the packed file's mtime).
func (r *Reference) ModTime() time.Time { return r.modTime }

// Owner returns the repository that produced this reference. The relation is
// non-owning: the repository does not retain a handle to r.
func (r *Reference) Owner() *Repository { return r.owner }

func newDirectReference(owner *Repository, name string, oid ObjectID, storage Storage, modTime time.Time) *Reference {
	return &Reference{
		name:    name,
		kind:    KindDirect,
		oid:     oid,
		storage: storage,
		modTime: modTime,
		owner:   owner,
	}
}

func newSymbolicReference(owner *Repository, name, target string, modTime time.Time) *Reference {
	return &Reference{
		name:    name,
		kind:    KindSymbolic,
		target:  target,
		storage: StorageLoose,
		modTime: modTime,
		owner:   owner,
	}
}

// PackedEntryFlags records auxiliary bits about a PackedEntry.
type PackedEntryFlags uint8

const (
	// FlagHasPeel is set iff Peel is populated.
	FlagHasPeel PackedEntryFlags = 1 << iota
	// FlagWasLoose marks an entry migrated from a loose file during a
	// repack; it gates the post-repack unlink of that loose file.
	FlagWasLoose
)

// PackedEntry is a single record of the packed-refs aggregate file.
type PackedEntry struct {
	Name  string
	OID   ObjectID
	Peel  ObjectID
	Flags PackedEntryFlags
}

// HasPeel reports whether the entry carries a peeled tag target.
func (e PackedEntry) HasPeel() bool { return e.Flags&FlagHasPeel != 0 }

// WasLoose reports whether the entry was migrated from a loose file during
// the most recent repack.
func (e PackedEntry) WasLoose() bool { return e.Flags&FlagWasLoose != 0 }
