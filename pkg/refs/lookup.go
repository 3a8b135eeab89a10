package refs

import (
	"os"

	"github.com/pkg/errors"
)

// MaxNesting bounds the depth of a symbolic reference chain that Resolve
// will follow before giving up with ErrTooNested (§3 invariant 5).
const MaxNesting = 5

// lookup implements §4.F lookup: loose-then-packed precedence. It performs
// no name validation itself: the public Lookup validates the caller's name
// before calling it, while Resolve's hop-by-hop chase uses it on target
// names as stored on disk (§9 "Name validation vs. use").
func lookup(repo *Repository, root, name string) (*Reference, error) {
	ref, err := readLoose(repo, root, name)
	if err == nil {
		return ref, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	if err := repo.packed.ensureLoaded(root); err != nil {
		return nil, err
	}
	entry, ok := repo.packed.lookup(name)
	if !ok {
		return nil, ErrNotFound
	}
	return newDirectReference(repo, entry.Name, entry.OID, StoragePacked, repo.packed.sourceTime), nil
}

// resolve implements §4.F resolve: follow a symbolic chain up to MaxNesting
// hops, performing a fresh lookup of the current target name at each hop.
// The Reference originally supplied by the caller is left untouched; only
// the terminal Direct reference (or an error) is returned.
func resolve(repo *Repository, root string, ref *Reference) (*Reference, error) {
	current := ref
	for hop := 0; hop < MaxNesting; hop++ {
		if current.kind == KindDirect {
			return current, nil
		}
		next, err := lookup(repo, root, current.target)
		if err != nil {
			return nil, err
		}
		current = next
	}
	if current.kind == KindDirect {
		return current, nil
	}
	return nil, ErrTooNested
}

// exists implements §4.F exists: true iff a loose file is present OR the
// name is in the freshly-loaded packed cache.
func exists(repo *Repository, root, name string) (bool, error) {
	if looseExists(root, name) {
		return true, nil
	}
	if err := repo.packed.ensureLoaded(root); err != nil {
		return false, err
	}
	return repo.packed.has(name), nil
}

// reloadReference implements §6 reload / §4.B "Refresh-on-read": a loose
// reference is conditionally re-read only if its file's mtime has advanced
// past ref's last-observed mtime; a packed reference is refreshed by
// re-checking the (freshness-gated) packed cache. Either way ref is mutated
// in place rather than replaced, matching the spec's "reparsed and mutated
// in place" wording.
func reloadReference(repo *Repository, root string, ref *Reference) error {
	if ref.storage == StorageLoose {
		path := loosePath(root, ref.name)
		modTime, err := packedStatTime(path)
		if err != nil {
			if os.IsNotExist(err) {
				return ErrNotFound
			}
			return errors.Wrapf(err, "unable to stat loose reference %s", ref.name)
		}
		if !modTime.After(ref.modTime) {
			return nil
		}
		fresh, err := readLoose(repo, root, ref.name)
		if err != nil {
			return err
		}
		*ref = *fresh
		return nil
	}

	if err := repo.packed.ensureLoaded(root); err != nil {
		return err
	}
	entry, ok := repo.packed.lookup(ref.name)
	if !ok {
		return ErrNotFound
	}
	ref.oid = entry.OID
	ref.modTime = repo.packed.sourceTime
	return nil
}
