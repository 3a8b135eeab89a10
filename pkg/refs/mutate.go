package refs

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// looseIsDir reports whether name exists in the loose tree as a directory
// (i.e. some reference lives beneath it), as opposed to a regular file.
func looseIsDir(root, name string) bool {
	info, err := os.Lstat(loosePath(root, name))
	return err == nil && info.IsDir()
}

// isAvailable implements the availability check shared by create (with
// ignoreName == "") and rename step 2 (with ignoreName == the ref being
// renamed, so its own prior occupancy of name doesn't count against it):
// no other reference may already be named name, nor may any other
// reference's name be a strict '/'-prefix ancestor or descendant of name.
// For a create, any loose directory at name counts as occupied, even an
// empty one.
func isAvailable(repo *Repository, name, ignoreName string) (bool, error) {
	if name != ignoreName {
		occupied, err := exists(repo, repo.root, name)
		if err != nil {
			return false, err
		}
		if occupied {
			return false, nil
		}
	}

	if looseIsDir(repo.root, name) {
		if ignoreName == "" {
			return false, nil
		}
		occupied := false
		err := walkLooseSubtree(repo.root, loosePath(repo.root, name), func(n string) error {
			if n != ignoreName {
				occupied = true
			}
			return nil
		})
		if err != nil {
			return false, err
		}
		if occupied {
			return false, nil
		}
	}

	if err := repo.packed.ensureLoaded(repo.root); err != nil {
		return false, err
	}
	descendantPrefix := name + "/"
	for n := range repo.packed.entries {
		if n == ignoreName {
			continue
		}
		if strings.HasPrefix(n, descendantPrefix) {
			return false, nil
		}
	}

	parts := strings.Split(name, "/")
	for i := 1; i < len(parts); i++ {
		ancestor := strings.Join(parts[:i], "/")
		if ancestor == ignoreName {
			continue
		}
		if looseExists(repo.root, ancestor) {
			return false, nil
		}
		if _, ok := repo.packed.lookup(ancestor); ok {
			return false, nil
		}
	}

	return true, nil
}

// createDirect implements §4.G create_direct.
func createDirect(repo *Repository, name string, oid ObjectID, force bool) (*Reference, error) {
	canonical, err := normalizeWithPrefix(name, true, repo.refsPrefix)
	if err != nil {
		return nil, err
	}

	if !force {
		available, err := isAvailable(repo, canonical, "")
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, errors.Wrapf(ErrAlreadyExists, "%s", canonical)
		}
	}

	if repo.odb != nil && !repo.odb.Exists(oid) {
		return nil, errors.Wrapf(ErrNonexistentTarget, "%s", oid)
	}

	ref := newDirectReference(repo, canonical, oid, StorageLoose, time.Now())
	ctx, cancel := repo.lockContext()
	defer cancel()
	modTime, err := writeLoose(ctx, repo.root, ref, repo.logger)
	if err != nil {
		return nil, err
	}
	ref.modTime = modTime
	return ref, nil
}

// createSymbolic implements §4.G create_symbolic. target is normalized in
// indirect mode (is_direct = false) and is not required to currently
// exist.
func createSymbolic(repo *Repository, name, target string, force bool) (*Reference, error) {
	canonical, err := normalizeWithPrefix(name, true, repo.refsPrefix)
	if err != nil {
		return nil, err
	}
	canonicalTarget, err := normalizeWithPrefix(target, false, repo.refsPrefix)
	if err != nil {
		return nil, err
	}

	if !force {
		available, err := isAvailable(repo, canonical, "")
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, errors.Wrapf(ErrAlreadyExists, "%s", canonical)
		}
	}

	ref := newSymbolicReference(repo, canonical, canonicalTarget, time.Now())
	ctx, cancel := repo.lockContext()
	defer cancel()
	modTime, err := writeLoose(ctx, repo.root, ref, repo.logger)
	if err != nil {
		return nil, err
	}
	ref.modTime = modTime
	return ref, nil
}

// setOID implements §4.G set_oid. A reference that was Packed becomes
// effectively Loose (the packed copy is shadowed by invariant #1); no
// implicit repack is triggered.
func setOID(repo *Repository, ref *Reference, oid ObjectID) error {
	if ref.kind != KindDirect {
		return errors.Wrapf(ErrKindMismatch, "%s is not a direct reference", ref.name)
	}
	if repo.odb != nil && !repo.odb.Exists(oid) {
		return errors.Wrapf(ErrNonexistentTarget, "%s", oid)
	}

	previous := ref.oid
	ref.oid = oid

	ctx, cancel := repo.lockContext()
	defer cancel()
	modTime, err := writeLoose(ctx, repo.root, ref, repo.logger)
	if err != nil {
		ref.oid = previous
		return err
	}
	ref.modTime = modTime
	ref.storage = StorageLoose
	return nil
}

// setTarget implements §4.G set_target.
func setTarget(repo *Repository, ref *Reference, target string) error {
	if ref.kind != KindSymbolic {
		return errors.Wrapf(ErrKindMismatch, "%s is not a symbolic reference", ref.name)
	}
	canonical, err := normalizeWithPrefix(target, false, repo.refsPrefix)
	if err != nil {
		return err
	}

	previous := ref.target
	ref.target = canonical

	ctx, cancel := repo.lockContext()
	defer cancel()
	modTime, err := writeLoose(ctx, repo.root, ref, repo.logger)
	if err != nil {
		ref.target = previous
		return err
	}
	ref.modTime = modTime
	return nil
}

// deleteReference implements §4.G delete. A packed reference is removed
// from the cache and the packed file rewritten; a loose reference is
// unlinked and then, if a packed entry of the same name still exists, that
// is recursively removed too, preserving invariant #1.
func deleteReference(repo *Repository, ref *Reference) error {
	if ref.storage == StoragePacked {
		if err := repo.packed.ensureLoaded(repo.root); err != nil {
			return err
		}
		if !repo.packed.delete(ref.name) {
			return errors.Wrapf(ErrNotFound, "%s", ref.name)
		}
		ctx, cancel := repo.lockContext()
		defer cancel()
		return repo.packed.commit(ctx, repo.root, repo.odb, repo.logger)
	}

	if err := removeLoose(repo.root, ref.name); err != nil {
		return err
	}

	if err := repo.packed.ensureLoaded(repo.root); err != nil {
		return err
	}
	if repo.packed.has(ref.name) {
		shadow := &Reference{name: ref.name, storage: StoragePacked, owner: repo}
		return deleteReference(repo, shadow)
	}
	return nil
}

// renameReference implements §4.G rename.
func renameReference(repo *Repository, ref *Reference, newName string, force bool) error {
	canonical, err := normalizeWithPrefix(newName, true, repo.refsPrefix)
	if err != nil {
		return err
	}

	available, err := isAvailable(repo, canonical, ref.name)
	if err != nil {
		return err
	}
	if !available && !force {
		return errors.Wrapf(ErrAlreadyExists, "%s", canonical)
	}

	destPath := loosePath(repo.root, canonical)
	if info, statErr := os.Lstat(destPath); statErr == nil {
		if info.IsDir() {
			if err := os.RemoveAll(destPath); err != nil {
				return errors.Wrapf(err, "unable to remove existing directory at %s", canonical)
			}
		} else {
			return errors.Wrapf(ErrAlreadyExists, "destination %s exists as a file", canonical)
		}
	} else if !os.IsNotExist(statErr) {
		return errors.Wrapf(statErr, "unable to stat destination %s", canonical)
	}

	oldName := ref.name
	original := *ref

	if err := deleteReference(repo, ref); err != nil {
		return err
	}

	newRef, err := recreateMirroring(repo, &original, canonical)
	if err != nil {
		if _, rollbackErr := recreateMirroring(repo, &original, oldName); rollbackErr != nil {
			repo.logger.Warnf("rename rollback of %s failed: %s", oldName, rollbackErr.Error())
		}
		return err
	}

	if headRef, headErr := lookup(repo, repo.root, HEAD); headErr == nil {
		if target, ok := headRef.SymbolicTarget(); ok && target == oldName {
			if err := setTarget(repo, headRef, canonical); err != nil {
				repo.logger.Warnf("unable to update HEAD after renaming %s to %s: %s", oldName, canonical, err.Error())
			}
		}
	}

	if repo.reflog != nil {
		if err := repo.reflog.Rename(oldName, canonical); err != nil {
			repo.logger.Warnf("unable to rename reflog for %s to %s: %s", oldName, canonical, err.Error())
		}
	}

	ref.name = canonical
	ref.oid = newRef.oid
	ref.target = newRef.target
	ref.storage = StorageLoose
	ref.modTime = newRef.modTime
	return nil
}

// recreateMirroring creates a reference at name with the same kind and
// oid/target as original, forcing past any availability check — used for
// both the rename's new-location create (step 5) and its best-effort
// rollback recreate (§9: "a best-effort recreate with original
// attributes").
func recreateMirroring(repo *Repository, original *Reference, name string) (*Reference, error) {
	switch original.kind {
	case KindDirect:
		return createDirect(repo, name, original.oid, true)
	case KindSymbolic:
		return createSymbolic(repo, name, original.target, true)
	default:
		return nil, errors.Errorf("reference %s has unknown kind", original.name)
	}
}

// packall implements §4.G packall.
func packall(repo *Repository) error {
	if err := repo.packed.ensureLoaded(repo.root); err != nil {
		return err
	}
	if err := loadLooseForRepack(repo, repo.root, repo.packed); err != nil {
		return err
	}

	ctx, cancel := repo.lockContext()
	defer cancel()
	if err := repo.packed.commit(ctx, repo.root, repo.odb, repo.logger); err != nil {
		return err
	}

	var firstErr error
	for _, entry := range repo.packed.all() {
		if !entry.WasLoose() {
			continue
		}
		if err := removeLoose(repo.root, entry.Name); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			repo.logger.Warnf("unable to unlink loose reference %s after repack: %s", entry.Name, err.Error())
			continue
		}
		cleared := entry
		cleared.Flags &^= FlagWasLoose
		repo.packed.set(cleared)
	}
	return firstErr
}
