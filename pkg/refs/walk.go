package refs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mutagen-io/refstore/pkg/filesystem"
)

// wellKnownNames are the top-level loose-only references considered during
// enumeration alongside the refs/ subtree.
var wellKnownNames = []string{HEAD, MergeHead, FetchHead}

// visitFunc is the callback contract for directory-walker enumeration:
// visit(relative_name).
type visitFunc func(name string) error

// walkLoose recursively enumerates every loose reference file under root,
// invoking visit with each reference's canonical (slash-separated) name.
// Directories, the packed-refs file itself, and ".lock" siblings are
// skipped; they are not references. refsPrefix is the configured (§10.C)
// subtree walked alongside the well-known top-level names; HEAD,
// MERGE_HEAD, and FETCH_HEAD live directly at the repository root, outside
// refsPrefix, so they're visited as single files rather than walked.
func walkLoose(root, refsPrefix string, visit visitFunc) error {
	base := filepath.Join(root, filepath.FromSlash(refsPrefix))
	if err := walkLooseSubtree(root, base, visit); err != nil {
		return err
	}
	for _, name := range wellKnownNames {
		if looseExists(root, name) {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func walkLooseSubtree(root, base string, visit visitFunc) error {
	return filesystem.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return errors.Wrapf(err, "unable to walk %s", path)
		}
		if info == nil || info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, lockSuffix) {
			return nil
		}

		relative, err := filepath.Rel(root, path)
		if err != nil {
			return errors.Wrapf(err, "unable to compute relative path for %s", path)
		}
		return visit(filepath.ToSlash(relative))
	})
}

// KindFilter restricts enumeration to direct or symbolic references, or
// admits both.
type KindFilter uint8

const (
	// KindFilterAll admits both direct and symbolic references.
	KindFilterAll KindFilter = iota
	// KindFilterDirect admits only direct references.
	KindFilterDirect
	// KindFilterSymbolic admits only symbolic references.
	KindFilterSymbolic
)

func (f KindFilter) admits(kind Kind) bool {
	switch f {
	case KindFilterDirect:
		return kind == KindDirect
	case KindFilterSymbolic:
		return kind == KindSymbolic
	default:
		return true
	}
}

// listNames enumerates every logical reference name under the repository
// exactly once (§4.E list mode): loose names are emitted directly,
// suppressing any name also present in the packed cache (the loose copy
// still wins per invariant #1, but the callback only sees it once);
// packed-only names are then emitted for whatever the loose walk didn't
// already cover. filter, if not KindFilterAll, probes the first bytes of
// each loose file to restrict by kind; packed entries are always direct,
// so they're skipped entirely under KindFilterSymbolic.
func (repo *Repository) listNames(filter KindFilter, includePacked bool, visit visitFunc) error {
	seen := make(map[string]bool)

	err := walkLoose(repo.root, repo.refsPrefix, func(name string) error {
		seen[name] = true
		if filter != KindFilterAll {
			ref, err := readLoose(repo, repo.root, name)
			if err != nil {
				return nil
			}
			if !filter.admits(ref.kind) {
				return nil
			}
		}
		return visit(name)
	})
	if err != nil {
		return err
	}

	if !includePacked {
		return nil
	}
	if filter == KindFilterSymbolic {
		return nil
	}
	if err := repo.packed.ensureLoaded(repo.root); err != nil {
		return err
	}
	for _, entry := range repo.packed.all() {
		if seen[entry.Name] {
			continue
		}
		if err := visit(entry.Name); err != nil {
			return err
		}
	}
	return nil
}

// loadLooseForRepack walks the loose tree in load mode (§4.E): every direct
// loose reference is parsed and inserted into cache as a PackedEntry marked
// WasLoose, overwriting any prior packed entry of the same name. Symbolic
// loose references are silently skipped — they have no packed
// representation (§3 invariant).
func loadLooseForRepack(repo *Repository, root string, cache *PackedCache) error {
	return walkLoose(root, repo.refsPrefix, func(name string) error {
		ref, err := readLoose(repo, root, name)
		if err != nil {
			return nil
		}
		if ref.kind != KindDirect {
			return nil
		}
		cache.set(PackedEntry{
			Name:  name,
			OID:   ref.oid,
			Flags: FlagWasLoose,
		})
		return nil
	})
}
