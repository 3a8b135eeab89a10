package refs

import (
	"context"
	"time"

	"github.com/mutagen-io/refstore/pkg/logging"
)

// DefaultLockTimeout is used when a Repository is constructed without an
// explicit lock-acquisition timeout (§11.C, §10.C). A zero timeout means
// "fail immediately on the first collision" rather than "wait forever".
const DefaultLockTimeout = 5 * time.Second

// Repository is the store facade (§4.H): a handle binding the name
// normalizer, loose/packed codecs, packed-ref cache, walker, and mutator to
// a single on-disk repository. It is stateless except for the PackedCache,
// which it owns and releases on Close. References returned to callers are
// independently owned; the Repository does not retain Reference handles.
type Repository struct {
	// root is the repository's reference root — the directory containing
	// refs/, packed-refs, HEAD, MERGE_HEAD, and FETCH_HEAD.
	root string
	// packed is the in-memory packed-ref cache (§4.D), lazily populated.
	packed *PackedCache
	// odb is the external object-database collaborator (§1).
	odb ODB
	// reflog is the external reflog collaborator (§1); nil disables
	// reflog-renaming during Rename.
	reflog Reflog
	// logger records best-effort cleanup failures; nil is safe.
	logger *logging.Logger
	// lockTimeout bounds how long a mutation will retry against a held
	// "<name>.lock" before giving up (§11.C). Zero means no retry.
	lockTimeout time.Duration
	// refsPrefix is the directory under which direct references must live
	// (§10.C refsRoot override); defaults to RefsPrefix.
	refsPrefix string
	// tagPrefix is the namespace eligible for packed-ref peel resolution
	// (§10.C tagPrefix override); defaults to tagsPrefix.
	tagPrefix string
	// packedRefsFileName is the name of the packed-refs aggregate file under
	// root (§10.C packedRefsFile override); defaults to packedFileName.
	packedRefsFileName string
}

// Option configures a Repository at construction time.
type Option func(*Repository)

// WithReflog supplies the reflog collaborator used by Rename.
func WithReflog(reflog Reflog) Option {
	return func(r *Repository) { r.reflog = reflog }
}

// WithLogger supplies the logger used for best-effort cleanup diagnostics.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// WithLockTimeout overrides DefaultLockTimeout.
func WithLockTimeout(timeout time.Duration) Option {
	return func(r *Repository) { r.lockTimeout = timeout }
}

// WithRefsPrefix overrides the directory under which direct references must
// live (§10.C refsRoot), in place of the package default RefsPrefix.
func WithRefsPrefix(prefix string) Option {
	return func(r *Repository) { r.refsPrefix = prefix }
}

// WithTagPrefix overrides the namespace eligible for packed-ref peel
// resolution (§10.C tagPrefix), in place of the package default.
func WithTagPrefix(prefix string) Option {
	return func(r *Repository) { r.tagPrefix = prefix }
}

// WithPackedRefsFileName overrides the packed-refs aggregate file's name
// (§10.C packedRefsFile), in place of the package default "packed-refs".
func WithPackedRefsFileName(name string) Option {
	return func(r *Repository) { r.packedRefsFileName = name }
}

// Open binds a Repository facade to the reference tree rooted at root,
// using odb to validate direct-reference targets and resolve tag peels.
func Open(root string, odb ODB, options ...Option) *Repository {
	repo := &Repository{
		root:               root,
		odb:                odb,
		lockTimeout:        DefaultLockTimeout,
		refsPrefix:         RefsPrefix,
		tagPrefix:          tagsPrefix,
		packedRefsFileName: packedFileName,
	}
	for _, option := range options {
		option(repo)
	}
	repo.packed = newPackedCache(repo.packedRefsFileName, repo.tagPrefix)
	return repo
}

// Close releases the Repository's owned state — the PackedCache — by
// dropping its entry map and marking it unloaded, per §4.H's ownership note.
func (repo *Repository) Close() {
	repo.packed.entries = nil
	repo.packed.loaded = false
}

// lockContext returns a context bounded by the repository's configured
// lock-acquisition timeout, or nil if none is configured (meaning a single
// immediate attempt).
func (repo *Repository) lockContext() (context.Context, context.CancelFunc) {
	if repo.lockTimeout <= 0 {
		return nil, func() {}
	}
	return context.WithTimeout(context.Background(), repo.lockTimeout)
}

// Normalize validates and canonicalizes name against the grammar (§4.A),
// honoring this Repository's configured refsPrefix (§10.C refsRoot).
func (repo *Repository) Normalize(name string, isDirect bool) (string, error) {
	return normalizeWithPrefix(name, isDirect, repo.refsPrefix)
}

// Lookup implements §4.F / §6 lookup: the name is validated and
// canonicalized in indirect mode (ErrInvalidName on failure), then looked
// up with loose-then-packed precedence, no symbolic resolution.
func (repo *Repository) Lookup(name string) (*Reference, error) {
	canonical, err := normalizeWithPrefix(name, false, repo.refsPrefix)
	if err != nil {
		return nil, err
	}
	return lookup(repo, repo.root, canonical)
}

// Resolve implements §4.F / §6 resolve: chase a symbolic chain to its
// terminal direct reference, bounded by MaxNesting.
func (repo *Repository) Resolve(ref *Reference) (*Reference, error) {
	return resolve(repo, repo.root, ref)
}

// Exists implements §4.F / §6 exists.
func (repo *Repository) Exists(name string) (bool, error) {
	return exists(repo, repo.root, name)
}

// Reload implements §6 reload: re-reads ref's underlying source if its
// mtime has advanced, mutating it in place (§4.B "Refresh-on-read"); a
// source whose mtime hasn't changed is left untouched. Packed references
// are refreshed by re-checking the packed cache.
func (repo *Repository) Reload(ref *Reference) error {
	return reloadReference(repo, repo.root, ref)
}

// Foreach implements §6 foreach: invoke cb with every logical reference
// name, loose-wins deduplicated, restricted by filter.
func (repo *Repository) Foreach(filter KindFilter, cb func(name string) error) error {
	return repo.listNames(filter, true, cb)
}

// ListAll implements §6 listall: collect every logical reference name
// admitted by filter.
func (repo *Repository) ListAll(filter KindFilter) ([]string, error) {
	var names []string
	err := repo.listNames(filter, true, func(name string) error {
		names = append(names, name)
		return nil
	})
	return names, err
}

// CreateDirect implements §4.G create_direct / §6 create_direct.
func (repo *Repository) CreateDirect(name string, oid ObjectID, force bool) (*Reference, error) {
	return createDirect(repo, name, oid, force)
}

// CreateSymbolic implements §4.G create_symbolic / §6 create_symbolic.
func (repo *Repository) CreateSymbolic(name, target string, force bool) (*Reference, error) {
	return createSymbolic(repo, name, target, force)
}

// SetOID implements §4.G set_oid / §6 set_oid.
func (repo *Repository) SetOID(ref *Reference, oid ObjectID) error {
	return setOID(repo, ref, oid)
}

// SetTarget implements §4.G set_target / §6 set_target.
func (repo *Repository) SetTarget(ref *Reference, target string) error {
	return setTarget(repo, ref, target)
}

// Delete implements §4.G delete / §6 delete.
func (repo *Repository) Delete(ref *Reference) error {
	return deleteReference(repo, ref)
}

// Rename implements §4.G rename / §6 rename.
func (repo *Repository) Rename(ref *Reference, newName string, force bool) error {
	return renameReference(repo, ref, newName, force)
}

// Packall implements §4.G packall / §6 packall.
func (repo *Repository) Packall() error {
	return packall(repo)
}
