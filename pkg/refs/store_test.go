package refs_test

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mutagen-io/refstore/pkg/refs"
	"github.com/mutagen-io/refstore/pkg/refs/fakeodb"
	"github.com/mutagen-io/refstore/pkg/refs/fakereflog"
)

func oid(b byte) refs.ObjectID {
	hex := "0123456789abcdef"
	digits := make([]byte, refs.ObjectIDLength)
	for i := range digits {
		digits[i] = hex[int(b)%16]
	}
	return refs.ObjectID(digits)
}

// TestCreateAndLookupDirect covers scenario 1: create_direct followed by
// lookup returns the same oid, and the loose file holds the raw hex oid.
func TestCreateAndLookupDirect(t *testing.T) {
	root := t.TempDir()
	db := fakeodb.New()
	db.AddCommit(oid(1))
	repo := refs.Open(root, db)
	defer repo.Close()

	if _, err := repo.CreateDirect("refs/heads/main", oid(1), false); err != nil {
		t.Fatalf("create_direct failed: %v", err)
	}

	ref, err := repo.Lookup("refs/heads/main")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got, _ := ref.DirectOID(); got != oid(1) {
		t.Fatalf("oid mismatch: got %s, expected %s", got, oid(1))
	}

	data, err := os.ReadFile(filepath.Join(root, "refs", "heads", "main"))
	if err != nil {
		t.Fatalf("unable to read loose file: %v", err)
	}
	if string(data) != string(oid(1))+"\n" {
		t.Fatalf("unexpected loose file contents: %q", data)
	}
}

// TestSymbolicChainResolves covers scenario 2: a one-hop symbolic chain
// resolves to the terminal direct reference's oid.
func TestSymbolicChainResolves(t *testing.T) {
	root := t.TempDir()
	db := fakeodb.New()
	db.AddCommit(oid(2))
	repo := refs.Open(root, db)
	defer repo.Close()

	if _, err := repo.CreateDirect("refs/heads/main", oid(2), false); err != nil {
		t.Fatalf("create_direct failed: %v", err)
	}
	if _, err := repo.CreateSymbolic("HEAD", "refs/heads/main", false); err != nil {
		t.Fatalf("create_symbolic failed: %v", err)
	}

	head, err := repo.Lookup("HEAD")
	if err != nil {
		t.Fatalf("lookup HEAD failed: %v", err)
	}
	resolved, err := repo.Resolve(head)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got, _ := resolved.DirectOID(); got != oid(2) {
		t.Fatalf("resolved oid mismatch: got %s, expected %s", got, oid(2))
	}
}

// TestTooNestedChainFails covers scenario 3: a 6-hop symbolic chain (a → b →
// c → d → e → f → g, with g direct) exceeds MaxNesting and fails.
func TestTooNestedChainFails(t *testing.T) {
	root := t.TempDir()
	db := fakeodb.New()
	db.AddCommit(oid(3))
	repo := refs.Open(root, db)
	defer repo.Close()

	if _, err := repo.CreateDirect("refs/heads/g", oid(3), false); err != nil {
		t.Fatalf("create_direct failed: %v", err)
	}
	chain := []string{"a", "b", "c", "d", "e", "f", "g"}
	for i := 0; i < len(chain)-1; i++ {
		name := "refs/heads/" + chain[i]
		target := "refs/heads/" + chain[i+1]
		if _, err := repo.CreateSymbolic(name, target, false); err != nil {
			t.Fatalf("create_symbolic(%s, %s) failed: %v", name, target, err)
		}
	}

	a, err := repo.Lookup("refs/heads/a")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if _, err := repo.Resolve(a); err != refs.ErrTooNested {
		t.Fatalf("expected ErrTooNested, got %v", err)
	}
}

// TestFiveHopChainResolves is the boundary complement of scenario 3: a
// 5-hop chain (at MaxNesting) still resolves successfully.
func TestFiveHopChainResolves(t *testing.T) {
	root := t.TempDir()
	db := fakeodb.New()
	db.AddCommit(oid(9))
	repo := refs.Open(root, db)
	defer repo.Close()

	if _, err := repo.CreateDirect("refs/heads/f", oid(9), false); err != nil {
		t.Fatalf("create_direct failed: %v", err)
	}
	chain := []string{"a", "b", "c", "d", "e", "f"}
	for i := 0; i < len(chain)-1; i++ {
		name := "refs/heads/" + chain[i]
		target := "refs/heads/" + chain[i+1]
		if _, err := repo.CreateSymbolic(name, target, false); err != nil {
			t.Fatalf("create_symbolic(%s, %s) failed: %v", name, target, err)
		}
	}

	a, err := repo.Lookup("refs/heads/a")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	resolved, err := repo.Resolve(a)
	if err != nil {
		t.Fatalf("5-hop chain unexpectedly failed to resolve: %v", err)
	}
	if got, _ := resolved.DirectOID(); got != oid(9) {
		t.Fatalf("resolved oid mismatch: got %s, expected %s", got, oid(9))
	}
}

// TestPackallRoundTrip covers scenario 4: packall migrates three loose
// direct refs and one loose tag into packed-refs and unlinks the
// now-redundant loose files. It checks the packed lookups, not the peel
// line or the packed-refs bytes.
func TestPackallRoundTrip(t *testing.T) {
	root := t.TempDir()
	db := fakeodb.New()
	db.AddCommit(oid(0x58)) // X
	db.AddCommit(oid(0x59)) // Y
	db.AddCommit(oid(0x5a)) // Z
	db.AddCommit(oid(0x43)) // C
	db.AddTag(oid(0x54), oid(0x43)) // T -> C
	repo := refs.Open(root, db)
	defer repo.Close()

	if _, err := repo.CreateDirect("refs/heads/x", oid(0x58), false); err != nil {
		t.Fatalf("create x failed: %v", err)
	}
	if _, err := repo.CreateDirect("refs/heads/y", oid(0x59), false); err != nil {
		t.Fatalf("create y failed: %v", err)
	}
	if _, err := repo.CreateDirect("refs/heads/z", oid(0x5a), false); err != nil {
		t.Fatalf("create z failed: %v", err)
	}
	if _, err := repo.CreateDirect("refs/tags/v1", oid(0x54), false); err != nil {
		t.Fatalf("create tag failed: %v", err)
	}

	if err := repo.Packall(); err != nil {
		t.Fatalf("packall failed: %v", err)
	}

	for _, name := range []string{"refs/heads/x", "refs/heads/y", "refs/heads/z", "refs/tags/v1"} {
		if _, err := os.Lstat(filepath.Join(root, filepath.FromSlash(name))); !os.IsNotExist(err) {
			t.Fatalf("loose file %s was not removed by packall: %v", name, err)
		}
	}

	for name, expected := range map[string]refs.ObjectID{
		"refs/heads/x": oid(0x58),
		"refs/heads/y": oid(0x59),
		"refs/heads/z": oid(0x5a),
		"refs/tags/v1": oid(0x54),
	} {
		ref, err := repo.Lookup(name)
		if err != nil {
			t.Fatalf("lookup(%s) failed: %v", name, err)
		}
		if !ref.IsPacked() {
			t.Fatalf("%s was not packed after packall", name)
		}
		if got, _ := ref.DirectOID(); got != expected {
			t.Fatalf("%s oid mismatch: got %s, expected %s", name, got, expected)
		}
	}
}

// TestLooseWinsPrecedence covers scenario 5: a name present in both packed
// and loose form resolves to the loose oid, and delete removes the loose
// copy then detects and removes the shadowed packed copy.
func TestLooseWinsPrecedence(t *testing.T) {
	root := t.TempDir()
	db := fakeodb.New()
	db.AddCommit(oid(0xaa))
	db.AddCommit(oid(0xbb))
	repo := refs.Open(root, db)
	defer repo.Close()

	if _, err := repo.CreateDirect("refs/heads/x", oid(0xaa), false); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Packall(); err != nil {
		t.Fatalf("packall failed: %v", err)
	}

	// Recreate refs/heads/x loose with a different oid, shadowing the
	// packed copy (force=true since the name now resolves to the packed
	// entry, which isAvailable would otherwise treat as occupied).
	if _, err := repo.CreateDirect("refs/heads/x", oid(0xbb), true); err != nil {
		t.Fatalf("shadowing create failed: %v", err)
	}

	ref, err := repo.Lookup("refs/heads/x")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if ref.IsPacked() {
		t.Fatal("loose copy did not take precedence over the packed copy")
	}
	if got, _ := ref.DirectOID(); got != oid(0xbb) {
		t.Fatalf("oid mismatch: got %s, expected %s", got, oid(0xbb))
	}

	if err := repo.Delete(ref); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Lookup("refs/heads/x"); err != refs.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

// TestRenameFollowsHEAD covers scenario 6: renaming the branch HEAD points
// at updates HEAD's symbolic target along with moving the loose file.
func TestRenameFollowsHEAD(t *testing.T) {
	root := t.TempDir()
	db := fakeodb.New()
	db.AddCommit(oid(0x51))
	reflog := fakereflog.New()
	repo := refs.Open(root, db, refs.WithReflog(reflog))
	defer repo.Close()

	if _, err := repo.CreateDirect("refs/heads/main", oid(0x51), false); err != nil {
		t.Fatalf("create_direct failed: %v", err)
	}
	if _, err := repo.CreateSymbolic("HEAD", "refs/heads/main", false); err != nil {
		t.Fatalf("create_symbolic failed: %v", err)
	}

	main, err := repo.Lookup("refs/heads/main")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if err := repo.Rename(main, "refs/heads/trunk", false); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	if _, err := os.Lstat(filepath.Join(root, "refs", "heads", "main")); !os.IsNotExist(err) {
		t.Fatalf("old file still exists: %v", err)
	}
	trunk, err := repo.Lookup("refs/heads/trunk")
	if err != nil {
		t.Fatalf("lookup of new name failed: %v", err)
	}
	if got, _ := trunk.DirectOID(); got != oid(0x51) {
		t.Fatalf("renamed oid mismatch: got %s, expected %s", got, oid(0x51))
	}

	head, err := repo.Lookup("HEAD")
	if err != nil {
		t.Fatalf("lookup HEAD failed: %v", err)
	}
	if target, _ := head.SymbolicTarget(); target != "refs/heads/trunk" {
		t.Fatalf("HEAD was not updated to follow the rename: %q", target)
	}

	if renames := reflog.Renames(); len(renames) != 1 || renames[0].Old != "refs/heads/main" || renames[0].New != "refs/heads/trunk" {
		t.Fatalf("reflog rename was not recorded as expected: %+v", renames)
	}
}

// TestConflictingNamespace covers scenario 7: creating a direct reference
// at a name that is a strict prefix-ancestor of an existing reference fails
// with ErrAlreadyExists.
func TestConflictingNamespace(t *testing.T) {
	root := t.TempDir()
	db := fakeodb.New()
	db.AddCommit(oid(0x7f))
	repo := refs.Open(root, db)
	defer repo.Close()

	if _, err := repo.CreateDirect("refs/heads/topic/feature", oid(0x7f), false); err != nil {
		t.Fatalf("create_direct failed: %v", err)
	}
	if _, err := repo.CreateDirect("refs/heads/topic", oid(0x7f), false); !errors.Is(err, refs.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

// TestCreateRejectsNonexistentTarget tests that create_direct is rejected
// when the ODB doesn't know the supplied oid.
func TestCreateRejectsNonexistentTarget(t *testing.T) {
	root := t.TempDir()
	repo := refs.Open(root, fakeodb.New())
	defer repo.Close()

	if _, err := repo.CreateDirect("refs/heads/main", oid(0x99), false); !errors.Is(err, refs.ErrNonexistentTarget) {
		t.Fatalf("expected ErrNonexistentTarget, got %v", err)
	}
}

// TestSetOIDRejectsSymbolic tests that set_oid refuses a symbolic
// reference.
func TestSetOIDRejectsSymbolic(t *testing.T) {
	root := t.TempDir()
	db := fakeodb.New()
	db.AddCommit(oid(1))
	repo := refs.Open(root, db)
	defer repo.Close()

	if _, err := repo.CreateDirect("refs/heads/main", oid(1), false); err != nil {
		t.Fatalf("create_direct failed: %v", err)
	}
	if _, err := repo.CreateSymbolic("HEAD", "refs/heads/main", false); err != nil {
		t.Fatalf("create_symbolic failed: %v", err)
	}

	head, err := repo.Lookup("HEAD")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if err := repo.SetOID(head, oid(1)); !errors.Is(err, refs.ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
}

// TestExistsAndDeleteLoose tests the exists/delete round trip for a plain
// loose reference.
func TestExistsAndDeleteLoose(t *testing.T) {
	root := t.TempDir()
	db := fakeodb.New()
	db.AddCommit(oid(4))
	repo := refs.Open(root, db)
	defer repo.Close()

	if exists, err := repo.Exists("refs/heads/main"); err != nil || exists {
		t.Fatalf("reference unexpectedly reported as existing before creation: exists=%v err=%v", exists, err)
	}

	ref, err := repo.CreateDirect("refs/heads/main", oid(4), false)
	if err != nil {
		t.Fatalf("create_direct failed: %v", err)
	}
	if exists, err := repo.Exists("refs/heads/main"); err != nil || !exists {
		t.Fatalf("reference unexpectedly missing after creation: exists=%v err=%v", exists, err)
	}

	if err := repo.Delete(ref); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if exists, err := repo.Exists("refs/heads/main"); err != nil || exists {
		t.Fatalf("reference unexpectedly still exists after delete: exists=%v err=%v", exists, err)
	}
}

// TestListAllDeduplicatesLooseAndPacked tests that ListAll emits each
// logical name exactly once even when a name is shadowed loose-over-packed.
func TestListAllDeduplicatesLooseAndPacked(t *testing.T) {
	root := t.TempDir()
	db := fakeodb.New()
	db.AddCommit(oid(5))
	db.AddCommit(oid(6))
	repo := refs.Open(root, db)
	defer repo.Close()

	if _, err := repo.CreateDirect("refs/heads/main", oid(5), false); err != nil {
		t.Fatalf("create main failed: %v", err)
	}
	if _, err := repo.CreateDirect("refs/heads/side", oid(6), false); err != nil {
		t.Fatalf("create side failed: %v", err)
	}
	if err := repo.Packall(); err != nil {
		t.Fatalf("packall failed: %v", err)
	}
	if _, err := repo.CreateDirect("refs/heads/main", oid(5), true); err != nil {
		t.Fatalf("re-creating main loose failed: %v", err)
	}

	names, err := repo.ListAll(refs.KindFilterAll)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	sort.Strings(names)
	expected := []string{"refs/heads/main", "refs/heads/side"}
	if diff := cmp.Diff(expected, names); diff != "" {
		t.Fatalf("ListAll result mismatch (-expected +got):\n%s", diff)
	}
}

// TestWithRefsPrefixOverridesRoot tests that a Repository opened with
// WithRefsPrefix enforces and walks a configured root other than "refs/".
func TestWithRefsPrefixOverridesRoot(t *testing.T) {
	root := t.TempDir()
	db := fakeodb.New()
	db.AddCommit(oid(7))
	repo := refs.Open(root, db, refs.WithRefsPrefix("heads/"))
	defer repo.Close()

	if _, err := repo.CreateDirect("heads/main", oid(7), false); err != nil {
		t.Fatalf("create_direct under configured root failed: %v", err)
	}
	if _, err := os.Lstat(filepath.Join(root, "heads", "main")); err != nil {
		t.Fatalf("loose file was not written under the configured root: %v", err)
	}

	if _, err := repo.CreateDirect("refs/heads/main", oid(7), false); !errors.Is(err, refs.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName for a name outside the configured root, got %v", err)
	}

	names, err := repo.ListAll(refs.KindFilterAll)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if diff := cmp.Diff([]string{"heads/main"}, names); diff != "" {
		t.Fatalf("ListAll did not walk the configured root (-expected +got):\n%s", diff)
	}
}

// TestWithPackedRefsFileNameOverridesAggregateFile tests that Packall
// writes to the configured file name instead of "packed-refs".
func TestWithPackedRefsFileNameOverridesAggregateFile(t *testing.T) {
	root := t.TempDir()
	db := fakeodb.New()
	db.AddCommit(oid(8))
	repo := refs.Open(root, db, refs.WithPackedRefsFileName("refstore-packed"))
	defer repo.Close()

	if _, err := repo.CreateDirect("refs/heads/main", oid(8), false); err != nil {
		t.Fatalf("create_direct failed: %v", err)
	}
	if err := repo.Packall(); err != nil {
		t.Fatalf("packall failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "refstore-packed")); err != nil {
		t.Fatalf("packall did not write the configured aggregate file name: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "packed-refs")); !os.IsNotExist(err) {
		t.Fatalf("packall unexpectedly wrote the default aggregate file name too: %v", err)
	}

	ref, err := repo.Lookup("refs/heads/main")
	if err != nil {
		t.Fatalf("lookup after packall failed: %v", err)
	}
	if !ref.IsPacked() {
		t.Fatal("reference was not served from the configured packed-refs file")
	}
}

// TestWithTagPrefixOverridesPeelEligibility tests that only the configured
// tag namespace is eligible for peel resolution during Packall.
func TestWithTagPrefixOverridesPeelEligibility(t *testing.T) {
	root := t.TempDir()
	db := fakeodb.New()
	db.AddCommit(oid(0x43))
	db.AddTag(oid(0x54), oid(0x43))
	repo := refs.Open(root, db, refs.WithTagPrefix("refs/releases/"))
	defer repo.Close()

	if _, err := repo.CreateDirect("refs/releases/v1", oid(0x54), false); err != nil {
		t.Fatalf("create_direct failed: %v", err)
	}
	if err := repo.Packall(); err != nil {
		t.Fatalf("packall failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "packed-refs"))
	if err != nil {
		t.Fatalf("unable to read packed-refs: %v", err)
	}
	if !strings.Contains(string(data), "^"+string(oid(0x43))) {
		t.Fatalf("tag under the configured tagPrefix was not peeled: %q", data)
	}
}
