package refs

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/mutagen-io/extstat"
	"github.com/pkg/errors"

	"github.com/mutagen-io/refstore/pkg/logging"
)

// symbolicPrefix is the literal prefix identifying a loose symbolic
// reference file.
const symbolicPrefix = "ref: "

// looseMaxFileSize bounds how much of a loose file we'll read into memory
// before declaring it corrupt. Loose ref files are one line; anything far
// beyond that is not a well-formed reference.
const looseMaxFileSize = 4096

// errSymlink is returned internally by the platform-specific openLooseNoFollow
// implementations when the target path is a symbolic link. The loose-ref
// reader treats this as corruption rather than following OS symlink
// semantics, per the open question in §9 on symlink handling.
var errSymlink = errors.New("path is a symbolic link")

// loosePath returns the on-disk path for a loose reference with the given
// canonical name.
func loosePath(root, name string) string {
	return filepath.Join(root, filepath.FromSlash(name))
}

// readLoose reads and parses the loose reference file for name, rooted at
// root. It returns ErrNotFound if the file doesn't exist and ErrCorrupt if
// its contents don't match either loose encoding (§4.B).
func readLoose(owner *Repository, root, name string) (*Reference, error) {
	path := loosePath(root, name)

	file, err := openLooseNoFollow(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		if errors.Is(err, errSymlink) {
			return nil, errors.Wrapf(ErrCorrupt, "%s is a symbolic link", name)
		}
		return nil, errors.Wrapf(err, "unable to open loose reference %s", name)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to stat loose reference %s", name)
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	buffer := make([]byte, looseMaxFileSize)
	n, _ := file.Read(buffer)
	content := buffer[:n]

	modTime := info.ModTime()
	if stat, err := extstat.NewFromFileName(path); err == nil {
		modTime = stat.ModTime()
	}

	return parseLoose(owner, name, content, modTime)
}

// parseLoose parses the raw bytes of a loose reference file.
func parseLoose(owner *Repository, name string, content []byte, modTime time.Time) (*Reference, error) {
	if len(content) == 0 || content[len(content)-1] != '\n' {
		return nil, errors.Wrapf(ErrCorrupt, "loose reference %s is missing its line terminator", name)
	}
	content = trimLineEnding(content)
	if len(content) == 0 {
		return nil, errors.Wrapf(ErrCorrupt, "loose reference %s is empty", name)
	}

	if bytes.HasPrefix(content, []byte(symbolicPrefix)) {
		target := string(content[len(symbolicPrefix):])
		if target == "" {
			return nil, errors.Wrapf(ErrCorrupt, "loose reference %s has empty symbolic target", name)
		}
		return newSymbolicReference(owner, name, target, modTime), nil
	}

	if len(content) != ObjectIDLength {
		return nil, errors.Wrapf(ErrCorrupt, "loose reference %s has malformed oid", name)
	}
	if !isHex(content) {
		return nil, errors.Wrapf(ErrCorrupt, "loose reference %s has non-hex oid", name)
	}

	return newDirectReference(owner, name, ObjectID(content), StorageLoose, modTime), nil
}

// trimLineEnding trims a single trailing \n, tolerating a preceding \r.
func trimLineEnding(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\n' {
		b = b[:len(b)-1]
	}
	if len(b) > 0 && b[len(b)-1] == '\r' {
		b = b[:len(b)-1]
	}
	return b
}

func isHex(b []byte) bool {
	for _, c := range b {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// writeLoose writes a reference's textual encoding to its loose file via the
// exclusive-create lock file + rename discipline (§4.B, §5, §11.C). On
// success, it returns the new modification time observed after the write.
func writeLoose(ctx context.Context, root string, ref *Reference, logger *logging.Logger) (time.Time, error) {
	path := loosePath(root, ref.name)

	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return time.Time{}, errors.Wrapf(err, "unable to create directory for %s", ref.name)
	}

	var encoded []byte
	switch ref.kind {
	case KindDirect:
		encoded = append([]byte(ref.oid), '\n')
	case KindSymbolic:
		encoded = append(append([]byte(symbolicPrefix), ref.target...), '\n')
	}

	lock, err := acquireLockfile(ctx, path, logger)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "unable to lock loose reference %s", ref.name)
	}
	if err := lock.write(encoded); err != nil {
		lock.abort(logger)
		return time.Time{}, errors.Wrapf(err, "unable to write loose reference %s", ref.name)
	}
	if err := lock.commit(path, 0666, logger); err != nil {
		return time.Time{}, errors.Wrapf(err, "unable to commit loose reference %s", ref.name)
	}

	modTime := time.Now()
	if stat, err := extstat.NewFromFileName(path); err == nil {
		modTime = stat.ModTime()
	} else if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}

	return modTime, nil
}

// removeLoose unlinks the loose file for name, treating a missing file as
// success.
func removeLoose(root, name string) error {
	path := loosePath(root, name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "unable to remove loose reference %s", name)
	}
	return nil
}

// looseExists reports whether a loose file (not directory) is present for
// name.
func looseExists(root, name string) bool {
	info, err := os.Lstat(loosePath(root, name))
	return err == nil && !info.IsDir()
}
