package refs

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/mutagen-io/refstore/pkg/logging"
	"github.com/mutagen-io/refstore/pkg/must"
)

// lockSuffix is the reserved suffix (also rejected by the name grammar,
// §4.A) used for the transient exclusive-creation lock sibling of a
// reference or packed-refs file (§5, §11.C).
const lockSuffix = ".lock"

// lockfileRetryInterval is the poll interval used by acquireLockfile when a
// caller supplies a context with a deadline, so acquisition can be retried
// against a concurrent writer instead of failing on the first collision.
const lockfileRetryInterval = 10 * time.Millisecond

// lockfile is a held exclusive-creation lock on the sibling "<path>.lock"
// file, with the lock file itself open for writing the pending content.
// Acquired via acquireLockfile and released by exactly one of commit or
// abort. Grounded on the teacher's pkg/filesystem/locking constructor/
// wrapper idiom, but not its flock(2) mechanism — §5 specifies
// exclusive-create to acquire and rename-or-unlink to release, not a held
// advisory lock; see DESIGN.md.
type lockfile struct {
	path string
	file *os.File
}

// acquireLockfile creates path+".lock" exclusively and opens it for
// writing. If ctx is non-nil and carries a deadline, a collision (the lock
// file already exists, meaning another writer holds it) is retried until
// the deadline passes; with a nil context a single collision is reported
// immediately.
func acquireLockfile(ctx context.Context, path string, logger *logging.Logger) (*lockfile, error) {
	lockPath := path + lockSuffix

	for {
		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0666)
		if err == nil {
			return &lockfile{path: lockPath, file: file}, nil
		}
		if !os.IsExist(err) {
			return nil, errors.Wrapf(err, "unable to create lock file %s", lockPath)
		}
		if ctx == nil {
			return nil, errors.Wrapf(err, "reference is locked (%s exists)", lockPath)
		}

		logger.Debugf("lock %s held, retrying", lockPath)
		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "timed out waiting for lock %s", lockPath)
		case <-time.After(lockfileRetryInterval):
		}
	}
}

// write writes content to the held lock file.
func (l *lockfile) write(content []byte) error {
	if _, err := l.file.Write(content); err != nil {
		return errors.Wrapf(err, "unable to write lock file %s", l.path)
	}
	return nil
}

// commit closes the lock file and releases the lock by renaming it over
// target — the canonical way a loose-ref write or packed-refs rewrite
// finishes (§5: "releasing = rename-over-target (commit)").
func (l *lockfile) commit(target string, perm os.FileMode, logger *logging.Logger) error {
	if err := l.file.Chmod(perm); err != nil {
		must.Close(l.file, logger)
		must.OSRemove(l.path, logger)
		return errors.Wrapf(err, "unable to set permissions on lock file %s", l.path)
	}
	if err := l.file.Close(); err != nil {
		must.OSRemove(l.path, logger)
		return errors.Wrapf(err, "unable to close lock file %s", l.path)
	}
	if err := os.Rename(l.path, target); err != nil {
		must.OSRemove(l.path, logger)
		return errors.Wrapf(err, "unable to commit lock file over %s", target)
	}
	return nil
}

// abort releases the lock by closing and unlinking it without committing,
// used on any failure path between acquisition and commit.
func (l *lockfile) abort(logger *logging.Logger) {
	must.Close(l.file, logger)
	must.OSRemove(l.path, logger)
}
