// +build !windows

package refs

import (
	"os"

	"golang.org/x/sys/unix"
)

// openLooseNoFollow opens path for reading, refusing to follow a trailing
// symbolic link. This is the posix implementation, using O_NOFOLLOW directly
// so the kernel rejects the open rather than racing a separate Lstat.
func openLooseNoFollow(path string) (*os.File, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NOFOLLOW, 0)
	if err != nil {
		if err == unix.ELOOP {
			return nil, errSymlink
		}
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return os.NewFile(uintptr(fd), path), nil
}
