package must

import (
	"fmt"
	"io"
	"os"

	"github.com/mutagen-io/refstore/pkg/logging"
)

// Fprint prints to w, logging (rather than returning) any error.
func Fprint(w io.Writer, logger *logging.Logger, a ...any) {
	s := fmt.Sprint(a...)
	n, err := fmt.Fprint(w, s)
	if err != nil {
		logger.Warnf("unable to Fprint '%s'; %s", s, err.Error())
	}
	if n < len(s) {
		logger.Warnf("unable to Fprint all of '%s'; printed only %d of %d bytes", s, n, len(s))
	}
}

// Close closes c, logging (rather than returning) any error. Intended for
// defer-based cleanup on paths where the close error is not actionable.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %s", err.Error())
	}
}

// WriteString writes s to ws, logging any error.
func WriteString(ws interface{ WriteString(string) (int, error) }, s string, logger *logging.Logger) {
	n, err := ws.WriteString(s)
	if err != nil {
		logger.Warnf("unable to write string '%s': %s", s, err.Error())
	}
	if n < len(s) {
		logger.Warnf("unable to write all of string '%s'; only wrote %d of %d bytes", s, n, len(s))
	}
}

// Remove removes path via r, logging any error.
func Remove(r interface{ Remove(string) error }, path string, logger *logging.Logger) {
	if err := r.Remove(path); err != nil {
		logger.Warnf("unable to remove '%s': %s", path, err.Error())
	}
}

// OSRemove removes the named file, logging any error. Used to clean up
// orphaned lock files on write failure paths.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		logger.Warnf("unable to remove '%s': %s", name, err.Error())
	}
}
