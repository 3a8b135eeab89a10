package refstore

import (
	"os"
)

// DebugEnabled controls whether or not verbose debug logging is enabled. It
// is set automatically based on the REFSTORE_DEBUG environment variable.
var DebugEnabled bool

func init() {
	DebugEnabled = os.Getenv("REFSTORE_DEBUG") == "1"
}
