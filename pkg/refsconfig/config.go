// Package refsconfig loads the reference store's optional on-disk
// configuration (§10.C), covering the reference root path, the packed-refs
// file name, the tag-name prefix eligible for peel resolution, and the
// lock-acquisition timeout used by pkg/refs' lockfile primitive (§11.C).
package refsconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mutagen-io/refstore/pkg/refs"
	"github.com/mutagen-io/refstore/pkg/refstore"
)

// FileName is the default configuration file name, read from the
// repository root unless REFSTORE_CONFIG overrides the path.
const FileName = ".refstore.yaml"

// EnvFileName is the optional sibling dotenv file loaded by Load before the
// configuration file path is resolved, mirroring the teacher's own
// environment-driven debug toggle.
const EnvFileName = ".env"

// Configuration holds the reference store's tunables. Every field has a
// sensible zero-config default; a Configuration zero value is not
// directly usable and should always come from Load or Default.
type Configuration struct {
	// RefsRoot is the directory (relative to the repository root) under
	// which loose references live.
	RefsRoot string `yaml:"refsRoot"`
	// PackedRefsFile is the name of the packed-refs aggregate file.
	PackedRefsFile string `yaml:"packedRefsFile"`
	// TagPrefix is the namespace eligible for packed-ref peel resolution.
	TagPrefix string `yaml:"tagPrefix"`
	// LockTimeout bounds how long a mutation retries against a held
	// "<name>.lock" before giving up.
	LockTimeout time.Duration `yaml:"lockTimeout"`
}

// Default returns the configuration the store uses when no configuration
// file is present.
func Default() Configuration {
	return Configuration{
		RefsRoot:       refs.RefsPrefix,
		PackedRefsFile: "packed-refs",
		TagPrefix:      "refs/tags/",
		LockTimeout:    refs.DefaultLockTimeout,
	}
}

// Load reads the configuration file for the repository at root, applying
// defaults for any field the file doesn't set. A missing configuration
// file is not an error: Load simply returns Default(). The file path is
// root/.refstore.yaml unless the REFSTORE_CONFIG environment variable
// names an explicit path.
func Load(root string) (Configuration, error) {
	// Load a sibling .env file, if present, so REFSTORE_CONFIG and
	// REFSTORE_DEBUG can be set per-checkout without exporting them in a
	// shell profile.
	envPath := filepath.Join(root, EnvFileName)
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return Configuration{}, fmt.Errorf("unable to load environment file (%s): %w", envPath, err)
	}
	refstore.DebugEnabled = os.Getenv("REFSTORE_DEBUG") == "1"

	path := os.Getenv("REFSTORE_CONFIG")
	if path == "" {
		path = filepath.Join(root, FileName)
	}

	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Configuration{}, fmt.Errorf("unable to read configuration file (%s): %w", path, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Configuration{}, fmt.Errorf("unable to parse configuration file (%s): %w", path, err)
	}
	if config.RefsRoot == "" {
		config.RefsRoot = refs.RefsPrefix
	}
	if config.PackedRefsFile == "" {
		config.PackedRefsFile = "packed-refs"
	}
	if config.TagPrefix == "" {
		config.TagPrefix = "refs/tags/"
	}
	if config.LockTimeout == 0 {
		config.LockTimeout = refs.DefaultLockTimeout
	}

	return config, nil
}
