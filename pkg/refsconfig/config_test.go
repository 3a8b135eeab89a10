package refsconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadMissingFileReturnsDefault tests that Load falls back to Default
// when no .refstore.yaml is present.
func TestLoadMissingFileReturnsDefault(t *testing.T) {
	root := t.TempDir()

	config, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config != Default() {
		t.Fatalf("expected default configuration, got %+v", config)
	}
}

// TestLoadParsesYAMLAndFillsDefaults tests that Load parses a present
// .refstore.yaml and fills in any field it omits.
func TestLoadParsesYAMLAndFillsDefaults(t *testing.T) {
	root := t.TempDir()
	contents := "lockTimeout: 2s\n"
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(contents), 0644); err != nil {
		t.Fatalf("unable to write configuration fixture: %v", err)
	}

	config, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.LockTimeout != 2*time.Second {
		t.Fatalf("expected lockTimeout 2s, got %s", config.LockTimeout)
	}
	if config.RefsRoot != Default().RefsRoot {
		t.Fatalf("expected default refsRoot to be filled in, got %q", config.RefsRoot)
	}
}

// TestLoadRespectsEnvOverride tests that REFSTORE_CONFIG redirects Load to
// an explicit path.
func TestLoadRespectsEnvOverride(t *testing.T) {
	root := t.TempDir()
	override := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(override, []byte("tagPrefix: refs/custom-tags/\n"), 0644); err != nil {
		t.Fatalf("unable to write override fixture: %v", err)
	}

	t.Setenv("REFSTORE_CONFIG", override)
	config, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.TagPrefix != "refs/custom-tags/" {
		t.Fatalf("expected overridden tagPrefix, got %q", config.TagPrefix)
	}
}
