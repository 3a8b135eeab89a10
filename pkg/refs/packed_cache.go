package refs

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/mutagen-io/extstat"

	"github.com/mutagen-io/refstore/pkg/logging"
)

// PackedCache is the in-memory name→entry map backing the packed-refs file,
// with a file-mtime freshness stamp (§3, §4.D). It is owned by a Repository
// and is not safe for concurrent use without external synchronization.
// fileName and tagPrefix are fixed at construction from the owning
// Repository's configuration (§10.C packedRefsFile / tagPrefix overrides).
type PackedCache struct {
	entries    map[string]PackedEntry
	loaded     bool
	sourceTime time.Time
	fileName   string
	tagPrefix  string
}

func newPackedCache(fileName, tagPrefix string) *PackedCache {
	return &PackedCache{entries: make(map[string]PackedEntry), fileName: fileName, tagPrefix: tagPrefix}
}

// packedStatTime returns the modification time of the packed-refs file at
// path, preferring extstat's sub-second resolution when available.
func packedStatTime(path string) (time.Time, error) {
	if stat, err := extstat.NewFromFileName(path); err == nil {
		return stat.ModTime(), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// ensureLoaded implements ensure_packed_loaded (§4.D): it stats the packed
// file and, if its mtime has advanced since the cache's last load (or the
// cache has never been loaded), clears and reparses the cache. A missing
// file clears the cache and is treated as success, not an error.
func (c *PackedCache) ensureLoaded(root string) error {
	path := filepath.Join(root, c.fileName)

	modTime, err := packedStatTime(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.entries = make(map[string]PackedEntry)
			c.loaded = true
			c.sourceTime = time.Time{}
			return nil
		}
		return err
	}

	if c.loaded && !modTime.After(c.sourceTime) {
		return nil
	}

	entries, err := readPackedFile(path, c.tagPrefix)
	if err != nil {
		// Invalidate the cache entirely on a reparse failure, per §4.D, so a
		// subsequent access retries rather than silently serving stale data.
		c.entries = make(map[string]PackedEntry)
		c.loaded = false
		return err
	}

	m := make(map[string]PackedEntry, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	c.entries = m
	c.loaded = true
	c.sourceTime = modTime
	return nil
}

// lookup returns the cached entry for name, if present. Callers must call
// ensureLoaded first.
func (c *PackedCache) lookup(name string) (PackedEntry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// has reports whether name is present in the cache. Callers must call
// ensureLoaded first.
func (c *PackedCache) has(name string) bool {
	_, ok := c.entries[name]
	return ok
}

// set inserts or overwrites entry in the cache, keyed by entry.Name.
func (c *PackedCache) set(entry PackedEntry) {
	c.entries[entry.Name] = entry
}

// delete removes name from the cache, returning false if it wasn't present.
func (c *PackedCache) delete(name string) bool {
	if _, ok := c.entries[name]; !ok {
		return false
	}
	delete(c.entries, name)
	return true
}

// all returns a snapshot of every cached entry, in no particular order.
func (c *PackedCache) all() []PackedEntry {
	out := make([]PackedEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// commit writes the cache's current contents to the packed-refs file,
// resolving tag peels via odb, and refreshes sourceTime from the result
// (§4.G packall step 3/5, and the rewrite-on-delete path in §4.G delete).
func (c *PackedCache) commit(ctx context.Context, root string, odb ODB, logger *logging.Logger) error {
	path := filepath.Join(root, c.fileName)

	resolved := resolvePeels(c.all(), odb, c.tagPrefix)
	if err := writePackedFile(ctx, path, resolved, logger); err != nil {
		return err
	}

	m := make(map[string]PackedEntry, len(resolved))
	for _, e := range resolved {
		m[e.Name] = e
	}
	c.entries = m

	modTime, err := packedStatTime(path)
	if err == nil {
		c.sourceTime = modTime
	}
	return nil
}
