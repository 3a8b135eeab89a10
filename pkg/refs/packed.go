package refs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/mutagen-io/refstore/pkg/logging"
)

// packedFileName is the name of the packed-refs aggregate file under the
// repository root.
const packedFileName = "packed-refs"

// packedHeader is the optional leading comment line emitted by this store
// and tolerated (along with any other '#'-prefixed line) on read.
const packedHeader = "# pack-refs with: peeled \n"

const peelPrefix = '^'

// parsePacked parses the contents of a packed-refs file into an ordered set
// of entries (§4.C). Duplicate names, peel lines in invalid positions, and
// malformed records are reported as ErrCorrupt. tagPrefix identifies the
// only namespace eligible to carry a peel line (§10.C tagPrefix override).
func parsePacked(data []byte, tagPrefix string) ([]PackedEntry, error) {
	if len(data) > 0 && data[len(data)-1] != '\n' {
		return nil, errors.Wrap(ErrCorrupt, "packed-refs missing trailing newline on last record")
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024), 1<<20)

	var entries []PackedEntry
	seen := make(map[string]bool)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if line[0] == '#' {
			continue
		}

		if line[0] == peelPrefix {
			if len(entries) == 0 {
				return nil, errors.Wrapf(ErrCorrupt, "packed-refs line %d: peel line with no preceding entry", lineNumber)
			}
			last := &entries[len(entries)-1]
			if !strings.HasPrefix(last.Name, tagPrefix) {
				return nil, errors.Wrapf(ErrCorrupt, "packed-refs line %d: peel line follows non-tag entry", lineNumber)
			}
			if last.HasPeel() {
				return nil, errors.Wrapf(ErrCorrupt, "packed-refs line %d: duplicate peel line", lineNumber)
			}
			oid, err := parsePeelLine(line)
			if err != nil {
				return nil, errors.Wrapf(err, "packed-refs line %d", lineNumber)
			}
			last.Peel = oid
			last.Flags |= FlagHasPeel
			continue
		}

		entry, err := parseEntryLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "packed-refs line %d", lineNumber)
		}
		if seen[entry.Name] {
			return nil, errors.Wrapf(ErrCorrupt, "packed-refs line %d: duplicate entry for %s", lineNumber, entry.Name)
		}
		seen[entry.Name] = true
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to scan packed-refs")
	}

	return entries, nil
}

func parseEntryLine(line string) (PackedEntry, error) {
	if len(line) < ObjectIDLength+2 {
		return PackedEntry{}, errors.Wrap(ErrCorrupt, "entry line too short")
	}
	oidPart := line[:ObjectIDLength]
	if line[ObjectIDLength] != ' ' {
		return PackedEntry{}, errors.Wrap(ErrCorrupt, "entry line missing separator")
	}
	name := line[ObjectIDLength+1:]
	if name == "" {
		return PackedEntry{}, errors.Wrap(ErrCorrupt, "entry line missing name")
	}
	if !isHex([]byte(oidPart)) {
		return PackedEntry{}, errors.Wrap(ErrCorrupt, "entry line has non-hex oid")
	}
	return PackedEntry{Name: name, OID: ObjectID(oidPart)}, nil
}

func parsePeelLine(line string) (ObjectID, error) {
	rest := line[1:]
	if len(rest) != ObjectIDLength {
		return "", errors.Wrap(ErrCorrupt, "peel line has malformed oid")
	}
	if !isHex([]byte(rest)) {
		return "", errors.Wrap(ErrCorrupt, "peel line has non-hex oid")
	}
	return ObjectID(rest), nil
}

// emitPacked renders entries into the on-disk packed-refs format (§4.C),
// sorted lexicographically by name.
func emitPacked(entries []PackedEntry) []byte {
	sorted := make([]PackedEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var buf bytes.Buffer
	buf.WriteString(packedHeader)
	for _, entry := range sorted {
		fmt.Fprintf(&buf, "%s %s\n", entry.OID, entry.Name)
		if entry.HasPeel() {
			fmt.Fprintf(&buf, "^%s\n", entry.Peel)
		}
	}
	return buf.Bytes()
}

// readPackedFile reads and parses the packed-refs file at path. A missing
// file is reported via os.IsNotExist on the returned error, matching
// ensure_packed_loaded's "absent means empty" handling in the caller (§4.D).
func readPackedFile(path, tagPrefix string) ([]PackedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parsePacked(data, tagPrefix)
}

// writePackedFile writes entries to the packed-refs file at path via the
// exclusive-create lock file + rename discipline (§5, §11.C), so a
// concurrent packall or delete-triggered rewrite collides rather than
// silently interleaving.
func writePackedFile(ctx context.Context, path string, entries []PackedEntry, logger *logging.Logger) error {
	lock, err := acquireLockfile(ctx, path, logger)
	if err != nil {
		return errors.Wrap(err, "unable to lock packed-refs")
	}
	if err := lock.write(emitPacked(entries)); err != nil {
		lock.abort(logger)
		return errors.Wrap(err, "unable to write packed-refs")
	}
	if err := lock.commit(path, 0666, logger); err != nil {
		return errors.Wrap(err, "unable to commit packed-refs")
	}
	return nil
}

// resolvePeels fills in the Peel field of every tag-prefixed entry that
// lacks one, consulting the ODB (§4.C "Peel resolution"). Non-tag objects
// and non-tag-prefixed names are left unchanged. tagPrefix is the
// configured (§10.C) namespace eligible for peeling.
func resolvePeels(entries []PackedEntry, odb ODB, tagPrefix string) []PackedEntry {
	if odb == nil {
		return entries
	}
	result := make([]PackedEntry, len(entries))
	for i, entry := range entries {
		result[i] = entry
		if entry.HasPeel() || !strings.HasPrefix(entry.Name, tagPrefix) {
			continue
		}
		obj, err := odb.Lookup(entry.OID)
		if err != nil || obj == nil || !obj.IsTag() {
			continue
		}
		target, err := odb.TagTarget(obj)
		if err != nil {
			continue
		}
		result[i].Peel = target
		result[i].Flags |= FlagHasPeel
	}
	return result
}
