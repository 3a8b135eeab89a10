package refs

import (
	"strings"

	"github.com/pkg/errors"
)

// RefsPrefix is the directory prefix under which every direct oid reference
// (other than HEAD in its detached form) must live.
const RefsPrefix = "refs/"

// tagsPrefix identifies the tag namespace, the only namespace eligible for
// packed-ref peel resolution (§4.C).
const tagsPrefix = "refs/tags/"

// MaxNameLength bounds the length of a normalized reference name.
const MaxNameLength = 1024

// HEAD, MergeHead and FetchHead are the well-known top-level references that
// are exempt from the "must contain a slash" rule for direct references.
// MergeHead and FetchHead are still subject to the "must start with refs/"
// rule (only HEAD is exempt from that one too), since neither is ever
// created through the normal create path — both are written directly by
// higher-level merge/fetch machinery outside this store's scope.
const (
	HEAD      = "HEAD"
	MergeHead = "MERGE_HEAD"
	FetchHead = "FETCH_HEAD"
)

// invalidChars is the set of bytes (beyond control bytes) that may never
// appear in a reference name.
const invalidChars = "~^:\\?[*"

func isValidRefByte(b byte) bool {
	if b <= ' ' {
		return false
	}
	return strings.IndexByte(invalidChars, b) == -1
}

// Normalize validates and canonicalizes a reference name against the
// default "refs/" root, exactly as normalizeWithPrefix(name, isDirect,
// RefsPrefix) would. Repository.Normalize should be preferred by any
// caller operating against a Repository, since it honors a configured
// refsRoot override (§10.C); this package-level form exists for callers
// with no repository in hand.
func Normalize(name string, isDirect bool) (string, error) {
	return normalizeWithPrefix(name, isDirect, RefsPrefix)
}

// normalizeWithPrefix is Normalize parameterized by the refsPrefix a
// direct-mode name must live under, so a Repository opened with
// WithRefsPrefix can enforce its own configured root instead of the
// package default.
func normalizeWithPrefix(name string, isDirect bool, refsPrefix string) (string, error) {
	if name == "" {
		return "", errors.Wrap(ErrInvalidName, "reference name is empty")
	}
	if last := name[len(name)-1]; last == '.' || last == '/' {
		return "", errors.Wrap(ErrInvalidName, "reference name ends with dot or slash")
	}
	if strings.HasSuffix(name, ".lock") {
		return "", errors.Wrap(ErrInvalidName, "reference name ends with .lock")
	}
	if strings.Contains(name, "@{") {
		return "", errors.Wrap(ErrInvalidName, "reference name contains @{")
	}

	var out strings.Builder
	out.Grow(len(name))
	containsSlash := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !isValidRefByte(c) {
			return "", errors.Wrapf(ErrInvalidName, "reference name contains invalid character %q", c)
		}

		if out.Len() > 0 {
			built := out.String()
			prev := built[len(built)-1]

			// A refname can't start with a dot or contain a double dot.
			if c == '.' && (prev == '.' || prev == '/') {
				return "", errors.Wrap(ErrInvalidName, "reference name starts with a dot or contains a double dot")
			}

			// Collapse repeated slashes rather than emitting them.
			if c == '/' && prev == '/' {
				continue
			}
		} else if c == '.' {
			return "", errors.Wrap(ErrInvalidName, "reference name starts with a dot")
		}

		if c == '/' {
			containsSlash = true
		}
		out.WriteByte(c)
	}

	canonical := out.String()
	if len(canonical) > MaxNameLength {
		return "", errors.Wrap(ErrInvalidName, "reference name too long")
	}

	if isDirect {
		if !containsSlash && canonical != HEAD && canonical != MergeHead && canonical != FetchHead {
			return "", errors.Wrap(ErrInvalidName, "reference name contains no slashes")
		}
		if !strings.HasPrefix(canonical, refsPrefix) && canonical != HEAD {
			return "", errors.Wrapf(ErrInvalidName, "reference name does not start with %s", refsPrefix)
		}
	}

	return canonical, nil
}
