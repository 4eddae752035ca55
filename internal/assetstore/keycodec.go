package assetstore

import (
	"path"
	"regexp"
	"strings"
)

// The variant delimiter separates a basename from a variant token
// inside a storage key. Cleaned filenames never contain it, so any
// occurrence in a derived key marks a variant.
const variantDelimiter = "__"

// hashPrefixLen is how many characters of the content hash namespace a
// file's keys. The full hash remains the file's identity.
const hashPrefixLen = 10

var (
	delimiterRuns = regexp.MustCompile(`_{2,}`)

	// A variant key is a delimiter-free prefix, the delimiter, a variant
	// token, and an optional delimiter-free extension. Requiring prefix
	// and extension to be delimiter-free makes stripping idempotent: a
	// stripped key can never match again. The extension grammar must
	// cover everything path.Ext can produce for a cleaned filename.
	variantKeyPattern = regexp.MustCompile(`^([^_]+(?:_[^_]+)*)__([A-Za-z0-9-]+)(\.[^_]+(?:_[^_]+)*)?$`)

	// variantTokenPattern constrains variant names so that derived keys
	// stay parseable by variantKeyPattern.
	variantTokenPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

	hashSegmentPattern = regexp.MustCompile(`^[A-Za-z0-9]{10}$`)
)

// CleanFilename normalizes a relative path for use as a logical
// filename: underscore runs collapse to a single underscore (the
// variant delimiter must not appear in filenames) and the path is
// cleaned of dot segments and leading slashes.
func CleanFilename(filename string) string {
	filename = delimiterRuns.ReplaceAllString(filename, "_")
	filename = path.Clean("/" + filename)
	return strings.TrimPrefix(filename, "/")
}

// DeriveKey maps a logical file identity onto its physical storage key:
//
//	[directory/]<hash10>/<basename>[__<variant>]<ext>
//
// The mapping is deterministic and injective over cleaned filenames and
// distinct hash prefixes. It never fails for non-empty inputs; callers
// validate emptiness upstream.
func DeriveKey(filename, hash, variant string) string {
	filename = CleanFilename(filename)

	dir := path.Dir(filename)
	base := path.Base(filename)
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)

	if variant != "" {
		name += variantDelimiter + variant
	}

	prefix := hash
	if len(prefix) > hashPrefixLen {
		prefix = prefix[:hashPrefixLen]
	}

	key := prefix + "/" + name + ext
	if dir != "." {
		key = dir + "/" + key
	}
	return key
}

// StripVariant removes the __variant segment from a key, if present.
// Keys without a variant segment pass through unchanged, so stripping
// is idempotent.
func StripVariant(key string) string {
	match := variantKeyPattern.FindStringSubmatch(key)
	if match == nil {
		return key
	}
	return match[1] + match[3]
}

// OriginalFilename recovers the logical filename from a storage key: it
// strips any variant segment, then removes the hash-prefix directory.
// Legacy keys without a hash segment pass through unchanged. For every
// valid (filename, hash) pair,
// OriginalFilename(DeriveKey(filename, hash, "")) == CleanFilename(filename).
func OriginalFilename(key string) string {
	key = StripVariant(key)

	dir, base := path.Split(key)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		return key
	}
	if !hashSegmentPattern.MatchString(path.Base(dir)) {
		return key
	}

	parent := path.Dir(dir)
	if parent == "." {
		return base
	}
	return parent + "/" + base
}
