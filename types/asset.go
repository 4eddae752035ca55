package types

import "time"

// Visibility classifies how a stored object may be accessed.
type Visibility string

const (
	// VisibilityPublic marks an object as world-readable; it is served
	// through a plain public URL.
	VisibilityPublic Visibility = "public"

	// VisibilityProtected marks an object as access-restricted; it is
	// served through time-limited signed URLs only.
	VisibilityProtected Visibility = "protected"
)

// Valid reports whether v is one of the defined visibility values.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityProtected
}

// ConflictPolicy selects the behavior of a write when the target key
// already exists in the backend.
type ConflictPolicy string

const (
	// ConflictOverwrite replaces the existing object unconditionally.
	// This is the default when no policy is given.
	ConflictOverwrite ConflictPolicy = "overwrite"

	// ConflictFail aborts the write with a conflict error.
	ConflictFail ConflictPolicy = "fail"

	// ConflictRename writes under the first free alternative key
	// produced by the configured rename strategy.
	ConflictRename ConflictPolicy = "rename"

	// ConflictUseExisting skips the write entirely and reports the
	// identity of the object already stored at the key. Unknown policy
	// values resolve to this behavior.
	ConflictUseExisting ConflictPolicy = "use_existing"
)

// WriteConfig carries the per-call options of a write operation.
type WriteConfig struct {
	// Conflict selects what happens when the derived key already exists.
	// Empty means ConflictOverwrite.
	Conflict ConflictPolicy `json:"conflict,omitempty"`

	// Visibility assigns an explicit visibility to the written object.
	// Empty means "inherit": variants take the original's current
	// visibility, originals default to public.
	Visibility Visibility `json:"visibility,omitempty"`

	// ContentType is an optional MIME type stored with the object.
	ContentType string `json:"content_type,omitempty"`
}

// FileIdentity is the logical identity of a stored asset, independent of
// the physical key it lives under.
type FileIdentity struct {
	// Filename is the cleaned relative path of the asset. After a write
	// under the rename policy it reflects the renamed path.
	Filename string `json:"filename"`

	// Hash is the full content hash of the original (variant-less)
	// content, hex encoded. Variants share the original's hash.
	Hash string `json:"hash"`

	// Variant names the derived form this identity refers to, such as a
	// thumbnail transform. Empty for the original.
	Variant string `json:"variant,omitempty"`
}

// ObjectInfo contains backend metadata about one stored object.
type ObjectInfo struct {
	// Key is the physical backend identifier of the object.
	Key string `json:"key"`

	// Size is the object size in bytes.
	Size int64 `json:"size"`

	// ContentType is the stored MIME type, if the backend tracks one.
	ContentType string `json:"content_type,omitempty"`

	// LastModified is the backend's modification timestamp.
	LastModified time.Time `json:"last_modified"`
}

// AssetRecord is a catalog row describing one logical asset. The catalog
// is service-level bookkeeping for listing and search; the object store
// remains the source of truth for the bytes.
type AssetRecord struct {
	// ID is the unique identifier of the catalog row.
	ID int `json:"id" db:"id"`

	// Filename is the cleaned logical path of the asset.
	Filename string `json:"filename" db:"filename"`

	// Hash is the full content hash of the original, hex encoded.
	Hash string `json:"hash" db:"hash"`

	// Visibility is the visibility the asset was last written with.
	Visibility Visibility `json:"visibility" db:"visibility"`

	// Size is the size of the original in bytes.
	Size int64 `json:"size" db:"size"`

	// ContentType is the MIME type recorded at write time.
	ContentType string `json:"content_type" db:"content_type"`

	// CreatedAt is the timestamp at which the asset was first cataloged.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent write.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
