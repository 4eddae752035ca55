package assetstore

import "testing"

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		hash     string
		variant  string
		want     string
	}{
		{
			name:     "original with directory",
			filename: "folder/My File.jpg",
			hash:     "abcdef1234567890",
			want:     "folder/abcdef1234/My File.jpg",
		},
		{
			name:     "variant with directory",
			filename: "folder/My File.jpg",
			hash:     "abcdef1234567890",
			variant:  "resized",
			want:     "folder/abcdef1234/My File__resized.jpg",
		},
		{
			name:     "no directory",
			filename: "photo.png",
			hash:     "0123456789abcdef",
			want:     "0123456789/photo.png",
		},
		{
			name:     "no extension",
			filename: "docs/readme",
			hash:     "abcdef1234567890",
			variant:  "draft",
			want:     "docs/abcdef1234/readme__draft",
		},
		{
			name:     "delimiter collapsed in filename",
			filename: "a__b/c___d.txt",
			hash:     "abcdef1234567890",
			want:     "a_b/abcdef1234/c_d.txt",
		},
		{
			name:     "short hash used whole",
			filename: "f.txt",
			hash:     "abc",
			want:     "abc/f.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveKey(tt.filename, tt.hash, tt.variant)
			if got != tt.want {
				t.Fatalf("DeriveKey(%q, %q, %q) = %q, want %q", tt.filename, tt.hash, tt.variant, got, tt.want)
			}
		})
	}
}

func TestStripVariant(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"folder/abcdef1234/My File__resized.jpg", "folder/abcdef1234/My File.jpg"},
		{"folder/abcdef1234/My File.jpg", "folder/abcdef1234/My File.jpg"},
		{"abcdef1234/readme__draft", "abcdef1234/readme"},
		{"a_b/abcdef1234/c_d__thumb.png", "a_b/abcdef1234/c_d.png"},
		// Extensions are not limited to alphanumeric characters.
		{"docs/abcdef1234/notes__thumb.c++", "docs/abcdef1234/notes.c++"},
		{"abcdef1234/data__small.tar_gz", "abcdef1234/data.tar_gz"},
		{"abcdef1234/archive__v2.tar.gz", "abcdef1234/archive.tar.gz"},
		// Adversarial keys that do not fit the grammar pass through.
		{"a__b__c.jpg", "a__b__c.jpg"},
		{"a___v.jpg", "a___v.jpg"},
		{"plain.txt", "plain.txt"},
		{"", ""},
	}

	for _, tt := range tests {
		got := StripVariant(tt.key)
		if got != tt.want {
			t.Fatalf("StripVariant(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestStripVariantIdempotent(t *testing.T) {
	keys := []string{
		"folder/abcdef1234/My File__resized.jpg",
		"folder/abcdef1234/My File.jpg",
		"a__b__c.jpg",
		"x__y.png",
		"abcdef1234/readme__draft",
		"docs/abcdef1234/notes__thumb.c++",
		"abcdef1234/data__small.tar_gz",
		"weird__",
		"__leading.txt",
	}
	for _, key := range keys {
		once := StripVariant(key)
		twice := StripVariant(once)
		if once != twice {
			t.Fatalf("StripVariant not idempotent for %q: once=%q twice=%q", key, once, twice)
		}
	}
}

func TestStripVariantInvertsDeriveKey(t *testing.T) {
	// Stripping the variant of a derived key must always land back on
	// the original's key, whatever the extension looks like.
	tests := []struct {
		filename string
		variant  string
	}{
		{"folder/My File.jpg", "resized"},
		{"docs/notes.c++", "thumb"},
		{"data.tar_gz", "small"},
		{"docs/readme", "draft"},
		{"release.tar.gz", "v2"},
	}
	const hash = "abcdef1234567890"

	for _, tt := range tests {
		variantKey := DeriveKey(tt.filename, hash, tt.variant)
		originalKey := DeriveKey(tt.filename, hash, "")
		if got := StripVariant(variantKey); got != originalKey {
			t.Fatalf("StripVariant(%q) = %q, want %q", variantKey, got, originalKey)
		}
	}
}

func TestOriginalFilenameRoundTrip(t *testing.T) {
	tests := []struct {
		filename string
		hash     string
	}{
		{"folder/My File.jpg", "abcdef1234567890"},
		{"photo.png", "0123456789abcdef"},
		{"a/b/c/deep.txt", "fedcba9876543210"},
		{"docs/readme", "abcdef1234567890"},
		{"under_score.bin", "abcdef1234567890"},
		{"a__b/c__d.txt", "abcdef1234567890"},
	}

	for _, tt := range tests {
		key := DeriveKey(tt.filename, tt.hash, "")
		got := OriginalFilename(key)
		want := CleanFilename(tt.filename)
		if got != want {
			t.Fatalf("OriginalFilename(DeriveKey(%q, %q)) = %q, want %q", tt.filename, tt.hash, got, want)
		}
	}
}

func TestOriginalFilenameLegacyKey(t *testing.T) {
	// Keys without a hash segment pass through unchanged.
	tests := []struct {
		key  string
		want string
	}{
		{"folder/My File.jpg", "folder/My File.jpg"},
		{"plain.txt", "plain.txt"},
		{"folder/sub/My File.jpg", "folder/sub/My File.jpg"},
	}
	for _, tt := range tests {
		if got := OriginalFilename(tt.key); got != tt.want {
			t.Fatalf("OriginalFilename(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestOriginalFilenameStripsVariantFirst(t *testing.T) {
	key := DeriveKey("folder/My File.jpg", "abcdef1234567890", "resized")
	got := OriginalFilename(key)
	if got != "folder/My File.jpg" {
		t.Fatalf("OriginalFilename(%q) = %q, want %q", key, got, "folder/My File.jpg")
	}
}

func TestDeriveKeyInjective(t *testing.T) {
	inputs := []struct {
		filename string
		hash     string
	}{
		{"a.txt", "aaaaaaaaaa0000000000"},
		{"a.txt", "bbbbbbbbbb0000000000"},
		{"b.txt", "aaaaaaaaaa0000000000"},
		{"dir/a.txt", "aaaaaaaaaa0000000000"},
	}

	seen := make(map[string]int)
	for i, input := range inputs {
		key := DeriveKey(input.filename, input.hash, "")
		if prev, ok := seen[key]; ok {
			t.Fatalf("inputs %d and %d collide on key %q", prev, i, key)
		}
		seen[key] = i
	}
}

func TestCleanFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"folder/My File.jpg", "folder/My File.jpg"},
		{"a__b.txt", "a_b.txt"},
		{"a____b.txt", "a_b.txt"},
		{"/leading/slash.txt", "leading/slash.txt"},
		{"a/./b.txt", "a/b.txt"},
		{"a/../b.txt", "b.txt"},
	}
	for _, tt := range tests {
		if got := CleanFilename(tt.in); got != tt.want {
			t.Fatalf("CleanFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
