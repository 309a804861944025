package domain

// MediaAsset describes an accepted image upload stored under its
// storage key. Keys are generated, never reused, and a key is referenced
// by at most one live Post at a time.
type MediaAsset struct {
	StorageKey   string `json:"storageKey"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	SizeBytes    int64  `json:"sizeBytes"`
}
