package storage

// Config holds signature storage configuration
type Config struct {
	Dir           string   // Root directory for signature images
	MaxFileSizeKB int64    // Upper bound for a single image
	AllowedTypes  []string // e.g. "image/png"
}
