// Package identity computes what makes a media file itself: the SHA-256
// content hash, a DCT perceptual fingerprint, pixel dimensions, and the
// capture timestamp resolved through EXIF, container metadata, filename
// patterns, and file modification time in that order.
package identity
