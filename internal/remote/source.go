// Package remote pulls media from a remote photo-library API for import. The
// Source interface yields the same identity metadata as local discovery plus
// a download hook that stages the content locally before hashing.
package remote

import (
	"context"
	"time"

	"photoflow/internal/catalog"
)

// Media is one remote item's metadata plus its content locator.
type Media struct {
	ID          string            `json:"id"`
	FileName    string            `json:"file_name"`
	Kind        catalog.MediaKind `json:"kind"`
	ByteSize    int64             `json:"byte_size"`
	MimeType    string            `json:"mime_type"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	DurationSec float64           `json:"duration_sec"`
	ShotAt      time.Time         `json:"shot_at"`
}

// Page is one listing page. An empty NextCursor ends pagination.
type Page struct {
	Items      []Media `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// Source lists remote media and downloads content into a local staging area.
type Source interface {
	Account() string
	List(ctx context.Context, cursor string) (Page, error)
	Download(ctx context.Context, media Media, targetDir string) (string, error)
}
