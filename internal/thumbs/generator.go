package thumbs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"photoflow/internal/catalog"
	"photoflow/internal/config"
	"photoflow/internal/identity"
)

// Generator produces thumbnail JPEGs for catalog entries. Images are decoded
// and resampled directly; videos first get a representative frame extracted
// via ffmpeg and then go through the same resample path.
type Generator struct {
	dir         string
	maxEdge     int
	frames      identity.FrameExtractor
	frameCapSec int
}

// NewGenerator builds a generator from configuration. frames may be stubbed
// in tests; nil selects the ffmpeg implementation.
func NewGenerator(cfg *config.Config, frames identity.FrameExtractor) *Generator {
	if frames == nil {
		frames = identity.NewFFmpegExtractor(cfg.FFmpegBinary())
	}
	return &Generator{
		dir:         cfg.Thumbnails.Dir,
		maxEdge:     cfg.Thumbnails.MaxEdge,
		frames:      frames,
		frameCapSec: cfg.Thumbnails.FrameOffsetCapSeconds,
	}
}

// Path returns where an entry's thumbnail lives.
func (g *Generator) Path(entry *catalog.CatalogEntry) string {
	return filepath.Join(g.dir, entry.PublicID+".jpg")
}

// Generate renders the thumbnail for entry from the media at sourcePath and
// writes it atomically. Returns the thumbnail path.
func (g *Generator) Generate(ctx context.Context, entry *catalog.CatalogEntry, sourcePath string) (string, error) {
	var img image.Image
	var err error
	switch entry.Kind {
	case catalog.KindVideo:
		img, err = g.decodeVideoFrame(ctx, entry, sourcePath)
	default:
		img, err = decodeImageFile(sourcePath)
	}
	if err != nil {
		return "", err
	}

	thumb := resample(img, g.maxEdge)
	target := g.Path(entry)
	if err := writeJPEGAtomic(target, thumb); err != nil {
		return "", err
	}
	return target, nil
}

func (g *Generator) decodeVideoFrame(ctx context.Context, entry *catalog.CatalogEntry, sourcePath string) (image.Image, error) {
	offset := identity.FrameOffset(entry.DurationSec, g.frameCapSec)
	frame, err := g.frames.ExtractFrame(ctx, sourcePath, offset)
	if err != nil {
		return nil, fmt.Errorf("extract poster frame: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("decode poster frame: %w", err)
	}
	return img, nil
}

func decodeImageFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// resample scales the image so its longest edge is at most maxEdge,
// preserving aspect ratio. Images already small enough pass through.
func resample(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxEdge && height <= maxEdge {
		return img
	}

	var newWidth, newHeight int
	if width >= height {
		newWidth = maxEdge
		newHeight = height * maxEdge / width
	} else {
		newHeight = maxEdge
		newWidth = width * maxEdge / height
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func writeJPEGAtomic(target string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".thumb-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: 85}); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
