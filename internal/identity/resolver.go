package identity

import (
	"context"
	"image"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"photoflow/internal/catalog"
	"photoflow/internal/config"
	"photoflow/internal/logging"
	"photoflow/internal/media/ffprobe"
	"photoflow/internal/services"
)

// Prober inspects a media container for stream and format metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

// FFprobeProber is the production Prober, shelling out to ffprobe.
type FFprobeProber struct {
	Binary string
}

// Probe runs ffprobe against the path.
func (p FFprobeProber) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	return ffprobe.Inspect(ctx, p.Binary, path)
}

// Resolver computes the identity of a media file: its cryptographic content
// hash, perceptual fingerprint, dimensions, and capture timestamp. A resolver
// is safe for concurrent use.
type Resolver struct {
	prober      Prober
	frames      FrameExtractor
	defaultLoc  *time.Location
	frameCapSec int
	logger      *slog.Logger
}

// NewResolver builds a resolver from configuration. prober and frames may be
// stubbed in tests; nil selects the ffprobe/ffmpeg implementations.
func NewResolver(cfg *config.Config, logger *slog.Logger, prober Prober, frames FrameExtractor) *Resolver {
	if prober == nil {
		prober = FFprobeProber{Binary: cfg.FFprobeBinary()}
	}
	if frames == nil {
		frames = NewFFmpegExtractor(cfg.FFmpegBinary())
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		prober:      prober,
		frames:      frames,
		defaultLoc:  cfg.DefaultLocation(),
		frameCapSec: cfg.Thumbnails.FrameOffsetCapSeconds,
		logger:      logger,
	}
}

// Resolve computes a MediaCandidate for the file at path. The content hash is
// always computed; a missing perceptual hash is tolerated and left empty, a
// missing capture timestamp falls back through metadata, filename, and
// finally file modification time.
func (r *Resolver) Resolve(ctx context.Context, path string, origin catalog.Origin, kind catalog.MediaKind) (*catalog.MediaCandidate, error) {
	contentHash, byteSize, err := ContentHash(ctx, path)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "identity", "resolve", "compute content hash", err)
	}

	candidate := &catalog.MediaCandidate{
		Origin:        origin,
		SourceLocator: path,
		FileName:      filepath.Base(path),
		Kind:          kind,
		ByteSize:      byteSize,
		ContentHash:   contentHash,
		MimeType:      mimeForPath(path),
	}

	switch kind {
	case catalog.KindVideo:
		r.resolveVideo(ctx, path, candidate)
	default:
		r.resolveImage(ctx, path, candidate)
	}

	if candidate.ShotAt.IsZero() {
		if shotAt, ok := ShotAtFromFilename(candidate.FileName, r.defaultLoc); ok {
			candidate.ShotAt = shotAt
		} else if shotAt, ok := ShotAtFromModTime(path); ok {
			candidate.ShotAt = shotAt
		}
	}

	return candidate, nil
}

// resolveImage fills in dimensions, perceptual hash, and EXIF capture time.
// Every step degrades to "absent" on failure; decode errors never fail the
// resolve, so formats without a registered decoder still import on the
// content hash alone.
func (r *Resolver) resolveImage(ctx context.Context, path string, candidate *catalog.MediaCandidate) {
	file, err := os.Open(path)
	if err != nil {
		r.logger.Debug("image metadata unavailable",
			logging.String("file", candidate.FileName),
			logging.Error(err))
		return
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		r.logger.Debug("image decode unavailable",
			logging.String("file", candidate.FileName),
			logging.Error(err))
	} else {
		candidate.Width = cfg.Width
		candidate.Height = cfg.Height
		if _, err := file.Seek(0, 0); err == nil {
			if hash, err := PerceptualHashFromReader(file); err == nil {
				candidate.PerceptualHash = hash
			} else {
				r.logger.Debug("perceptual hash unavailable",
					logging.String("file", candidate.FileName),
					logging.Error(err))
			}
		}
	}

	if shotAt, ok := ShotAtFromEXIF(path, r.defaultLoc); ok {
		candidate.ShotAt = shotAt
	}
}

// resolveVideo fills in stream metadata and a poster-frame perceptual hash.
// A failed probe means "no data": frame extraction is still attempted so the
// perceptual tier keeps working for containers ffprobe cannot parse.
func (r *Resolver) resolveVideo(ctx context.Context, path string, candidate *catalog.MediaCandidate) {
	result, err := r.prober.Probe(ctx, path)
	if err != nil {
		r.logger.Debug("video probe unavailable",
			logging.String("file", candidate.FileName),
			logging.Error(err))
	} else {
		candidate.Width, candidate.Height = result.Dimensions()
		candidate.DurationSec = result.DurationSeconds()
		if created := result.CreationTime(); !created.IsZero() {
			candidate.ShotAt = created
		}
	}

	offset := FrameOffset(candidate.DurationSec, r.frameCapSec)
	frame, err := r.frames.ExtractFrame(ctx, path, offset)
	if err != nil {
		r.logger.Debug("frame extraction failed",
			logging.String("file", candidate.FileName),
			logging.Error(err))
		return
	}
	hash, err := PerceptualHashFromBytes(frame)
	if err != nil {
		r.logger.Debug("perceptual hash unavailable",
			logging.String("file", candidate.FileName),
			logging.Error(err))
		return
	}
	candidate.PerceptualHash = hash
}

func mimeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}
