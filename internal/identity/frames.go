package identity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FrameExtractor produces a single encoded still frame from a video file.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, path string, offsetSec float64) ([]byte, error)
}

// FFmpegExtractor shells out to ffmpeg for frame extraction.
type FFmpegExtractor struct {
	Binary string
}

// NewFFmpegExtractor returns an extractor bound to the given ffmpeg binary.
func NewFFmpegExtractor(binary string) *FFmpegExtractor {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpegExtractor{Binary: binary}
}

// ExtractFrame decodes one frame at the given offset and returns it as PNG
// bytes. The seek happens before the input so ffmpeg keyframe-seeks instead
// of decoding the whole prefix.
func (e *FFmpegExtractor) ExtractFrame(ctx context.Context, path string, offsetSec float64) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("extract frame: empty path")
	}
	if offsetSec < 0 {
		offsetSec = 0
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Binary,
		"-v", "error",
		"-ss", strconv.FormatFloat(offsetSec, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-c:v", "png",
		"-f", "image2pipe",
		"pipe:1",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("extract frame: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("extract frame: ffmpeg produced no output")
	}
	return stdout.Bytes(), nil
}

// FrameOffset picks the sampling point for a video's representative frame:
// the midpoint, capped so very long videos do not seek deep into the file.
func FrameOffset(durationSec float64, capSec int) float64 {
	if durationSec <= 0 {
		return 0
	}
	offset := durationSec / 2
	if capSec > 0 && offset > float64(capSec) {
		offset = float64(capSec)
	}
	return offset
}
