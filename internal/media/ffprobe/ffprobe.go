package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int               `json:"index"`
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	Duration     string            `json:"duration"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	Tags         map[string]string `json:"tags"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string            `json:"filename"`
	NBStreams  int               `json:"nb_streams"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	result.raw = append([]byte(nil), output...)
	return result, nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// FirstVideoStream returns the first video stream, or nil when none exists.
func (r Result) FirstVideoStream() *Stream {
	for i := range r.Streams {
		if strings.EqualFold(r.Streams[i].CodecType, "video") {
			return &r.Streams[i]
		}
	}
	return nil
}

// Dimensions returns the pixel dimensions of the first video stream. Rotation
// metadata of 90 or 270 degrees swaps the axes so callers see display
// orientation.
func (r Result) Dimensions() (width, height int) {
	stream := r.FirstVideoStream()
	if stream == nil {
		return 0, 0
	}
	width, height = stream.Width, stream.Height
	if rotate := strings.TrimSpace(stream.Tags["rotate"]); rotate == "90" || rotate == "270" || rotate == "-90" {
		width, height = height, width
	}
	return width, height
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	duration := parseFloat(r.Format.Duration)
	if math.IsNaN(duration) || duration < 0 {
		return 0
	}
	return duration
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

// FrameRate returns the average frame rate of the first video stream as a
// float, or 0 when unavailable. ffprobe reports it as a rational like "30/1".
func (r Result) FrameRate() float64 {
	stream := r.FirstVideoStream()
	if stream == nil {
		return 0
	}
	parts := strings.SplitN(stream.AvgFrameRate, "/", 2)
	if len(parts) != 2 {
		return 0
	}
	num := parseFloat(parts[0])
	den := parseFloat(parts[1])
	if math.IsNaN(num) || math.IsNaN(den) || den == 0 {
		return 0
	}
	return num / den
}

// creationTimeLayouts covers the timestamp formats cameras and phones write
// into the creation_time tag.
var creationTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02 15:04:05",
}

// CreationTime returns the container or first-video-stream creation_time tag
// parsed as UTC, or the zero time when absent or unparseable.
func (r Result) CreationTime() time.Time {
	candidates := []string{r.Format.Tags["creation_time"]}
	if stream := r.FirstVideoStream(); stream != nil {
		candidates = append(candidates, stream.Tags["creation_time"])
	}
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		for _, layout := range creationTimeLayouts {
			if parsed, err := time.Parse(layout, candidate); err == nil {
				return parsed.UTC()
			}
		}
	}
	return time.Time{}
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
