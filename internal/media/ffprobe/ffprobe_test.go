package ffprobe

import (
	"testing"
	"time"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio"},
			{CodecType: "video", Width: 1920, Height: 1080, AvgFrameRate: "30000/1001"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
		},
	}
	if w, h := result.Dimensions(); w != 1920 || h != 1080 {
		t.Fatalf("unexpected dimensions %dx%d", w, h)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if rate := result.FrameRate(); rate < 29.9 || rate > 30.0 {
		t.Fatalf("unexpected frame rate: %v", rate)
	}
}

func TestDimensionsHonorRotation(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 1920, Height: 1080, Tags: map[string]string{"rotate": "90"}},
		},
	}
	if w, h := result.Dimensions(); w != 1080 || h != 1920 {
		t.Fatalf("rotation not applied: %dx%d", w, h)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected duration 0, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.FrameRate() != 0 {
		t.Fatalf("expected frame rate 0, got %v", result.FrameRate())
	}
}

func TestCreationTimePrefersFormatTag(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Tags: map[string]string{"creation_time": "2023-01-01T00:00:00Z"}},
		},
		Format: Format{
			Tags: map[string]string{"creation_time": "2024-08-15T14:30:52.000000Z"},
		},
	}
	want := time.Date(2024, 8, 15, 14, 30, 52, 0, time.UTC)
	if got := result.CreationTime(); !got.Equal(want) {
		t.Fatalf("creation time %v, want %v", got, want)
	}
}

func TestCreationTimeMissing(t *testing.T) {
	var result Result
	if !result.CreationTime().IsZero() {
		t.Fatal("expected zero time for missing creation_time")
	}
}
