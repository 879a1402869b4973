package identity

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// filenameTimePattern matches camera-style timestamps embedded in filenames,
// e.g. IMG_20240815_143052.jpg or PXL_20240815_143052123.mp4.
var filenameTimePattern = regexp.MustCompile(`(20\d{2})(\d{2})(\d{2})[_-]?(\d{2})(\d{2})(\d{2})`)

// ShotAtFromEXIF reads DateTimeOriginal from a file's EXIF block. When the
// companion OffsetTimeOriginal tag is present the embedded offset is honored;
// otherwise the timestamp is interpreted in defaultLoc. Any decode or parse
// failure reports false rather than an error so callers fall through to the
// next source.
func ShotAtFromEXIF(path string, defaultLoc *time.Location) (time.Time, bool) {
	file, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer file.Close()

	meta, err := exif.Decode(file)
	if err != nil {
		return time.Time{}, false
	}

	tag, err := meta.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, false
	}
	value, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}
	value = strings.TrimSpace(value)

	if offsetTag, err := meta.Get(exif.FieldName("OffsetTimeOriginal")); err == nil {
		if offset, err := offsetTag.StringVal(); err == nil {
			offset = strings.TrimSpace(offset)
			if parsed, err := time.Parse(exifTimeLayout+"-07:00", value+offset); err == nil {
				return parsed.UTC(), true
			}
		}
	}

	parsed, err := time.ParseInLocation(exifTimeLayout, value, defaultLoc)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

// ShotAtFromFilename extracts a timestamp embedded in the file name,
// interpreted in the given location. The pattern must also form a valid
// calendar time; 20241340 is not a date.
func ShotAtFromFilename(name string, loc *time.Location) (time.Time, bool) {
	match := filenameTimePattern.FindStringSubmatch(name)
	if match == nil {
		return time.Time{}, false
	}
	compact := match[1] + match[2] + match[3] + match[4] + match[5] + match[6]
	parsed, err := time.ParseInLocation("20060102150405", compact, loc)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

// ShotAtFromModTime returns the file's modification time in UTC, the source
// of last resort.
func ShotAtFromModTime(path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime().UTC(), true
}
