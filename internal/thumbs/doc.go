// Package thumbs generates thumbnail artifacts for catalog entries and owns
// the bounded retry policy for failed generations. Images are resampled with
// a Catmull-Rom kernel; videos get a poster frame extracted near the
// midpoint. Failed generations are retried on a schedule until the attempt
// budget runs out, at which point the record is kept and an alert is raised.
package thumbs
