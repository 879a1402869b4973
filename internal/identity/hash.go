package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"
)

const (
	hashAttempts     = 3
	hashRetryInitial = 200 * time.Millisecond
)

// ContentHash streams the file through SHA-256 and returns the lowercase hex
// digest along with the byte count hashed. Transient read failures are retried
// with backoff; a file that vanishes mid-read is not retried.
func ContentHash(ctx context.Context, path string) (string, int64, error) {
	var lastErr error
	delay := hashRetryInitial
	for attempt := 0; attempt < hashAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", 0, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		digest, size, err := hashFile(path)
		if err == nil {
			return digest, size, nil
		}
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return "", 0, err
		}
		lastErr = err
	}
	return "", 0, fmt.Errorf("hash %s after %d attempts: %w", path, hashAttempts, lastErr)
}

func hashFile(path string) (string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer file.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, file)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}
