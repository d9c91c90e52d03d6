package manager

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/addonkit/addonkit/internal/catalog"
)

// downloadArtifact streams one artifact to destPath, reporting the artifact's
// own byte fraction through onFrac. Transport failures come back as
// *catalog.NetworkError, disk failures wrapped in ErrIO, and cancellation as
// the context's error.
func (m *Manager) downloadArtifact(ctx context.Context, rawURL, destPath string, onFrac func(float64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &catalog.NetworkError{URI: rawURL, Err: err}
	}

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &catalog.NetworkError{URI: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &catalog.NetworkError{URI: rawURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrIO, destPath, err)
	}
	defer f.Close()

	total := resp.ContentLength
	var downloaded int64

	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("%w: writing %s: %v", ErrIO, destPath, writeErr)
			}
			downloaded += int64(n)
			if total > 0 && onFrac != nil {
				onFrac(float64(downloaded) / float64(total))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &catalog.NetworkError{URI: rawURL, Err: readErr}
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrIO, destPath, err)
	}
	return nil
}
