package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Downloader saves an encoded artifact where the user can get it.
type Downloader interface {
	// Save stores data under name and returns where it was stored.
	Save(name string, data []byte) (string, error)
}

// Sender transmits an encoded artifact to a host user.
type Sender interface {
	Send(ctx context.Context, userID, base64Image string) error
}

// FileName returns the timestamped artifact name.
func FileName(t time.Time) string {
	return fmt.Sprintf("heatmap-%d.jpeg", t.UnixMilli())
}

// FileDownloader saves artifacts into a directory. Files are written to a
// temporary name and renamed, so readers never see a partial artifact.
type FileDownloader struct {
	Dir string
}

// Save implements Downloader. The temporary file is always removed.
func (d FileDownloader) Save(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("save %s: empty artifact", name)
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(d.Dir, ".heatmap-*.part")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	dst := filepath.Join(d.Dir, filepath.Base(name))
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return dst, nil
}
