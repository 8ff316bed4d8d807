package delivery

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

// dropDirLayout names the per-delivery subdirectory on the shared drive.
const dropDirLayout = "2006-01-02T150405"

// stageToSharedDrive copies every staged file into a fresh timestamped
// subdirectory of the shared drive. The copy is all-or-nothing: any
// failure removes the subdirectory and fails the delivery.
func stageToSharedDrive(ctx context.Context, sharedDir string, files []string, now time.Time) (string, error) {
	dst := filepath.Join(sharedDir, now.Format(dropDirLayout))
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", fmt.Errorf("delivery: create drop dir: %w", err)
	}

	g, _ := errgroup.WithContext(ctx)
	for _, src := range files {
		src := src
		g.Go(func() error {
			return copyFile(src, filepath.Join(dst, filepath.Base(src)))
		})
	}
	if err := g.Wait(); err != nil {
		os.RemoveAll(dst)
		return "", fmt.Errorf("delivery: shared drive copy: %w", err)
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
