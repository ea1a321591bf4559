package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kalinav4l/site-scraper/models"
)

// WriteFile renders a session in the given format and writes it under
// dir using the canonical export filename. It returns the full path.
func WriteFile(dir string, s *models.ScrapingSession, format Format) (string, error) {
	data, err := Render(s, format)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, Filename(s.ID, format))
	if err := ensureDir(path); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
