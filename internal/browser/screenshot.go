package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ScreenshotDebugger saves full-page screenshots for post-mortem debugging.
type ScreenshotDebugger struct {
	outputDir string
	now       func() time.Time
	logger    *zap.Logger
}

func NewScreenshotDebugger(outputDir string, logger *zap.Logger) *ScreenshotDebugger {
	return &ScreenshotDebugger{outputDir: outputDir, now: time.Now, logger: logger}
}

// Capture saves page as <dir>/<name>_<timestamp>.png and returns the path.
func (s *ScreenshotDebugger) Capture(page Page, name, message string) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	filename := fmt.Sprintf("%s_%s.png", unsafeName.ReplaceAllString(name, "_"), s.now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(s.outputDir, filename)
	s.logger.Info("📸 "+message, zap.String("url", page.URL()))

	if err := page.Screenshot(path); err != nil {
		s.logger.Warn("⚠️ Failed to capture screenshot", zap.Error(err))
		return "", err
	}
	s.logger.Info("Screenshot saved", zap.String("path", path))
	return path, nil
}
