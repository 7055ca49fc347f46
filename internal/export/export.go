// Package export saves agent answers as Markdown documents.
package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// DefaultDir is where documents go when no directory is configured.
const DefaultDir = "./output"

const (
	filePrefix      = "scheduler_"
	timestampLayout = "2006-01-02_15-04-05"
	headerLayout    = "2006-01-02 at 15:04"
	maxAttempts     = 100
)

// Exporter writes answers into one directory.
type Exporter struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithFs replaces the filesystem, typically with afero.NewMemMapFs in tests.
func WithFs(fsys afero.Fs) Option {
	return func(e *Exporter) { e.fs = fsys }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// New returns an Exporter for dir on the OS filesystem.
func New(dir string, opts ...Option) *Exporter {
	if dir == "" {
		dir = DefaultDir
	}
	e := &Exporter{fs: afero.NewOsFs(), dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dir returns the target directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// Save writes answer to scheduler_<timestamp>.md and returns the path.
// Existing files are never overwritten; a numeric suffix is added instead.
func (e *Exporter) Save(answer string) (string, error) {
	if strings.TrimSpace(answer) == "" {
		return "", errors.New("nothing to export")
	}
	if err := e.fs.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	now := e.now()
	content := Render(answer, now)
	base := filePrefix + now.Format(timestampLayout)

	for i := 0; i < maxAttempts; i++ {
		name := base + ".md"
		if i > 0 {
			name = fmt.Sprintf("%s-%d.md", base, i)
		}
		path := filepath.Join(e.dir, name)

		f, err := e.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", path, err)
		}
		if _, err := f.WriteString(content); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free file name for %s in %s", base, e.dir)
}

// Render returns the Markdown document for answer generated at now.
func Render(answer string, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Scheduler Result\n\n")
	fmt.Fprintf(&b, "**Generated:** %s  \n", now.Format(headerLayout))
	b.WriteString("**Created by:** Scheduler Agent\n\n")
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(answer))
	b.WriteString("\n\n---\n\n")
	b.WriteString("*This schedule was generated automatically. Verify times and event details before relying on your calendar.*\n")
	return b.String()
}
