package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/src-d/enry/v2"
)

// ErrNoRoots is returned when Collect is called without any root.
var ErrNoRoots = errors.New("no source roots given")

// Default collection settings.
var (
	DefaultExtensions = []string{".scala", ".sc", ".java"}
	DefaultLanguages  = []string{"Scala", "Java"}
)

// DefaultMaxFileSize bounds the size of a single collected file.
const DefaultMaxFileSize = 1 << 20 // 1 MiB.

// CollectOptions controls which files Collect picks up.
type CollectOptions struct {
	Roots       []string
	Extensions  []string
	Languages   []string
	MaxFileSize int64
	SkipVendor  bool
}

// Stats summarizes a collection run.
type Stats struct {
	Files   int
	Bytes   int64
	Skipped int
}

// String renders the stats for humans, e.g. "12 files, 48 kB".
func (s Stats) String() string {
	return fmt.Sprintf("%d files, %s", s.Files, humanize.Bytes(uint64(max(s.Bytes, 0))))
}

// Collect walks every root and returns the matching files sorted by path.
// Hidden directories are skipped, as are vendored paths when SkipVendor is set.
// A file reached through several roots is returned once.
func Collect(ctx context.Context, logger *slog.Logger, opts CollectOptions) ([]Text, Stats, error) {
	if len(opts.Roots) == 0 {
		return nil, Stats{}, ErrNoRoots
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	exts := normalizeExtensions(opts.Extensions)
	langs := make(map[string]bool, len(opts.Languages))

	for _, l := range opts.Languages {
		langs[strings.ToLower(strings.TrimSpace(l))] = true
	}

	var (
		files []File
		stats Stats
	)

	// Overlapping roots reach the same file more than once; IDs must stay unique.
	seen := make(map[string]bool)
	add := func(path string, size int64) {
		key := path
		if abs, err := filepath.Abs(path); err == nil {
			key = abs
		}

		if seen[key] {
			logger.DebugContext(ctx, "skipping file reached from another root", "path", path)

			return
		}

		seen[key] = true

		files = append(files, NewFile(path))
		stats.Files++
		stats.Bytes += size
	}

	for _, root := range opts.Roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("source root %s: %w", root, err)
		}

		if !info.IsDir() {
			add(root, info.Size())

			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				logger.DebugContext(ctx, "skipping unreadable path", "path", path, "error", err)

				return nil
			}

			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}

			rel = filepath.ToSlash(rel)

			if entry.IsDir() {
				if path != root && skipDir(entry.Name(), rel, opts.SkipVendor) {
					return filepath.SkipDir
				}

				return nil
			}

			if !entry.Type().IsRegular() || !accept(entry.Name(), exts, langs) {
				return nil
			}

			if opts.SkipVendor && enry.IsVendor(rel) {
				stats.Skipped++

				return nil
			}

			fi, infoErr := entry.Info()
			if infoErr != nil {
				logger.DebugContext(ctx, "skipping file without info", "path", path, "error", infoErr)
				stats.Skipped++

				return nil
			}

			if opts.MaxFileSize > 0 && fi.Size() > opts.MaxFileSize {
				logger.DebugContext(ctx, "skipping large file",
					"path", path,
					"size", humanize.Bytes(uint64(fi.Size())),
					"limit", humanize.Bytes(uint64(opts.MaxFileSize)))
				stats.Skipped++

				return nil
			}

			add(path, fi.Size())

			return nil
		})
		if walkErr != nil {
			return nil, Stats{}, fmt.Errorf("walk %s: %w", root, walkErr)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })

	out := make([]Text, len(files))
	for i, f := range files {
		out[i] = f
	}

	return out, stats, nil
}

func skipDir(name, rel string, skipVendor bool) bool {
	if enry.IsDotFile(name) {
		return true
	}

	return skipVendor && enry.IsVendor(rel+"/")
}

// accept matches by extension first, then by the language enry guesses from
// the file name.
func accept(name string, exts map[string]bool, langs map[string]bool) bool {
	if exts[strings.ToLower(filepath.Ext(name))] {
		return true
	}

	if len(langs) == 0 {
		return false
	}

	lang, _ := enry.GetLanguageByExtension(name)
	if lang == "" {
		return false
	}

	return langs[strings.ToLower(lang)]
}

func normalizeExtensions(in []string) map[string]bool {
	out := make(map[string]bool, len(in))

	for _, ext := range in {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}

		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		out[ext] = true
	}

	return out
}
