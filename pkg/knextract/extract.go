// Materializes a source archive into a normalized cache directory
package knextract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/function61/gokit/logex"
	"github.com/function61/knowledgesync/pkg/knmarker"
	"github.com/function61/knowledgesync/pkg/kntypes"
	"github.com/klauspost/compress/zip"
)

type Result struct {
	Prefix string // common root directory that was stripped ("" if none)
	Files  int
	Dirs   int
}

// replaces dest's contents with the archive's contents, tagged with marker.
//
// GitHub-style archives nest everything under a single "repo-ref/" directory. when the
// first entry is a directory, its name is treated as the prefix of every entry and
// stripped, so dest ends up holding the repository root.
//
// dest is cleared and the marker written before unpacking. if unpacking fails, the
// marker is removed again, but a crash in between leaves a marker next to an
// incomplete tree.
func Extract(archivePath string, dest string, marker kntypes.SourceMarker, logl *logex.Leveled) (*Result, error) {
	archive, err := zip.OpenReader(archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("archive %s: %w", archivePath, kntypes.ErrNotFound)
		}

		return nil, fmt.Errorf("archive %s: %w: %v", archivePath, kntypes.ErrCorruptArchive, err)
	}
	defer archive.Close()

	if err := resetDir(dest); err != nil {
		return nil, err
	}

	if err := knmarker.Write(dest, marker); err != nil {
		return nil, err
	}
	logl.Debug.Printf("marker written in %s", knmarker.Path(dest))

	result, err := unpack(archive.File, dest, logl)
	if err != nil {
		if errRemove := knmarker.Remove(dest); errRemove != nil {
			logl.Error.Printf("removing marker after failed extraction: %v", errRemove)
		}

		return nil, fmt.Errorf("extract %s: %w", archivePath, err)
	}

	return result, nil
}

func unpack(entries []*zip.File, dest string, logl *logex.Leveled) (*Result, error) {
	result := &Result{
		Prefix: commonPrefix(entries),
	}

	if result.Prefix != "" {
		logl.Debug.Printf("directory prefix found is %s", result.Prefix)
	}

	for _, entry := range entries {
		isDir := isDirEntry(entry)

		if isDir && entry.Name == result.Prefix { // the prefix dir itself is dest
			continue
		}

		relative := strings.TrimPrefix(entry.Name, result.Prefix)

		target, err := destinationPath(dest, relative)
		if err != nil {
			return nil, err
		}

		if target == dest {
			continue
		}

		if filepath.Dir(target) == dest && filepath.Base(target) == knmarker.Filename {
			logl.Error.Printf("skipping archive entry that would overwrite marker: %s", entry.Name)
			continue
		}

		if isDir {
			logl.Debug.Printf("creating directory %s", target)

			if err := os.MkdirAll(target, 0755); err != nil {
				return nil, err
			}

			result.Dirs++
			continue
		}

		logl.Debug.Printf("extracting file %s", target)

		if err := extractFile(entry, target); err != nil {
			return nil, err
		}

		result.Files++
	}

	return result, nil
}

// the archive's first entry decides. only a directory yields a prefix.
func commonPrefix(entries []*zip.File) string {
	if len(entries) == 0 || !isDirEntry(entries[0]) {
		return ""
	}

	return entries[0].Name
}

func isDirEntry(entry *zip.File) bool {
	return strings.HasSuffix(entry.Name, "/") || entry.FileInfo().IsDir()
}

// joins relative (slash-separated, as in archives) under dest, refusing paths that
// would escape dest
func destinationPath(dest string, relative string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(relative))

	rel, err := filepath.Rel(dest, target)
	if err != nil || filepath.IsAbs(relative) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: entry escapes destination: %s", kntypes.ErrCorruptArchive, relative)
	}

	return target, nil
}

func extractFile(entry *zip.File, target string) error {
	// does not error if already exists
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	source, err := entry.Open()
	if err != nil {
		return wrapReadError(entry, err)
	}
	defer source.Close()

	targetFile, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer targetFile.Close() // double close intentional

	if _, err := io.Copy(targetFile, source); err != nil {
		return wrapReadError(entry, err)
	}

	return targetFile.Close()
}

func wrapReadError(entry *zip.File, err error) error {
	if errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrAlgorithm) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s: %w: %v", entry.Name, kntypes.ErrCorruptArchive, err)
	}

	return fmt.Errorf("%s: %w", entry.Name, err)
}

// destructive: dest is removed if it exists and recreated empty
func resetDir(dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return err
	}

	return os.MkdirAll(dest, 0755)
}
