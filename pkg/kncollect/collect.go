// Selects the files of a materialized source that should become knowledge
package kncollect

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/function61/gokit/fileexists"
	"github.com/function61/gokit/logex"
	"github.com/function61/knowledgesync/pkg/kntypes"
	"github.com/samber/lo"
)

const (
	FilterAny = "ANY"
)

// transforms files in a format the backend does not accept into a new sibling file
type Converter interface {
	Converts(path string) bool
	Convert(ctx context.Context, path string) (string, error)
}

type Selector struct {
	converter Converter // nil = no conversion
	logl      *logex.Leveled
}

func NewSelector(converter Converter, logl *logex.Leveled) *Selector {
	return &Selector{
		converter: converter,
		logl:      logl,
	}
}

// returns paths (rootDir-prefixed) of files under rootDir/subDir matching filter, in
// lexical walk order. filter is FilterAny or comma-separated extensions ("md,txt").
//
// hidden entries are skipped and hidden directories not descended into.
func (s *Selector) Select(ctx context.Context, rootDir string, subDir string, filter string) ([]string, error) {
	scanRoot := rootDir
	if subDir != "" && subDir != "." {
		scanRoot = filepath.Join(rootDir, subDir)
	}

	exists, err := fileexists.Exists(scanRoot)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("could not find the specified directory %s: %w", scanRoot, kntypes.ErrNotFound)
	}

	s.logl.Info.Printf("start collecting knowledge in %s", scanRoot)

	matches := extensionMatcher(filter)

	selected := []string{}

	if err := filepath.WalkDir(scanRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err // stop if encountering walk errors
		}

		if path == scanRoot {
			return nil
		}

		if strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// directories are never selected, not even ones named like "docs.md"
		if entry.IsDir() {
			return nil
		}

		if matches(entry.Name()) {
			selected = append(selected, path)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	s.logSelection(selected)

	if s.converter != nil {
		selected = s.convert(ctx, selected)
	}

	totalSize, err := totalSize(selected)
	if err != nil {
		return nil, err
	}

	s.logl.Info.Printf(
		"collected %d knowledge sources sizing %s bytes (%s)",
		len(selected),
		humanize.Comma(totalSize),
		humanize.Bytes(uint64(totalSize)))

	return selected, nil
}

func (s *Selector) convert(ctx context.Context, files []string) []string {
	converted := []string{}

	for _, file := range files {
		if !s.converter.Converts(file) {
			converted = append(converted, file)
			continue
		}

		out, err := s.converter.Convert(ctx, file)
		if err != nil {
			s.logl.Error.Printf("dropping %s: %v", file, err)
			continue
		}

		s.logl.Debug.Printf("%s converted to %s", filepath.Base(file), out)

		converted = append(converted, out)
	}

	return converted
}

// first and last three
func (s *Selector) logSelection(files []string) {
	s.logl.Debug.Println("list of files collected:")

	for i, file := range files {
		switch {
		case i < 3, i >= len(files)-3:
			s.logl.Debug.Printf("- %s", file)
		case i == 3:
			s.logl.Debug.Println("- ... omitting ...")
		}
	}
}

func extensionMatcher(filter string) func(name string) bool {
	if filter == "" || strings.EqualFold(filter, FilterAny) {
		return func(string) bool { return true }
	}

	suffixes := ParseFilter(filter)

	return func(name string) bool {
		for _, suffix := range suffixes {
			if strings.HasSuffix(name, suffix) {
				return true
			}
		}

		return false
	}
}

// "md, .txt,,rst" => [".md", ".txt", ".rst"]
func ParseFilter(filter string) []string {
	return lo.FilterMap(strings.Split(filter, ","), func(item string, _ int) (string, bool) {
		extension := strings.TrimPrefix(strings.TrimSpace(item), ".")
		return "." + extension, extension != ""
	})
}

func totalSize(files []string) (int64, error) {
	total := int64(0)

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			return 0, err
		}

		total += info.Size()
	}

	return total, nil
}
