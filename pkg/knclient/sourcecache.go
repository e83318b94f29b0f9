package knclient

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/function61/gokit/logex"
	"github.com/function61/knowledgesync/pkg/knextract"
	"github.com/function61/knowledgesync/pkg/knmarker"
	"github.com/function61/knowledgesync/pkg/knsource"
	"github.com/function61/knowledgesync/pkg/kntypes"
)

const (
	archiveFilename = "data.zip"
)

// local cache of sources, each materialized in root/<owner>/<repo>. not safe for
// concurrent use by multiple processes.
type sourceCache struct {
	root       string
	locator    *knsource.Locator
	downloader *knsource.Downloader
	logl       *logex.Leveled
}

func newSourceCache(root string, logl *logex.Leveled) *sourceCache {
	return &sourceCache{
		root:       root,
		locator:    knsource.NewLocator(),
		downloader: knsource.NewDownloader(logl),
		logl:       logl,
	}
}

// dir of the source. refuses repos that are not "owner/name" or that would resolve
// outside of the cache, because extraction wipes this directory.
func (s *sourceCache) dir(marker kntypes.SourceMarker) (string, error) {
	segments := strings.Split(marker.Repo, "/")
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return "", fmt.Errorf("invalid repo: %s (expecting owner/name)", marker.Repo)
	}

	dir := filepath.Join(s.root, filepath.FromSlash(marker.Repo))

	rel, err := filepath.Rel(s.root, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(marker.Repo) {
		return "", fmt.Errorf("invalid repo: %s", marker.Repo)
	}

	return dir, nil
}

func (s *sourceCache) resolve(spec kntypes.SourceSpec) (string, kntypes.SourceMarker, string, error) {
	zipURL, marker, err := s.locator.Resolve(spec)
	if err != nil {
		return "", marker, "", err
	}

	dir, err := s.dir(marker)
	if err != nil {
		return "", marker, "", err
	}

	return zipURL, marker, dir, nil
}

// returns false without touching the network if the spec'd version is already present
func (s *sourceCache) download(ctx context.Context, spec kntypes.SourceSpec) (bool, error) {
	zipURL, marker, dir, err := s.resolve(spec)
	if err != nil {
		return false, err
	}

	s.logl.Debug.Printf("URL of the knowledge source: %s", zipURL)
	s.logl.Debug.Printf("knowledge source: %s", marker.String())

	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, err
	}

	if knmarker.IsCurrent(dir, marker, s.logl) {
		s.logl.Info.Println("the knowledge source data is already downloaded")
		return false, nil
	}

	archivePath := filepath.Join(s.root, archiveFilename)

	s.logl.Info.Printf("downloading zip file from %s", zipURL)

	usedURL, err := s.downloader.DownloadWithFallback(ctx, zipURL, marker, archivePath)
	if err != nil {
		return false, err
	}

	s.logl.Info.Printf("zip file from %s downloaded to %s", usedURL, archivePath)

	result, err := knextract.Extract(archivePath, dir, marker, s.logl)
	if err != nil {
		return false, err
	}

	s.logl.Info.Printf("extracted %d files into %s", result.Files, dir)

	if err := os.Remove(archivePath); err != nil {
		s.logl.Error.Printf("removing archive: %v", err)
	}

	return true, nil
}

// dir of the source, if that exact version is present
func (s *sourceCache) present(spec kntypes.SourceSpec) (string, error) {
	_, marker, dir, err := s.resolve(spec)
	if err != nil {
		return "", err
	}

	if !knmarker.IsCurrent(dir, marker, s.logl) {
		return "", fmt.Errorf("%s needs to be downloaded first: %w", marker.String(), kntypes.ErrNotFound)
	}

	return dir, nil
}
