// Maps a source selection to an archive URL and the marker describing it
package knsource

import (
	"fmt"
	"strings"

	"github.com/function61/knowledgesync/pkg/kntypes"
)

const (
	GitHub = "https://github.com"

	defaultBranch  = "main"
	fallbackBranch = "master"
)

type Locator struct {
	BaseURL string // example: "https://github.com"
}

func NewLocator() *Locator {
	return &Locator{BaseURL: GitHub}
}

// precedence: tag > release > branch > default branch. conflicting selectors are not
// validated, only the first match is honored.
func (l *Locator) Resolve(spec kntypes.SourceSpec) (string, kntypes.SourceMarker, error) {
	if spec.Repo == "" {
		return "", kntypes.SourceMarker{}, kntypes.ErrMissingSource
	}

	switch {
	case spec.Tag != "":
		return l.archiveURL(spec.Repo, "tags", spec.Tag), kntypes.SourceMarker{
			Repo:   spec.Repo,
			Type:   kntypes.SourceTypeTag,
			Target: spec.Tag,
		}, nil
	case spec.Release != "": // releases are archived by their tag
		return l.archiveURL(spec.Repo, "tags", spec.Release), kntypes.SourceMarker{
			Repo:   spec.Repo,
			Type:   kntypes.SourceTypeRelease,
			Target: spec.Release,
		}, nil
	case spec.Branch != "":
		return l.archiveURL(spec.Repo, "heads", spec.Branch), kntypes.SourceMarker{
			Repo:   spec.Repo,
			Type:   kntypes.SourceTypeBranch,
			Target: spec.Branch,
		}, nil
	default:
		return l.archiveURL(spec.Repo, "heads", defaultBranch), kntypes.SourceMarker{
			Repo:   spec.Repo,
			Type:   kntypes.SourceTypeMain,
			Target: defaultBranch,
		}, nil
	}
}

// older repositories still use "master" as their default branch. only applies to
// sources that did not name a ref explicitly.
func FallbackURL(url string, marker kntypes.SourceMarker) (string, bool) {
	mainSuffix := "/heads/" + defaultBranch + ".zip"

	if marker.Type != kntypes.SourceTypeMain || !strings.HasSuffix(url, mainSuffix) {
		return "", false
	}

	return strings.TrimSuffix(url, mainSuffix) + "/heads/" + fallbackBranch + ".zip", true
}

func (l *Locator) archiveURL(repo string, refKind string, ref string) string {
	return fmt.Sprintf("%s/%s/archive/refs/%s/%s.zip", strings.TrimSuffix(l.BaseURL, "/"), repo, refKind, ref)
}
