// Persists the identity of the source version materialized in a cache directory
package knmarker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/function61/gokit/jsonfile"
	"github.com/function61/gokit/logex"
	"github.com/function61/knowledgesync/pkg/kntypes"
)

const (
	Filename = ".knowledgesync.json"
)

func Path(dir string) string {
	return filepath.Join(dir, Filename)
}

func Write(dir string, marker kntypes.SourceMarker) error {
	if err := jsonfile.Write(Path(dir), &marker); err != nil {
		return fmt.Errorf("marker write %s: %w", Path(dir), err)
	}

	return nil
}

// returns nil result without an error, if dir has no marker
func Read(dir string) (*kntypes.SourceMarker, error) {
	file, err := os.Open(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		} else {
			return nil, err
		}
	}
	defer file.Close()

	marker := &kntypes.SourceMarker{}
	if err := jsonfile.Unmarshal(file, marker, true); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", Path(dir), kntypes.ErrCorruptMarker, err)
	}

	if marker.Repo == "" || !marker.Type.Valid() {
		return nil, fmt.Errorf("%s: %w: incomplete record", Path(dir), kntypes.ErrCorruptMarker)
	}

	return marker, nil
}

func Remove(dir string) error {
	if err := os.Remove(Path(dir)); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// field-wise, so key order of the serialized form cannot cause false mismatches
func Identical(a kntypes.SourceMarker, b kntypes.SourceMarker) bool {
	return a.Repo == b.Repo && a.Type == b.Type && a.Target == b.Target
}

// reports whether dir holds exactly the candidate version. unreadable markers mean
// "not current" so that the caller refreshes instead of failing.
func IsCurrent(dir string, candidate kntypes.SourceMarker, logl *logex.Leveled) bool {
	existing, err := Read(dir)
	if err != nil {
		logl.Error.Printf("ignoring existing marker: %v", err)
		return false
	}

	if existing == nil {
		logl.Debug.Printf("no marker in %s", dir)
		return false
	}

	logl.Debug.Printf("existing marker found at %s: %s", Path(dir), existing.String())

	return Identical(*existing, candidate)
}
