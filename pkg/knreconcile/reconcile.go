// Removes backend-stored files that no collection references
package knreconcile

import (
	"context"
	"fmt"

	"github.com/function61/gokit/logex"
	"github.com/function61/knowledgesync/pkg/kntypes"
	"github.com/samber/lo"
)

type FileDeleter interface {
	DeleteFile(ctx context.Context, id string) error
}

// file IDs of the inventory referenced by no collection, in inventory order.
// membership in any one collection exempts a file.
func Orphans(collections []kntypes.Collection, files []kntypes.RemoteFile) []string {
	candidates := fileIDs(files)

	for _, collection := range collections {
		candidates = lo.Without(candidates, fileIDs(collection.Files)...)
	}

	return candidates
}

// deletes orphans one at a time. the first failed deletion aborts the whole run; IDs
// deleted until then are returned along with the error.
func Reconcile(
	ctx context.Context,
	deleter FileDeleter,
	collections []kntypes.Collection,
	files []kntypes.RemoteFile,
	logl *logex.Leveled,
) ([]string, error) {
	logl.Info.Printf("file ID count: %d", len(files))

	for _, collection := range collections {
		logl.Debug.Printf("collection %s contains %d files", collection.Name, len(collection.Files))
	}

	orphans := Orphans(collections, files)

	logl.Info.Printf("found %d files not used in any knowledge collection", len(orphans))

	deleted := []string{}

	for i, id := range orphans {
		if err := deleter.DeleteFile(ctx, id); err != nil {
			return deleted, fmt.Errorf("cleanup aborted after %d/%d deletions: %w", len(deleted), len(orphans), err)
		}

		deleted = append(deleted, id)

		if i%10 == 9 {
			logl.Info.Printf("files cleaned up: %d", i+1)
		}
	}

	return deleted, nil
}

func fileIDs(files []kntypes.RemoteFile) []string {
	return lo.Map(files, func(file kntypes.RemoteFile, _ int) string { return file.ID })
}
