package knclient

import (
	"context"

	"github.com/function61/knowledgesync/pkg/knreconcile"
)

func cleanup(ctx context.Context, client *Client) error {
	client.logl.Info.Println("retrieving knowledge collections list")

	collections, err := client.ListCollections(ctx)
	if err != nil {
		return err
	}

	client.logl.Info.Println("retrieving uploaded files list")

	files, err := client.ListFiles(ctx)
	if err != nil {
		return err
	}

	deleted, err := knreconcile.Reconcile(ctx, client, collections, files, client.logl)
	if err != nil {
		return err
	}

	client.logl.Info.Printf("cleaned up %d files not used in any collection", len(deleted))

	return nil
}
