package knclient

import (
	"context"
	"errors"

	"github.com/function61/gokit/logex"
	"github.com/function61/knowledgesync/pkg/kncollect"
	"github.com/function61/knowledgesync/pkg/kntypes"
)

type uploadOpts struct {
	source         kntypes.SourceSpec
	dir            string
	filter         string
	collectionName string
	prepareOnly    bool // stop after ensuring the collection exists
	download       bool // download the source first if it is not present
}

func upload(
	ctx context.Context,
	opts uploadOpts,
	cache *sourceCache,
	client *Client,
	selector *kncollect.Selector,
	logl *logex.Leveled,
) error {
	if opts.collectionName == "" {
		return errors.New("collection name not provided")
	}

	if opts.download {
		if _, err := cache.download(ctx, opts.source); err != nil {
			return err
		}
	}

	sourceDir, err := cache.present(opts.source)
	if err != nil {
		return err
	}

	logl.Info.Println("collecting files")

	files, err := selector.Select(ctx, sourceDir, opts.dir, opts.filter)
	if err != nil {
		return err
	}

	logl.Info.Println("ensuring the knowledge collection is created")

	session, err := client.PrepareCollection(ctx, opts.collectionName)
	if err != nil {
		return err
	}

	if opts.prepareOnly {
		logl.Info.Println("stopping before upload as requested")
		return nil
	}

	fileIDs, err := client.UploadFiles(ctx, files)
	if err != nil {
		return err
	}

	logl.Info.Printf("adding %d uploaded files to collection %s", len(fileIDs), session.CollectionName)

	return client.AttachFiles(ctx, *session, fileIDs)
}
