package knclient

import (
	"context"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/function61/knowledgesync/pkg/kntypes"
	"github.com/olekukonko/tablewriter"
)

func list(ctx context.Context, client *Client, output io.Writer) error {
	// health check. a failing probe does not prevent listing.
	if err := client.GetUserSession(ctx); err != nil {
		client.logl.Error.Printf("session check: %v", err)
	}

	collections, err := client.ListCollections(ctx)
	if err != nil {
		return err
	}

	client.logl.Debug.Printf("%d collections found", len(collections))

	writeReport(collections, output)

	return nil
}

func writeReport(collections []kntypes.Collection, output io.Writer) {
	tbl := tablewriter.NewWriter(output)
	tbl.SetAutoFormatHeaders(false)
	tbl.SetBorder(false)
	tbl.SetHeader([]string{"Collection", "ID", "Files", "Size"})

	for _, collection := range collections {
		if len(collection.Files) == 0 {
			continue
		}

		tbl.Append([]string{
			collection.Name,
			collection.ID,
			strconv.Itoa(len(collection.Files)),
			humanize.Comma(collection.TotalSize()),
		})
	}

	tbl.Render()
}
