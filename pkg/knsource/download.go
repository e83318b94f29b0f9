package knsource

import (
	"context"
	"fmt"
	"io"

	"github.com/function61/gokit/atomicfilewrite"
	"github.com/function61/gokit/ezhttp"
	"github.com/function61/gokit/logex"
	"github.com/function61/knowledgesync/pkg/kntypes"
)

type Downloader struct {
	logl *logex.Leveled
}

func NewDownloader(logl *logex.Leveled) *Downloader {
	return &Downloader{
		logl: logl,
	}
}

// streams the archive at url to destPath. destPath is replaced atomically, so a failed
// download never leaves a truncated archive behind.
func (d *Downloader) Download(ctx context.Context, url string, destPath string) error {
	res, err := ezhttp.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer res.Body.Close()

	d.logl.Debug.Printf("GET %s: %s", url, res.Status)

	if err := atomicfilewrite.Write(destPath, func(sink io.Writer) error {
		_, err := io.Copy(sink, res.Body)
		return err
	}); err != nil {
		return fmt.Errorf("download %s to %s: %w", url, destPath, err)
	}

	d.logl.Debug.Printf("downloaded data saved in %s", destPath)

	return nil
}

// tries url, and for default-branch sources exactly once more with the fallback branch.
// returns the URL that succeeded.
func (d *Downloader) DownloadWithFallback(
	ctx context.Context,
	url string,
	marker kntypes.SourceMarker,
	destPath string,
) (string, error) {
	err := d.Download(ctx, url, destPath)
	if err == nil {
		return url, nil
	}

	fallback, hasFallback := FallbackURL(url, marker)
	if !hasFallback {
		return "", err
	}

	d.logl.Info.Printf("%v; retrying with %s", err, fallback)

	if err := d.Download(ctx, fallback, destPath); err != nil {
		return "", err
	}

	return fallback, nil
}
