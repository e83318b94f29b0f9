package knclient

import (
	"context"
	"os"

	"github.com/function61/gokit/logex"
	"github.com/function61/gokit/osutil"
	"github.com/function61/knowledgesync/pkg/kncollect"
	"github.com/function61/knowledgesync/pkg/kntypes"
	"github.com/spf13/cobra"
)

type commonFlags struct {
	debug    bool
	cacheDir string
}

func (c *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&c.debug, "debug", "d", c.debug, "Set debug level logging")
	cmd.Flags().StringVarP(&c.cacheDir, "cache-dir", "", "knowledge", "Directory holding downloaded knowledge sources")
}

func (c *commonFlags) logger() *logex.Leveled {
	logl := logex.Levels(logex.StandardLogger())
	if !c.debug {
		logl.Debug = logex.Discard
	}

	return logl
}

func registerSourceFlags(cmd *cobra.Command, spec *kntypes.SourceSpec) {
	cmd.Flags().StringVarP(&spec.Repo, "repo", "", spec.Repo, "Public GitHub repository to obtain knowledge from (owner/name)")
	cmd.Flags().StringVarP(&spec.Tag, "tag", "", spec.Tag, "Target tag of the repository")
	cmd.Flags().StringVarP(&spec.Release, "release", "", spec.Release, "Target release of the repository")
	cmd.Flags().StringVarP(&spec.Branch, "branch", "", spec.Branch, "Target branch of the repository (default: main, falling back to master)")
}

func downloadEntrypoint() *cobra.Command {
	common := commonFlags{}
	spec := kntypes.SourceSpec{}

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Downloads a public knowledge source to the local cache",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			logl := common.logger()

			osutil.ExitIfError(wrapWithStopSupport(func(ctx context.Context) error {
				_, err := newSourceCache(common.cacheDir, logl).download(ctx, spec)
				return err
			}))
		},
	}

	common.register(cmd)
	registerSourceFlags(cmd, &spec)

	return cmd
}

func uploadEntrypoint() *cobra.Command {
	common := commonFlags{}
	opts := uploadOpts{
		dir:    ".",
		filter: kncollect.FilterAny,
	}

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Uploads a downloaded knowledge source into a knowledge collection (see --download)",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			logl := common.logger()

			osutil.ExitIfError(wrapWithStopSupport(func(ctx context.Context) error {
				clientConfig, err := ReadConfig()
				if err != nil {
					return err
				}

				return upload(
					ctx,
					opts,
					newSourceCache(common.cacheDir, logl),
					New(*clientConfig, logl),
					kncollect.NewSelector(kncollect.DetectPandoc(logl), logl),
					logl)
			}))
		},
	}

	common.register(cmd)
	registerSourceFlags(cmd, &opts.source)
	cmd.Flags().StringVarP(&opts.dir, "dir", "", opts.dir, "Directory in the repository to obtain knowledge from")
	cmd.Flags().StringVarP(&opts.filter, "filter", "", opts.filter, "Comma-separated file suffixes to upload, or ANY")
	cmd.Flags().StringVarP(&opts.collectionName, "collection-name", "c", opts.collectionName, "Name of the knowledge collection")
	cmd.Flags().BoolVarP(&opts.prepareOnly, "prepare", "", opts.prepareOnly, "Only ensure the collection exists, upload nothing")
	cmd.Flags().BoolVarP(&opts.download, "download", "", opts.download, "Download the source first if it is not yet present")

	return cmd
}

func listEntrypoint() *cobra.Command {
	common := commonFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lists knowledge collections on the backend",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			logl := common.logger()

			osutil.ExitIfError(wrapWithStopSupport(func(ctx context.Context) error {
				clientConfig, err := ReadConfig()
				if err != nil {
					return err
				}

				return list(ctx, New(*clientConfig, logl), os.Stdout)
			}))
		},
	}

	common.register(cmd)

	return cmd
}

func cleanupEntrypoint() *cobra.Command {
	common := commonFlags{}

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Deletes uploaded files not used in any knowledge collection",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			logl := common.logger()

			osutil.ExitIfError(wrapWithStopSupport(func(ctx context.Context) error {
				clientConfig, err := ReadConfig()
				if err != nil {
					return err
				}

				return cleanup(ctx, New(*clientConfig, logl))
			}))
		},
	}

	common.register(cmd)

	return cmd
}

func Entrypoints() []*cobra.Command {
	return []*cobra.Command{
		downloadEntrypoint(),
		uploadEntrypoint(),
		listEntrypoint(),
		cleanupEntrypoint(),
		configInitEntrypoint(),
		configPrintEntrypoint(),
	}
}

func wrapWithStopSupport(fn func(ctx context.Context) error) error {
	return fn(osutil.CancelOnInterruptOrTerminate(logex.StandardLogger()))
}
