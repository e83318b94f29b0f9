package main

import (
	"os"

	"github.com/function61/gokit/dynversion"
	"github.com/function61/gokit/osutil"
	"github.com/function61/knowledgesync/pkg/knclient"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     os.Args[0],
		Short:   "Syncs public GitHub repositories into knowledge collections",
		Version: dynversion.Version,
		// hide the default "completion" subcommand from polluting UX (it can still be used)
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	}

	for _, entrypoint := range knclient.Entrypoints() {
		rootCmd.AddCommand(entrypoint)
	}

	osutil.ExitIfError(rootCmd.Execute())
}
