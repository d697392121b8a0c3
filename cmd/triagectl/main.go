package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	lexiconFlag string
	rootCmd     = &cobra.Command{
		Use:          "triagectl",
		Short:        "Offline tools for support-message triage",
		SilenceUsage: true,
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&lexiconFlag, "lexicon", "l", "", "YAML lexicon override")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
