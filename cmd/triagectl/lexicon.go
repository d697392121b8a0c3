package main

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	lexiconCmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Print the effective lexicon as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLexicon(lexiconFlag, cmd.OutOrStdout())
		},
	}
	rootCmd.AddCommand(lexiconCmd)
}

func runLexicon(path string, w io.Writer) error {
	lexicon, err := loadLexicon(path)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(lexicon.Spec()); err != nil {
		return err
	}
	return enc.Close()
}
