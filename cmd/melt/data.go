package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"os"
	"sort"
	"text2phenotype.com/melt/corpus"
	"text2phenotype.com/melt/maxent"
)

func newBuildTagDictCommand() *cobra.Command {
	var weighted bool

	cmd := &cobra.Command{
		Use:   "build-tagdict <corpus> <output.json>",
		Short: "Collect the tags seen for every word of a corpus",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dict, err := corpus.BuildTagDictionary(cmd.Context(), newCorpusReader(args[0], weighted, false))
			if err != nil {
				return err
			}
			if err := dict.Save(args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "%d words written to %s\n", dict.Len(), args[1])
			return err
		},
	}
	cmd.Flags().BoolVarP(&weighted, "weighted", "w", false, "Corpus is in the weighted format")
	return cmd
}

func newWordListCommand() *cobra.Command {
	var (
		weighted  bool
		threshold int
	)

	cmd := &cobra.Command{
		Use:   "word-list <corpus>",
		Short: "Print the words of a corpus seen at least --threshold times",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := corpus.WordList(cmd.Context(), newCorpusReader(args[0], weighted, false), threshold)
			if err != nil {
				return err
			}
			words := make([]string, 0, len(counts))
			for word := range counts {
				words = append(words, word)
			}
			sort.Strings(words)
			for _, word := range words {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", word, counts[word]); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&weighted, "weighted", "w", false, "Corpus is in the weighted format")
	cmd.Flags().IntVarP(&threshold, "threshold", "t", 1, "Minimum number of occurrences")
	return cmd
}

func newImportMegamCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import-megam <megam-output> <model-dir>",
		Short: "Convert a megam weights dump into model artifacts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			model, err := maxent.ParseMegam(f)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(args[1], 0755); err != nil {
				return err
			}
			if err := model.Save(args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "%d classes, %d features written to %s\n",
				len(model.Classes), model.NumFeatures(), args[1])
			return err
		},
	}
}
