package main

import (
	"bufio"
	"fmt"
	"github.com/spf13/cobra"
	"io"
	"strings"
	"text2phenotype.com/melt/features"
	"text2phenotype.com/melt/pipeline"
	"text2phenotype.com/melt/pos"
)

func newTagCommand() *cobra.Command {
	var (
		params   pipeline.TaggingParams
		beamSize int
		probas   bool
		input    string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Tag whitespace tokenized text, one sentence per line",
		Example: `  melt tag --model-dir model --lexicon lexicon.json < corpus.txt
  melt tag --model-dir model -P --beam 10 -i corpus.txt -o corpus.tagged`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tagger, _, err := pipeline.LoadTagger(params, features.NewMemoryCache())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("probas") {
				probas = tagger.PrintProbas()
			}
			in, err := openInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer in.Close()
			out, err := openOutput(output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := tagLines(tagger, in, out, beamSize, probas); err != nil {
				out.Close()
				return err
			}
			return out.Close()
		},
	}

	cmd.Flags().StringVarP(&params.ModelDir, "model-dir", "m", "", "Directory with the model artifacts")
	cmd.Flags().StringVarP(&params.LexiconPath, "lexicon", "l", "", "External lexicon (json)")
	cmd.Flags().StringVarP(&params.TagDictionaryPath, "tagdict", "d", "", "Tag dictionary (json)")
	cmd.Flags().StringVarP(&params.ConfigPath, "config", "c", "", "Tagger configuration (yaml), defaults to the one saved with the model")
	cmd.Flags().IntVarP(&beamSize, "beam", "b", 0, "Beam size, defaults to the configured one")
	cmd.Flags().BoolVarP(&probas, "probas", "P", false, "Print the probability of each tag, defaults to print_probas of the tagger configuration")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input file, stdin by default")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, stdout by default")
	_ = cmd.MarkFlagRequired("model-dir")
	return cmd
}

func tagLines(tagger *pos.Tagger, r io.Reader, w io.Writer, beamSize int, probas bool) error {
	if beamSize < 1 {
		beamSize = tagger.BeamSize()
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	bw := bufio.NewWriter(w)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		tokens, err := tagger.Tag(strings.Fields(scanner.Text()), beamSize)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		if _, err := fmt.Fprintln(bw, pos.Format(tokens, probas)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return bw.Flush()
}
