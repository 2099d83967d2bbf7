package main

import (
	"github.com/spf13/cobra"
	"io"
	"os"
	"text2phenotype.com/melt/logger"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "melt",
		Short:         "Maximum entropy part-of-speech tagger",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				_ = os.Setenv("MELT_LOGLEVEL", logLevel)
			}
			logger.SetupLogging()
			logger.SetOutput(cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR (default from MELT_LOGLEVEL)")

	rootCmd.AddCommand(
		newTagCommand(),
		newTrainCommand(),
		newGenInstancesCommand(),
		newBuildTagDictCommand(),
		newWordListCommand(),
		newImportMegamCommand(),
	)
	return rootCmd
}

// openInput returns stdin for an empty path or "-".
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	return os.Open(path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// openOutput returns stdout for an empty path or "-".
func openOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{stdout}, nil
	}
	return os.Create(path)
}
