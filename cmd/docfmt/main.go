// Command docfmt transcodes, pretty-prints, and validates documents across
// the text, CBOR, MessagePack, UBJSON, and BSON encodings this module
// implements.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	maxDepth int
	policy   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "docfmt",
		Short:         "Transcode, pretty-print, and validate structured documents",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			lvl, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
			}
			zerolog.SetGlobalLevel(lvl)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level: debug, info, warn, error")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", 10000,
		"maximum container nesting depth accepted while decoding")
	rootCmd.PersistentFlags().StringVar(&policy, "object-policy", "insertion",
		"object key ordering: insertion or sorted")

	rootCmd.AddCommand(newConvertCmd(), newFmtCmd(), newValidateCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("docfmt failed")
		os.Exit(1)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return readAllStdin()
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
