package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	var from, to, in, out string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Transcode a document from one wire format to another",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConvert(from, to, in, out)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source format (required)")
	cmd.Flags().StringVar(&to, "to", "", "destination format (required)")
	cmd.Flags().StringVar(&in, "in", "-", "input file, or - for stdin")
	cmd.Flags().StringVar(&out, "out", "-", "output file, or - for stdout")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

func runConvert(from, to, in, out string) error {
	fromCodec, err := lookupCodec(from)
	if err != nil {
		return err
	}
	toCodec, err := lookupCodec(to)
	if err != nil {
		return err
	}
	p, err := objectPolicy(policy)
	if err != nil {
		return err
	}

	data, err := readInput(in)
	if err != nil {
		return err
	}

	doc, err := fromCodec.decode(data, p, maxDepth)
	if err != nil {
		return err
	}
	log.Debug().Str("from", from).Str("to", to).Int("bytes_in", len(data)).Msg("decoded document")

	encoded, err := toCodec.encode(doc)
	if err != nil {
		return err
	}
	log.Debug().Int("bytes_out", len(encoded)).Msg("encoded document")

	return writeOutput(out, encoded)
}
