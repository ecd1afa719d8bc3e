package main

import (
	"github.com/spf13/cobra"

	"github.com/quillbyte/doctree/text"
)

func newFmtCmd() *cobra.Command {
	var format, in, out string
	var indent int

	cmd := &cobra.Command{
		Use:   "fmt",
		Short: "Pretty-print a document as indented text, regardless of its wire format",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runFmt(format, in, out, indent)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "input format")
	cmd.Flags().StringVar(&in, "in", "-", "input file, or - for stdin")
	cmd.Flags().StringVar(&out, "out", "-", "output file, or - for stdout")
	cmd.Flags().IntVar(&indent, "indent", 2, "indent width in spaces")

	return cmd
}

func runFmt(format, in, out string, indent int) error {
	c, err := lookupCodec(format)
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

	doc, err := c.decode(data, p, maxDepth)
	if err != nil {
		return err
	}

	pretty, err := text.MarshalPretty(doc, text.PrettyOptions{IndentSize: indent})
	if err != nil {
		return err
	}

	return writeOutput(out, pretty)
}
