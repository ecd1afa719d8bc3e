package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/schema"
	"github.com/quillbyte/doctree/text"
)

func newValidateCmd() *cobra.Command {
	var format, in, schemaPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a document against a JSON Schema document",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runValidate(format, in, schemaPath)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "input document format")
	cmd.Flags().StringVar(&in, "in", "-", "input file, or - for stdin")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "path to a JSON Schema document (required)")
	cmd.MarkFlagRequired("schema")

	return cmd
}

func runValidate(format, in, schemaPath string) error {
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

	schemaBytes, err := os.ReadFile(schemaPath)
	if err != nil {
		return err
	}
	schemaDoc, err := text.Unmarshal(schemaBytes, doctree.InsertionOrdered)
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}

	validator, err := schema.Compile(schemaDoc)
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	errs := validator.Validate(doc)
	if len(errs) == 0 {
		fmt.Println("ok")
		return nil
	}

	for _, e := range errs {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	return fmt.Errorf("%d validation error(s)", len(errs))
}
