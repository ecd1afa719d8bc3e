package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/bson"
	"github.com/quillbyte/doctree/cbor"
	"github.com/quillbyte/doctree/msgpack"
	"github.com/quillbyte/doctree/text"
	"github.com/quillbyte/doctree/ubjson"
)

type codec struct {
	decode func(b []byte, p doctree.ObjectPolicy, maxDepth int) (*doctree.Document, error)
	encode func(d *doctree.Document) ([]byte, error)
}

var codecs = map[string]codec{
	"json": {
		decode: func(b []byte, p doctree.ObjectPolicy, _ int) (*doctree.Document, error) {
			return text.Unmarshal(b, p)
		},
		encode: text.Marshal,
	},
	"cbor":    {decode: cbor.DecodeBytes, encode: cbor.EncodeDocument},
	"msgpack": {decode: msgpack.DecodeBytes, encode: msgpack.EncodeDocument},
	"ubjson":  {decode: ubjson.DecodeBytes, encode: ubjson.EncodeDocument},
	"bson":    {decode: bson.DecodeBytes, encode: bson.EncodeDocument},
}

func codecNames() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupCodec(name string) (codec, error) {
	c, ok := codecs[strings.ToLower(name)]
	if !ok {
		return codec{}, fmt.Errorf("unknown format %q (supported: %s)", name, strings.Join(codecNames(), ", "))
	}
	return c, nil
}

func objectPolicy(name string) (doctree.ObjectPolicy, error) {
	switch strings.ToLower(name) {
	case "insertion", "":
		return doctree.InsertionOrdered, nil
	case "sorted":
		return doctree.Sorted, nil
	}
	return 0, fmt.Errorf("unknown --object-policy %q (supported: insertion, sorted)", name)
}

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
