// Package doctree implements the in-memory document value and the
// primitives (semantic tags, error kinds, numeric helpers) shared by every
// format-specific parser and encoder in the sibling packages.
//
// A Document is a tagged union capable of representing any value produced
// by the text encoding, CBOR, MessagePack, UBJSON, or BSON: null, bool,
// int64, uint64, double, half-float, string, byte string, array, object,
// arbitrary-precision integer (BigInt), and arbitrary-precision decimal
// (BigDec). Every Document also carries a Tag (tag.go) that refines how its
// payload should be interpreted without changing the payload's type.
//
// Parsers build Documents through the visitor.Decoder in the visitor
// package; encoders consume Documents by walking them depth-first via
// Walk. Random access, mutation, and cross-format conversion are exposed
// directly on *Document.
package doctree
