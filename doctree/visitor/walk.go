package visitor

import "github.com/quillbyte/doctree"

// Walk drives v from d, depth-first, keys before values, arrays in index
// order (spec.md section 4.3/5). This is how each format package's
// Marshal/EncodeDocument function turns a Document back into
// wire bytes: an encoder is a Visitor, so Walk(d, encoder) reconstructs the
// encoder's event stream directly from the tree.
func Walk(d *doctree.Document, v Visitor) error {
	_, err := walk(d, v, Context{})
	return err
}

func walk(d *doctree.Document, v Visitor, ctx Context) (bool, error) {
	switch d.Kind() {
	case doctree.KindNull:
		return v.Null(d.Tag(), ctx)
	case doctree.KindBool:
		return v.Bool(d.MustBool(), d.Tag(), ctx)
	case doctree.KindInt64:
		return v.Int64(d.MustInt64(), d.Tag(), ctx)
	case doctree.KindUInt64:
		return v.UInt64(d.MustUInt64(), d.Tag(), ctx)
	case doctree.KindDouble:
		return v.Double(d.MustDouble(), d.Tag(), ctx)
	case doctree.KindHalfFloat:
		return v.Double(d.MustDouble(), d.Tag(), ctx)
	case doctree.KindString:
		return v.String(d.MustString(), d.Tag(), ctx)
	case doctree.KindByteString:
		return v.ByteString(d.MustByteString(), d.Tag(), ctx)
	case doctree.KindBigInt:
		s, err := d.AsBigIntString()
		if err != nil {
			return false, err
		}
		return v.String(s, doctree.TagBigInt, ctx)
	case doctree.KindBigDec:
		s, err := d.AsBigDecString()
		if err != nil {
			return false, err
		}
		return v.String(s, doctree.TagBigDec, ctx)
	case doctree.KindArray:
		return walkArray(d, v, ctx)
	case doctree.KindObject:
		return walkObject(d, v, ctx)
	}
	return true, nil
}

func walkArray(d *doctree.Document, v Visitor, ctx Context) (bool, error) {
	elems, err := d.Array()
	if err != nil {
		return false, err
	}
	cont, err := v.BeginArray(len(elems), d.Tag(), ctx)
	if err != nil || !cont {
		return cont, err
	}
	for _, e := range elems {
		cont, err := walk(e, v, ctx)
		if err != nil {
			return false, err
		}
		if !cont {
			return false, nil
		}
	}
	return v.EndArray(ctx)
}

func walkObject(d *doctree.Document, v Visitor, ctx Context) (bool, error) {
	pairs, err := d.Pairs()
	if err != nil {
		return false, err
	}
	cont, err := v.BeginObject(len(pairs), d.Tag(), ctx)
	if err != nil || !cont {
		return cont, err
	}
	for _, p := range pairs {
		cont, err := v.Key(p.Key, ctx)
		if err != nil {
			return false, err
		}
		if !cont {
			return false, nil
		}
		cont, err = walk(p.Val, v, ctx)
		if err != nil {
			return false, err
		}
		if !cont {
			return false, nil
		}
	}
	return v.EndObject(ctx)
}
