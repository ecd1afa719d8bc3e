package doctree

import (
	"fmt"
	"reflect"
)

// FromGo walks an ordinary Go value (bool, any integer/float kind, string,
// []byte, slice, map[string]T, or struct) into a Document tree, mirroring
// jsoncons' automatic type-traits encoding (deser_traits.hpp) without
// requiring struct tags beyond an optional `doctree:"name"` to rename a
// field or `doctree:"-"` to skip it (SPEC_FULL.md section 2.2).
func FromGo(v any) (*Document, error) {
	return fromGoValue(reflect.ValueOf(v))
}

func fromGoValue(rv reflect.Value) (*Document, error) {
	if !rv.IsValid() {
		return NewNull(), nil
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return NewNull(), nil
		}
		return fromGoValue(rv.Elem())
	case reflect.Bool:
		return NewBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewInt64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return NewUInt64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return NewDouble(rv.Float()), nil
	case reflect.String:
		return NewString(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return NewByteString(b), nil
		}
		arr := NewArray()
		for i := 0; i < rv.Len(); i++ {
			c, err := fromGoValue(rv.Index(i))
			if err != nil {
				return nil, err
			}
			arr.arr = append(arr.arr, c)
		}
		return arr, nil
	case reflect.Map:
		obj := NewObject(InsertionOrdered)
		for _, key := range rv.MapKeys() {
			c, err := fromGoValue(rv.MapIndex(key))
			if err != nil {
				return nil, err
			}
			if err := obj.Set(fmt.Sprintf("%v", key.Interface()), c); err != nil {
				return nil, err
			}
		}
		return obj, nil
	case reflect.Struct:
		obj := NewObject(InsertionOrdered)
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue // unexported
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup("doctree"); ok {
				if tag == "-" {
					continue
				}
				if tag != "" {
					name = tag
				}
			}
			c, err := fromGoValue(rv.Field(i))
			if err != nil {
				return nil, err
			}
			if err := obj.Set(name, c); err != nil {
				return nil, err
			}
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: unsupported go kind %s", ErrType, rv.Kind())
	}
}

// ToGo populates *out from d, the inverse of FromGo. out must be a non-nil
// pointer.
func (d *Document) ToGo(out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("%w: ToGo requires a non-nil pointer", ErrType)
	}
	return d.toGoValue(rv.Elem())
}

func (d *Document) toGoValue(rv reflect.Value) error {
	if d.IsNull() {
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	}
	switch rv.Kind() {
	case reflect.Bool:
		b, err := d.AsBool()
		if err != nil {
			return err
		}
		rv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := d.AsInt64()
		if err != nil {
			return err
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := d.AsUInt64()
		if err != nil {
			return err
		}
		rv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := d.AsDouble()
		if err != nil {
			return err
		}
		rv.SetFloat(f)
	case reflect.String:
		s, err := d.AsString()
		if err != nil {
			return err
		}
		rv.SetString(s)
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b, err := d.AsByteString()
			if err != nil {
				return err
			}
			rv.SetBytes(append([]byte(nil), b...))
			return nil
		}
		arr, err := d.Array()
		if err != nil {
			return err
		}
		out := reflect.MakeSlice(rv.Type(), len(arr), len(arr))
		for i, e := range arr {
			if err := e.toGoValue(out.Index(i)); err != nil {
				return err
			}
		}
		rv.Set(out)
	case reflect.Map:
		if d.Kind() != KindObject {
			return d.typeErrorf(KindObject)
		}
		out := reflect.MakeMapWithSize(rv.Type(), d.obj.len())
		for _, p := range d.obj.pairs {
			kv := reflect.New(rv.Type().Key()).Elem()
			kv.SetString(p.key)
			vv := reflect.New(rv.Type().Elem()).Elem()
			if err := p.val.toGoValue(vv); err != nil {
				return err
			}
			out.SetMapIndex(kv, vv)
		}
		rv.Set(out)
	case reflect.Struct:
		if d.Kind() != KindObject {
			return d.typeErrorf(KindObject)
		}
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup("doctree"); ok {
				if tag == "-" {
					continue
				}
				if tag != "" {
					name = tag
				}
			}
			fv, ok := d.obj.get(name)
			if !ok {
				continue
			}
			if err := fv.toGoValue(rv.Field(i)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unsupported go kind %s", ErrType, rv.Kind())
	}
	return nil
}
