package convert

import (
	"reflect"
	"strconv"

	"github.com/wippyai/pybridge/bridge"
	"github.com/wippyai/pybridge/errors"
)

// DecodeInto decodes h and stores the result in the value target points to.
// Integers are range checked against the destination kind; dicts fill maps
// with string keys or structs, matching keys to fields by py tag, exact
// name, then case-insensitively. Keys with no matching field are ignored.
func (d *Decoder) DecodeInto(h bridge.Handle, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			GoType(typeName(target)).
			Detail("target must be a non-nil pointer").
			Build()
	}
	v, err := d.Decode(h)
	if err != nil {
		return err
	}
	return assign(rv.Elem(), v, nil)
}

func mismatch(dst reflect.Value, v any, path []string) error {
	return errors.TypeMismatch(errors.PhaseDecode, path, dst.Type().String(), typeName(v))
}

func assign(dst reflect.Value, v any, path []string) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	switch dst.Kind() {
	case reflect.Interface:
		src := reflect.ValueOf(v)
		if !src.Type().AssignableTo(dst.Type()) {
			return mismatch(dst, v, path)
		}
		dst.Set(src)
		return nil

	case reflect.Pointer:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return assign(dst.Elem(), v, path)

	case reflect.Bool:
		b, ok := v.(bool)
		if !ok {
			return mismatch(dst, v, path)
		}
		dst.SetBool(b)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := coerceToInt64(v)
		if !ok {
			return mismatch(dst, v, path)
		}
		if dst.OverflowInt(n) {
			return errors.Overflow(errors.PhaseDecode, path, n, dst.Type().String())
		}
		dst.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := coerceToUint64(v)
		if !ok {
			if i, isInt := coerceToInt64(v); isInt && i < 0 {
				return errors.Overflow(errors.PhaseDecode, path, i, dst.Type().String())
			}
			return mismatch(dst, v, path)
		}
		if dst.OverflowUint(n) {
			return errors.Overflow(errors.PhaseDecode, path, n, dst.Type().String())
		}
		dst.SetUint(n)
		return nil

	case reflect.Float32, reflect.Float64:
		f, ok := coerceToFloat64(v)
		if !ok {
			return mismatch(dst, v, path)
		}
		if dst.OverflowFloat(f) {
			return errors.Overflow(errors.PhaseDecode, path, f, dst.Type().String())
		}
		dst.SetFloat(f)
		return nil

	case reflect.String:
		s, ok := v.(string)
		if !ok {
			return mismatch(dst, v, path)
		}
		dst.SetString(s)
		return nil

	case reflect.Slice:
		items, ok := v.([]any)
		if !ok {
			return mismatch(dst, v, path)
		}
		out := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			if err := assign(out.Index(i), item, childPath(path, "["+strconv.Itoa(i)+"]")); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil

	case reflect.Array:
		items, ok := v.([]any)
		if !ok {
			return mismatch(dst, v, path)
		}
		if len(items) != dst.Len() {
			return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
				Path(path...).
				GoType(dst.Type().String()).
				Detail("sequence has %d items, array holds %d", len(items), dst.Len()).
				Build()
		}
		for i, item := range items {
			if err := assign(dst.Index(i), item, childPath(path, "["+strconv.Itoa(i)+"]")); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		entries, ok := v.(map[string]any)
		if !ok || dst.Type().Key().Kind() != reflect.String {
			return mismatch(dst, v, path)
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(entries))
		for k, item := range entries {
			elem := reflect.New(dst.Type().Elem()).Elem()
			if err := assign(elem, item, childPath(path, k)); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(dst.Type().Key()), elem)
		}
		dst.Set(out)
		return nil

	case reflect.Struct:
		entries, ok := v.(map[string]any)
		if !ok {
			return mismatch(dst, v, path)
		}
		fields := structFields(dst.Type())
		for k, item := range entries {
			f, found := lookupField(fields, k)
			if !found {
				continue
			}
			if err := assign(dst.Field(f.index), item, childPath(path, f.name)); err != nil {
				return err
			}
		}
		return nil
	}

	return errors.New(errors.PhaseDecode, errors.KindUnsupported).
		Path(path...).
		GoType(dst.Type().String()).
		Detail("cannot decode into %s", dst.Kind()).
		Build()
}
