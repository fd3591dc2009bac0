package dynlib

import (
	"reflect"

	"github.com/wippyai/pybridge/errors"
)

func checkTarget(fptr any) error {
	v := reflect.ValueOf(fptr)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return errors.New(errors.PhaseResolve, errors.KindInvalidInput).
			Detail("bind target must be a non-nil pointer to a func").
			Build()
	}
	if v.Elem().Kind() != reflect.Func {
		return errors.New(errors.PhaseResolve, errors.KindInvalidInput).
			GoType(v.Elem().Type().String()).
			Detail("bind target must point to a func").
			Build()
	}
	return nil
}
