package runner

import (
	"errors"
	"fmt"
	"os"
	"reflect"
)

// ExpandTemplates replaces ${VAR} references in the fields of *in tagged with
// `template` (a `template:"-"` tag opts out). Nested structs, pointers to
// structs and slices of either are walked. Tagged fields may be string,
// *string or []string. Unexported fields are ignored.
func ExpandTemplates[T any](in *T, variables map[string]string) error {
	if in == nil {
		return nil
	}
	return expandValue(reflect.ValueOf(in).Elem(), variables, false)
}

// expandValue expands v in place. tagged reports whether the field holding v
// carries a template tag; it only matters for string kinds.
func expandValue(v reflect.Value, variables map[string]string, tagged bool) error {
	switch v.Kind() {
	case reflect.String:
		if !tagged {
			return nil
		}
		expanded, err := Expand(v.String(), variables)
		if err != nil {
			return err
		}
		v.SetString(expanded)

	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if v.Elem().Kind() == reflect.String {
			if !tagged {
				return nil
			}
			// Copy so that a pointer shared with the caller is left untouched.
			cp := reflect.New(v.Elem().Type())
			cp.Elem().Set(v.Elem())
			if err := expandValue(cp.Elem(), variables, true); err != nil {
				return err
			}
			v.Set(cp)
			return nil
		}
		return expandValue(v.Elem(), variables, tagged)

	case reflect.Slice:
		var errs error
		for i := range v.Len() {
			errs = errors.Join(errs, expandValue(v.Index(i), variables, tagged))
		}
		return errs

	case reflect.Struct:
		typ := v.Type()
		var errs error
		for i := range typ.NumField() {
			sf := typ.Field(i)
			if !sf.IsExported() {
				continue
			}
			tag, ok := sf.Tag.Lookup("template")
			errs = errors.Join(errs, expandValue(v.Field(i), variables, ok && tag != "-"))
		}
		return errs
	}

	return nil
}

// Expand replaces ${VAR} references in value. Referencing a variable missing
// from variables is an error.
func Expand(value string, variables map[string]string) (string, error) {
	var errs error

	result := os.Expand(value, func(key string) string {
		if val, ok := variables[key]; ok {
			return val
		}
		errs = errors.Join(errs, fmt.Errorf("variable %q is not defined or not in the allowed list", key))
		return ""
	})

	if errs != nil {
		return "", errs
	}

	return result, nil
}
