package convert

import (
	"reflect"
	"strings"
)

// TagName is the struct tag consulted for field names.
const TagName = "py"

type fieldInfo struct {
	index     int
	name      string
	omitEmpty bool
}

// structFields lists the exported fields of t with their dict keys. A field
// is keyed by its py tag, or by its Go name when untagged; py:"-" skips it.
func structFields(t reflect.Type) []fieldInfo {
	var out []fieldInfo
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		info := fieldInfo{index: i, name: f.Name}
		if tag, ok := f.Tag.Lookup(TagName); ok {
			name, opts, _ := strings.Cut(tag, ",")
			if name == "-" && opts == "" {
				continue
			}
			if name != "" {
				info.name = name
			}
			info.omitEmpty = opts == "omitempty"
		}
		out = append(out, info)
	}
	return out
}

// lookupField matches a dict key to a field: exact name first, then
// case-insensitive.
func lookupField(fields []fieldInfo, key string) (fieldInfo, bool) {
	for _, f := range fields {
		if f.name == key {
			return f, true
		}
	}
	for _, f := range fields {
		if strings.EqualFold(f.name, key) {
			return f, true
		}
	}
	return fieldInfo{}, false
}
