// Package fingerprint derives cache keys from call arguments.
//
// A key is the concatenation of every argument's serialization followed by a
// delimiter. Composite values are serialized deeply as JSON, scalars and
// fmt.Stringer values are converted literally. The key is a best-effort
// fingerprint: a composite argument and a string holding its JSON text collide.
package fingerprint

import (
	"fmt"
	"reflect"
	"strings"

	json "github.com/goccy/go-json"
)

const Delimiter = ","

// Of returns the fingerprint of args.
func Of(args []any) string {
	var sb strings.Builder
	for _, arg := range args {
		sb.WriteString(serialize(arg))
		sb.WriteString(Delimiter)
	}
	return sb.String()
}

func serialize(arg any) string {
	if arg == nil {
		return "null"
	}
	// a nil pointer cannot run a value-receiver String method
	if v := reflect.ValueOf(arg); v.Kind() == reflect.Pointer && v.IsNil() {
		return "null"
	}
	if stringer, ok := arg.(fmt.Stringer); ok {
		return stringer.String()
	}
	if !composite(reflect.TypeOf(arg)) {
		return fmt.Sprint(arg)
	}
	raw, err := json.Marshal(arg)
	if err != nil {
		// channels, funcs and cyclic values cannot be encoded
		return fmt.Sprintf("%#v", arg)
	}
	return string(raw)
}

func composite(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array, reflect.Pointer, reflect.Interface:
		return true
	default:
		return false
	}
}
