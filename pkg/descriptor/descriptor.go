// Package descriptor turns field and method descriptors into the type
// names a Java programmer would write.
//
// Translation never fails. Malformed input degrades to partial text: an
// object type missing its ';' runs to the end of the string, a method
// descriptor missing its ')' has an empty return type, and unknown base
// type letters are passed through as they are.
package descriptor

import "strings"

var baseTypes = [...]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

// Type translates the type at the start of desc and reports how many
// bytes of desc it used.
func Type(desc string) (name string, n int) {
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	rest := desc[dims:]

	switch {
	case rest == "":
		name, n = "", 0
	case rest[0] == 'L':
		end := strings.IndexByte(rest, ';')
		if end < 0 {
			name, n = rest[1:], len(rest)
		} else {
			name, n = rest[1:end], end+1
		}
		name = strings.ReplaceAll(name, "/", ".")
	default:
		c := rest[0]
		if int(c) < len(baseTypes) && baseTypes[c] != "" {
			name = baseTypes[c]
		} else {
			name = rest[:1]
		}
		n = 1
	}
	return name + strings.Repeat("[]", dims), dims + n
}

// Field translates a field descriptor such as "[Ljava/lang/String;".
func Field(desc string) string {
	name, _ := Type(desc)
	return name
}

// Params translates each parameter of a method descriptor in order.
func Params(desc string) []string {
	params, _ := split(desc)
	var out []string
	for params != "" {
		name, n := Type(params)
		out = append(out, name)
		params = params[n:]
	}
	return out
}

// Method translates a method descriptor into its parameter list, written
// as "(int, java.lang.String)", its return type and its parameter count.
func Method(desc string) (params, ret string, argc int) {
	list := Params(desc)
	_, r := split(desc)
	if r != "" {
		ret = Field(r)
	}
	return "(" + strings.Join(list, ", ") + ")", ret, len(list)
}

// split cuts a method descriptor into its parameter and return parts.
func split(desc string) (params, ret string) {
	desc = strings.TrimPrefix(desc, "(")
	params, ret, found := strings.Cut(desc, ")")
	if !found {
		return desc, ""
	}
	return params, ret
}
