package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind identifies the type carried by a property Value.
type ValueKind string

// Value kind constants.
const (
	ValueString ValueKind = "string"
	ValueInt    ValueKind = "int"
	ValueFloat  ValueKind = "float"
	ValueBool   ValueKind = "bool"
	ValueList   ValueKind = "list"
)

// validValueKinds is the set of valid value kinds.
var validValueKinds = map[ValueKind]bool{
	ValueString: true,
	ValueInt:    true,
	ValueFloat:  true,
	ValueBool:   true,
	ValueList:   true,
}

// IsValid returns true if the value kind is valid.
func (k ValueKind) IsValid() bool {
	return validValueKinds[k]
}

// Value is a tagged union holding one property value. The tag is explicit;
// accessors return false rather than panicking on a kind mismatch.
type Value struct {
	kind ValueKind
	str  string
	num  int64
	flt  float64
	b    bool
	list []Value
}

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: ValueString, str: s} }

// IntValue wraps an integer.
func IntValue(n int64) Value { return Value{kind: ValueInt, num: n} }

// FloatValue wraps a float.
func FloatValue(f float64) Value { return Value{kind: ValueFloat, flt: f} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: ValueBool, b: b} }

// ListValue wraps an ordered list of values.
func ListValue(vs ...Value) Value {
	list := make([]Value, len(vs))
	copy(list, vs)
	return Value{kind: ValueList, list: list}
}

// Kind returns the value's kind tag. The zero Value has an empty kind.
func (v Value) Kind() ValueKind { return v.kind }

// Str returns the string content and true if the value is a string.
func (v Value) Str() (string, bool) {
	if v.kind != ValueString {
		return "", false
	}
	return v.str, true
}

// Int returns the integer content and true if the value is an integer.
func (v Value) Int() (int64, bool) {
	if v.kind != ValueInt {
		return 0, false
	}
	return v.num, true
}

// Float returns the float content and true if the value is a float.
// An integer value is also readable as a float.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case ValueFloat:
		return v.flt, true
	case ValueInt:
		return float64(v.num), true
	default:
		return 0, false
	}
}

// Bool returns the boolean content and true if the value is a boolean.
func (v Value) Bool() (bool, bool) {
	if v.kind != ValueBool {
		return false, false
	}
	return v.b, true
}

// List returns the list content and true if the value is a list.
// The returned slice is shared; callers must not modify it.
func (v Value) List() ([]Value, bool) {
	if v.kind != ValueList {
		return nil, false
	}
	return v.list, true
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueString:
		return v.str == o.str
	case ValueInt:
		return v.num == o.num
	case ValueFloat:
		return v.flt == o.flt
	case ValueBool:
		return v.b == o.b
	case ValueList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	if v.kind != ValueList {
		return v
	}
	list := make([]Value, len(v.list))
	for i, e := range v.list {
		list[i] = e.Clone()
	}
	return Value{kind: ValueList, list: list}
}

// String renders the value for diagnostics and plain-text output.
func (v Value) String() string {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueInt:
		return strconv.FormatInt(v.num, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.b)
	case ValueList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}

// MarshalJSON encodes the value as its natural JSON form: strings as
// strings, integers and floats as numbers, booleans as booleans, lists
// as arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueString:
		return json.Marshal(v.str)
	case ValueInt:
		return json.Marshal(v.num)
	case ValueFloat:
		return json.Marshal(v.flt)
	case ValueBool:
		return json.Marshal(v.b)
	case ValueList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return nil, fmt.Errorf("cannot marshal value of kind %q", v.kind)
	}
}

// UnmarshalJSON decodes a natural JSON value. Numbers without a fraction
// or exponent become integers; all others become floats. Objects and
// nulls are not valid property values.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty property value")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	case '[':
		var list []Value
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*v = Value{kind: ValueList, list: list}
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
		return nil
	case '{':
		return fmt.Errorf("object is not a valid property value")
	case 'n':
		return fmt.Errorf("null is not a valid property value")
	default:
		if bytes.ContainsAny(trimmed, ".eE") {
			f, err := strconv.ParseFloat(string(trimmed), 64)
			if err != nil {
				return err
			}
			*v = FloatValue(f)
			return nil
		}
		n, err := strconv.ParseInt(string(trimmed), 10, 64)
		if err != nil {
			// Integer literal out of int64 range; keep it as a float.
			f, ferr := strconv.ParseFloat(string(trimmed), 64)
			if ferr != nil {
				return err
			}
			*v = FloatValue(f)
			return nil
		}
		*v = IntValue(n)
		return nil
	}
}
