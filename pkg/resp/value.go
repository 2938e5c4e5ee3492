package resp

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Type is the RESP type byte that prefixes every encoded value.
type Type byte

// Supported RESP2 type bytes.
const (
	TypeSimpleString Type = '+'
	TypeError        Type = '-'
	TypeInteger      Type = ':'
	TypeBulkString   Type = '$'
	TypeArray        Type = '*'
)

// ParseType maps a leading byte to its Type.
func ParseType(b byte) (Type, error) {
	switch t := Type(b); t {
	case TypeSimpleString, TypeError, TypeInteger, TypeBulkString, TypeArray:
		return t, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, b)
	}
}

func (t Type) String() string {
	switch t {
	case TypeSimpleString:
		return "simple-string"
	case TypeError:
		return "error"
	case TypeInteger:
		return "integer"
	case TypeBulkString:
		return "bulk-string"
	case TypeArray:
		return "array"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// Kind discriminates the variants of Value.
type Kind uint8

const (
	KindSimpleString Kind = iota + 1
	KindError
	KindInteger
	KindBulkString
	KindNullBulkString
	KindArray
	KindNullArray
)

// Value is one decoded RESP datum.
//
// Only the field matching Kind is meaningful: Str for simple strings, errors and
// bulk strings, Int for integers, Elems for arrays. Decoded byte payloads alias
// the input buffer.
type Value struct {
	Kind  Kind
	Str   []byte
	Int   int64
	Elems []Value
}

// Message pairs a decoded value with the type byte that produced it.
type Message struct {
	Type Type
	Data Value
}

// SimpleString returns a simple string value.
func SimpleString(s string) Value { return Value{Kind: KindSimpleString, Str: []byte(s)} }

// ErrorValue returns an error value.
func ErrorValue(s string) Value { return Value{Kind: KindError, Str: []byte(s)} }

// Integer returns an integer value.
func Integer(n int64) Value { return Value{Kind: KindInteger, Int: n} }

// BulkString returns a bulk string value holding b.
func BulkString(b []byte) Value { return Value{Kind: KindBulkString, Str: b} }

// BulkFromString returns a bulk string value holding a copy of s.
func BulkFromString(s string) Value { return Value{Kind: KindBulkString, Str: []byte(s)} }

// NullBulkString returns the null bulk string ($-1).
func NullBulkString() Value { return Value{Kind: KindNullBulkString} }

// Array returns an array value.
func Array(elems ...Value) Value { return Value{Kind: KindArray, Elems: elems} }

// NullArray returns the null array (*-1).
func NullArray() Value { return Value{Kind: KindNullArray} }

// Type returns the wire type byte used to encode v.
func (v Value) Type() Type {
	switch v.Kind {
	case KindSimpleString:
		return TypeSimpleString
	case KindError:
		return TypeError
	case KindInteger:
		return TypeInteger
	case KindBulkString, KindNullBulkString:
		return TypeBulkString
	case KindArray, KindNullArray:
		return TypeArray
	default:
		return 0
	}
}

// IsNull reports whether v is the null bulk string or the null array.
func (v Value) IsNull() bool {
	return v.Kind == KindNullBulkString || v.Kind == KindNullArray
}

// Equal reports whether v and o hold the same variant and payload.
// A nil and an empty payload compare equal.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindSimpleString, KindError, KindBulkString:
		return bytes.Equal(v.Str, o.Str)
	case KindInteger:
		return v.Int == o.Int
	case KindArray:
		if len(v.Elems) != len(o.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders v in a redis-cli like form, for logs and the CLI.
func (v Value) String() string {
	switch v.Kind {
	case KindSimpleString:
		return string(v.Str)
	case KindError:
		return "(error) " + string(v.Str)
	case KindInteger:
		return "(integer) " + strconv.FormatInt(v.Int, 10)
	case KindBulkString:
		return strconv.Quote(string(v.Str))
	case KindNullBulkString, KindNullArray:
		return "(nil)"
	case KindArray:
		if len(v.Elems) == 0 {
			return "(empty array)"
		}
		var sb strings.Builder
		for i, e := range v.Elems {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(strconv.Itoa(i + 1))
			sb.WriteString(") ")
			sb.WriteString(e.String())
		}
		return sb.String()
	default:
		return "(invalid)"
	}
}
