package resp

import "strconv"

var (
	crlf     = []byte("\r\n")
	nullBulk = []byte("$-1\r\n")
	nullArr  = []byte("*-1\r\n")
)

// Encode returns the wire encoding of v.
func Encode(v Value) []byte {
	return AppendValue(nil, v)
}

// AppendValue appends the wire encoding of v to dst.
func AppendValue(dst []byte, v Value) []byte {
	switch v.Kind {
	case KindSimpleString:
		dst = append(dst, byte(TypeSimpleString))
		dst = append(dst, v.Str...)
		return append(dst, crlf...)
	case KindError:
		dst = append(dst, byte(TypeError))
		dst = append(dst, v.Str...)
		return append(dst, crlf...)
	case KindInteger:
		return AppendInteger(dst, v.Int)
	case KindBulkString:
		return AppendBulk(dst, v.Str)
	case KindNullBulkString:
		return AppendNullBulk(dst)
	case KindArray:
		dst = AppendArrayHeader(dst, len(v.Elems))
		for _, e := range v.Elems {
			dst = AppendValue(dst, e)
		}
		return dst
	case KindNullArray:
		return append(dst, nullArr...)
	default:
		return dst
	}
}

// AppendSimpleString appends "+s\r\n".
func AppendSimpleString(dst []byte, s string) []byte {
	dst = append(dst, byte(TypeSimpleString))
	dst = append(dst, s...)
	return append(dst, crlf...)
}

// AppendError appends "-s\r\n".
func AppendError(dst []byte, s string) []byte {
	dst = append(dst, byte(TypeError))
	dst = append(dst, s...)
	return append(dst, crlf...)
}

// AppendInteger appends ":n\r\n".
func AppendInteger(dst []byte, n int64) []byte {
	dst = append(dst, byte(TypeInteger))
	dst = strconv.AppendInt(dst, n, 10)
	return append(dst, crlf...)
}

// AppendBulk appends "$len\r\n<b>\r\n".
func AppendBulk(dst []byte, b []byte) []byte {
	dst = append(dst, byte(TypeBulkString))
	dst = strconv.AppendInt(dst, int64(len(b)), 10)
	dst = append(dst, crlf...)
	dst = append(dst, b...)
	return append(dst, crlf...)
}

// AppendBulkString is AppendBulk for a string payload.
func AppendBulkString(dst []byte, s string) []byte {
	dst = append(dst, byte(TypeBulkString))
	dst = strconv.AppendInt(dst, int64(len(s)), 10)
	dst = append(dst, crlf...)
	dst = append(dst, s...)
	return append(dst, crlf...)
}

// AppendNullBulk appends "$-1\r\n".
func AppendNullBulk(dst []byte) []byte {
	return append(dst, nullBulk...)
}

// AppendArrayHeader appends "*n\r\n".
func AppendArrayHeader(dst []byte, n int) []byte {
	dst = append(dst, byte(TypeArray))
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, crlf...)
}

// EncodeCommand encodes args the way clients send commands: as an array of
// bulk strings.
func EncodeCommand(args ...string) []byte {
	dst := AppendArrayHeader(nil, len(args))
	for _, a := range args {
		dst = AppendBulkString(dst, a)
	}
	return dst
}
