package resp

import (
	"bytes"
	"fmt"
	"math"
)

// Protocol limits, matching the defaults of Redis' proto-max-bulk-len and
// multibulk length checks.
const (
	// MaxArrayLen limits the number of elements in one RESP array.
	MaxArrayLen = 1024 * 1024

	// MaxBulkLen limits the size of a single bulk string (512MB).
	MaxBulkLen = 512 * 1024 * 1024
)

// Decode parses the message at the start of b.
//
// It returns the message and the number of bytes it occupied, including every
// trailing CRLF, so that Decode(b[n:]) continues with the next message.
func Decode(b []byte) (Message, int, error) {
	if len(b) == 0 {
		return Message{}, 0, ErrIncomplete
	}
	t, err := ParseType(b[0])
	if err != nil {
		return Message{}, 0, err
	}

	var (
		v Value
		n int
	)
	switch t {
	case TypeSimpleString:
		v, n, err = decodeLine(b, KindSimpleString)
	case TypeError:
		v, n, err = decodeLine(b, KindError)
	case TypeInteger:
		v, n, err = decodeInteger(b)
	case TypeBulkString:
		v, n, err = decodeBulkString(b)
	case TypeArray:
		v, n, err = decodeArray(b)
	}
	if err != nil {
		return Message{}, 0, err
	}
	return Message{Type: t, Data: v}, n, nil
}

// ParseLen parses the length header shared by bulk strings and arrays.
//
// b[0] is the type byte and is skipped. A header of exactly "-1\r\n" yields
// null=true. consumed counts the type byte, the digits and the CRLF.
func ParseLen(b []byte) (n int, null bool, consumed int, err error) {
	if len(b) < 2 {
		return 0, false, 0, ErrCRMissing
	}

	if b[1] == '-' {
		if len(b) < 3 || b[2] != '1' {
			return 0, false, 0, ErrNegativeLength
		}
		if len(b) < 4 {
			return 0, false, 0, ErrCRMissing
		}
		if b[3] != '\r' {
			return 0, false, 0, ErrNegativeLength
		}
		if len(b) < 5 || b[4] != '\n' {
			return 0, false, 0, ErrLFMissing
		}
		return 0, true, 5, nil
	}

	u, end, err := parseDigits(b, 1, math.MaxInt)
	if err != nil {
		return 0, false, 0, err
	}
	return int(u), false, end, nil
}

// parseDigits scans decimal digits from b[start] up to the first CR, which must
// be followed by LF. It returns the value and the offset just past the LF.
func parseDigits(b []byte, start int, limit uint64) (uint64, int, error) {
	var n uint64
	i := start
	for ; i < len(b) && b[i] != '\r'; i++ {
		c := b[i]
		if c < '0' || c > '9' {
			return 0, 0, fmt.Errorf("%w %q", ErrIntegerParse, b[start:i+1])
		}
		d := uint64(c - '0')
		if n > (limit-d)/10 {
			return 0, 0, fmt.Errorf("%w %q: out of range", ErrIntegerParse, b[start:i+1])
		}
		n = n*10 + d
	}
	if i == len(b) {
		return 0, 0, ErrCRMissing
	}
	if i == start {
		return 0, 0, fmt.Errorf("%w: no digits", ErrIntegerParse)
	}
	if i+1 >= len(b) || b[i+1] != '\n' {
		return 0, 0, ErrLFMissing
	}
	return n, i + 2, nil
}

// decodeLine decodes simple strings and errors: everything between the type
// byte and the first CR, which must be immediately followed by the first LF.
func decodeLine(b []byte, kind Kind) (Value, int, error) {
	cr := bytes.IndexByte(b, '\r')
	if cr < 0 {
		return Value{}, 0, ErrCRMissing
	}
	lf := bytes.IndexByte(b, '\n')
	if lf < 0 {
		return Value{}, 0, ErrLFMissing
	}
	if lf != cr+1 {
		return Value{}, 0, ErrCRLFNotAtEnd
	}
	return Value{Kind: kind, Str: b[1:cr]}, lf + 1, nil
}

func decodeInteger(b []byte) (Value, int, error) {
	if len(b) < 2 {
		return Value{}, 0, ErrCRMissing
	}

	start, neg := 1, false
	switch b[1] {
	case '+':
		start = 2
	case '-':
		start, neg = 2, true
	}

	limit := uint64(math.MaxInt64)
	if neg {
		limit++
	}
	u, end, err := parseDigits(b, start, limit)
	if err != nil {
		return Value{}, 0, err
	}
	if neg {
		return Value{Kind: KindInteger, Int: int64(-u)}, end, nil
	}
	return Value{Kind: KindInteger, Int: int64(u)}, end, nil
}

func decodeBulkString(b []byte) (Value, int, error) {
	n, null, start, err := ParseLen(b)
	if err != nil {
		return Value{}, 0, err
	}
	if null {
		return NullBulkString(), start, nil
	}
	if n > MaxBulkLen {
		return Value{}, 0, fmt.Errorf("%w: bulk length %d exceeds %d", ErrLimitExceeded, n, MaxBulkLen)
	}

	end := start + n
	if len(b) < end+2 {
		return Value{}, 0, ErrIncomplete
	}
	if b[end] != '\r' || b[end+1] != '\n' {
		return Value{}, 0, ErrCRLFNotAtEnd
	}
	return Value{Kind: KindBulkString, Str: b[start:end]}, end + 2, nil
}

func decodeArray(b []byte) (Value, int, error) {
	n, null, offset, err := ParseLen(b)
	if err != nil {
		return Value{}, 0, err
	}
	if null {
		return NullArray(), offset, nil
	}
	if n > MaxArrayLen {
		return Value{}, 0, fmt.Errorf("%w: array length %d exceeds %d", ErrLimitExceeded, n, MaxArrayLen)
	}

	elems := make([]Value, 0, min(n, 64))
	for range n {
		if offset >= len(b) {
			return Value{}, 0, ErrIncomplete
		}
		msg, read, err := Decode(b[offset:])
		if err != nil {
			return Value{}, 0, err
		}
		elems = append(elems, msg.Data)
		offset += read
	}
	return Value{Kind: KindArray, Elems: elems}, offset, nil
}
