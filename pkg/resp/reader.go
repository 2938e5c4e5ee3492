package resp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// maxHeaderLen bounds a single header or simple-string line read from a stream.
const maxHeaderLen = 64 * 1024

// ReadValue reads exactly one RESP value from r.
//
// Unlike Decode it does not need the whole message in memory up front, which
// makes it suitable for clients reading replies off a connection.
func ReadValue(r *bufio.Reader) (Value, error) {
	line, err := readLine(r, maxHeaderLen)
	if err != nil {
		return Value{}, err
	}
	if len(line) == 0 {
		return Value{}, fmt.Errorf("%w: empty line", ErrProtocol)
	}

	t, err := ParseType(line[0])
	if err != nil {
		return Value{}, err
	}
	// Header lines are re-framed so the same parsers Decode uses apply.
	framed := append(line, crlf...)

	switch t {
	case TypeSimpleString:
		return Value{Kind: KindSimpleString, Str: line[1:]}, nil
	case TypeError:
		return Value{Kind: KindError, Str: line[1:]}, nil
	case TypeInteger:
		v, _, err := decodeInteger(framed)
		return v, err
	case TypeBulkString:
		n, null, _, err := ParseLen(framed)
		if err != nil {
			return Value{}, err
		}
		if null {
			return NullBulkString(), nil
		}
		if n > MaxBulkLen {
			return Value{}, fmt.Errorf("%w: bulk length %d exceeds %d", ErrLimitExceeded, n, MaxBulkLen)
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Value{}, err
		}
		if !bytes.HasSuffix(buf, crlf) {
			return Value{}, ErrCRLFNotAtEnd
		}
		return Value{Kind: KindBulkString, Str: buf[:n]}, nil
	default: // TypeArray
		n, null, _, err := ParseLen(framed)
		if err != nil {
			return Value{}, err
		}
		if null {
			return NullArray(), nil
		}
		if n > MaxArrayLen {
			return Value{}, fmt.Errorf("%w: array length %d exceeds %d", ErrLimitExceeded, n, MaxArrayLen)
		}
		elems := make([]Value, 0, min(n, 64))
		for range n {
			e, err := ReadValue(r)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, e)
		}
		return Value{Kind: KindArray, Elems: elems}, nil
	}
}

// readLine reads up to and including the next LF and returns the line without
// its CRLF terminator.
func readLine(r *bufio.Reader, maxLen int) ([]byte, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > maxLen {
				return nil, fmt.Errorf("%w: line length exceeds %d", ErrLimitExceeded, maxLen)
			}
			continue
		}
		return nil, err
	}

	if len(buf) > maxLen {
		return nil, fmt.Errorf("%w: line length exceeds %d", ErrLimitExceeded, maxLen)
	}
	if len(buf) < 2 || buf[len(buf)-2] != '\r' {
		return nil, ErrCRLFNotAtEnd
	}
	return buf[:len(buf)-2], nil
}
