package resp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
)

func TestAppendHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want string
	}{
		{"simple string", AppendSimpleString(nil, "PONG"), "+PONG\r\n"},
		{"error", AppendError(nil, "ERR syntax error"), "-ERR syntax error\r\n"},
		{"integer", AppendInteger(nil, -42), ":-42\r\n"},
		{"bulk", AppendBulk(nil, []byte("Hello, world!")), "$13\r\nHello, world!\r\n"},
		{"bulk string", AppendBulkString(nil, "Hey"), "$3\r\nHey\r\n"},
		{"empty bulk string", AppendBulkString(nil, ""), "$0\r\n\r\n"},
		{"null bulk", AppendNullBulk(nil), "$-1\r\n"},
		{"array header", AppendArrayHeader(nil, 3), "*3\r\n"},
		{"appends to existing buffer", AppendSimpleString([]byte("+OK\r\n"), "OK"), "+OK\r\n+OK\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.got) != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestEncodeCommand(t *testing.T) {
	got := EncodeCommand("SET", "key", "value", "PX", "100")
	want := "*5\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n$2\r\nPX\r\n$3\r\n100\r\n"
	if string(got) != want {
		t.Errorf("EncodeCommand() = %q, want %q", got, want)
	}
}

// Every constructible value must survive Encode followed by Decode, and the
// decoder must report exactly the encoded length as consumed.
func TestRoundTrip(t *testing.T) {
	values := []Value{
		SimpleString(""),
		SimpleString("OK"),
		ErrorValue("ERR unknown"),
		Integer(0),
		Integer(12345),
		Integer(-12345),
		Integer(math.MaxInt64),
		Integer(math.MinInt64),
		BulkFromString(""),
		BulkFromString("hello"),
		BulkString([]byte("binary\r\n\x00safe")),
		NullBulkString(),
		Array(),
		NullArray(),
		Array(BulkFromString("PING"), BulkFromString("PING"), BulkFromString("PING")),
		Array(
			Integer(1),
			Array(SimpleString("nested"), NullBulkString(), Array(NullArray(), Integer(-7))),
			ErrorValue("E"),
			BulkFromString("tail"),
		),
	}

	for _, v := range values {
		t.Run(v.String(), func(t *testing.T) {
			encoded := Encode(v)
			msg, n, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", encoded, err)
			}
			if !msg.Data.Equal(v) {
				t.Errorf("round trip = %#v, want %#v", msg.Data, v)
			}
			if n != len(encoded) {
				t.Errorf("consumed = %d, want %d", n, len(encoded))
			}
			if msg.Type != v.Type() {
				t.Errorf("type = %v, want %v", msg.Type, v.Type())
			}

			// The streaming reader must agree with Decode.
			got, err := ReadValue(bufio.NewReader(bytes.NewReader(encoded)))
			if err != nil {
				t.Fatalf("ReadValue(%q) error = %v", encoded, err)
			}
			if !got.Equal(v) {
				t.Errorf("ReadValue = %#v, want %#v", got, v)
			}
		})
	}
}

func TestReadValue_Sequence(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("+PONG\r\n+PONG\r\n$3\r\nHey\r\n$-1\r\n"))
	want := []Value{SimpleString("PONG"), SimpleString("PONG"), BulkFromString("Hey"), NullBulkString()}
	for i, w := range want {
		got, err := ReadValue(r)
		if err != nil {
			t.Fatalf("reply %d: error = %v", i, err)
		}
		if !got.Equal(w) {
			t.Errorf("reply %d = %v, want %v", i, got, w)
		}
	}
	if _, err := ReadValue(r); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after last reply, got %v", err)
	}
}

func TestReadValue_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing CR", "+OK\n"},
		{"bad type", "?x\r\n"},
		{"bad bulk terminator", "$2\r\nabXY"},
		{"truncated bulk", "$10\r\nabc"},
		{"negative length", "$-3\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadValue(bufio.NewReader(strings.NewReader(tt.input))); err == nil {
				t.Errorf("ReadValue(%q) expected error", tt.input)
			}
		})
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{SimpleString("OK"), "OK"},
		{ErrorValue("ERR x"), "(error) ERR x"},
		{Integer(3), "(integer) 3"},
		{BulkFromString("v"), `"v"`},
		{NullBulkString(), "(nil)"},
		{Array(), "(empty array)"},
		{Array(Integer(1), BulkFromString("a")), "1) (integer) 1\n2) \"a\""},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
