// Package resp implements the subset of the Redis Serialization Protocol (RESP2)
// spoken by redikv.
//
// Decoding works on a complete byte slice and reports how many bytes the decoded
// message occupied, so callers can walk several concatenated messages:
//
//	msg, n, err := resp.Decode(buf)
//
// The first byte selects the type:
//
//	+  simple string     +OK\r\n
//	-  error             -ERR boom\r\n
//	:  integer           :-42\r\n
//	$  bulk string       $5\r\nhello\r\n   ($-1\r\n is the null bulk string)
//	*  array             *2\r\n...         (*-1\r\n is the null array)
//
// Encoding is append-style (AppendBulkString, AppendSimpleString, ...) so the
// command router can build a pipelined reply in a single buffer.
//
// All parsing is bounds-checked; malformed input yields an error that matches
// ErrProtocol via errors.Is and never panics.
package resp
