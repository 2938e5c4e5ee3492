package resp

import (
	"errors"
	"fmt"
)

// ErrProtocol is matched by every framing error returned from this package.
var ErrProtocol = errors.New("resp: protocol error")

// Framing errors.
var (
	ErrUnsupportedType = fmt.Errorf("%w: unsupported RESP type", ErrProtocol)
	ErrCRMissing       = fmt.Errorf("%w: missing CR", ErrProtocol)
	ErrLFMissing       = fmt.Errorf("%w: missing LF", ErrProtocol)
	ErrCRLFNotAtEnd    = fmt.Errorf("%w: CRLF not at end", ErrProtocol)
	ErrIntegerParse    = fmt.Errorf("%w: cannot parse integer", ErrProtocol)
	ErrNegativeLength  = fmt.Errorf("%w: negative length", ErrProtocol)
	ErrIncomplete      = fmt.Errorf("%w: incomplete message", ErrProtocol)
	ErrLimitExceeded   = fmt.Errorf("%w: limit exceeded", ErrProtocol)
)
