package command

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/yndnr/redikv/internal/storage/memory"
	"github.com/yndnr/redikv/internal/telemetry/logger"
	"github.com/yndnr/redikv/internal/telemetry/metric"
	"github.com/yndnr/redikv/pkg/resp"
)

// Each handler receives its command name followed by the arguments span
// assigned to it, and returns the extended reply buffer.

// ping replies PONG, or echoes its argument when it has one.
func (r *Router) ping(out []byte, args []string) []byte {
	if len(args) == 2 {
		return resp.AppendBulkString(out, args[1])
	}
	return resp.AppendSimpleString(out, "PONG")
}

func (r *Router) echo(out []byte, args []string) ([]byte, error) {
	if len(args) < 2 {
		return nil, ErrMissingArg.WithDetails("'echo' command")
	}
	return resp.AppendBulkString(out, args[1]), nil
}

// get replies with the value of a key, or a null bulk string when the key is
// absent or expired. An expired key found here is removed on the spot.
func (r *Router) get(ctx context.Context, out []byte, args []string) ([]byte, error) {
	if len(args) < 2 {
		return nil, ErrMissingArg.WithDetails("'get' command")
	}
	key := args[1]

	entry, ok := r.store.Read(ctx, key)
	if !ok {
		return resp.AppendNullBulk(out), nil
	}

	if entry.HasExpiry() {
		now, err := r.now()
		if err != nil {
			return nil, err
		}
		if entry.Expired(now) {
			if r.store.DeleteIfExpired(ctx, key, now) {
				r.metrics.Expired(metric.ExpiryPassive, 1)
				logger.L(ctx).Debug("key expired on read", "key", key)
			}
			return resp.AppendNullBulk(out), nil
		}
	}

	return resp.AppendBulkString(out, entry.Value), nil
}

// set stores a value. "SET key value EX n" and "SET key value PX n" attach a
// TTL in seconds or milliseconds; a plain SET leaves the key without one.
func (r *Router) set(ctx context.Context, out []byte, args []string) ([]byte, error) {
	if len(args) < 3 {
		return nil, ErrMissingArg.WithDetails("'set' command")
	}
	key, value := args[1], args[2]

	expiresAt := memory.NoExpiry
	if len(args) == 5 {
		at, err := r.expiresAt(args[3], args[4])
		if err != nil {
			return nil, err
		}
		expiresAt = at
	}

	r.store.Create(ctx, key, value, expiresAt)
	return resp.AppendSimpleString(out, "OK"), nil
}

// expiresAt turns a TTL clause into an absolute expiry in Unix milliseconds.
func (r *Router) expiresAt(unit, amount string) (int64, error) {
	var scale int64
	switch strings.ToUpper(unit) {
	case "EX":
		scale = 1000
	case "PX":
		scale = 1
	default:
		return 0, ErrWrongArg.WithDetails("unknown TTL unit %q", unit)
	}

	// Bit size 63 keeps n within int64 and rejects signs.
	n, err := strconv.ParseUint(amount, 10, 63)
	if err != nil {
		return 0, ErrInvalidInteger.WithDetails("%q", amount)
	}

	now, err := r.now()
	if err != nil {
		return 0, err
	}

	ttl := int64(n)
	if ttl > (math.MaxInt64-now)/scale {
		return 0, ErrInvalidInteger.WithDetails("TTL %s %s overflows", unit, amount)
	}
	return now + ttl*scale, nil
}
