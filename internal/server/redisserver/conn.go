package redisserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/redikv/internal/core/command"
	"github.com/yndnr/redikv/internal/telemetry/logger"
	"github.com/yndnr/redikv/pkg/resp"
)

const errRateLimited = "ERR rate limit exceeded"

// serveConn runs the read, dispatch and write cycle of one client until the
// client disconnects, an I/O error occurs or a request fails.
func (s *Server) serveConn(ctx context.Context, c net.Conn) {
	defer c.Close()

	id := ulid.Make().String()
	remote := c.RemoteAddr().String()
	log := s.logger.With("conn_id", id, "remote", remote)
	ctx = logger.WithConnID(ctx, id)

	s.metrics.ConnOpened()
	defer s.metrics.ConnClosed()

	log.Debug("connection opened")
	defer log.Debug("connection closed")

	ip := hostOf(remote)
	buf := make([]byte, s.cfg.ReadBufferSize)
	bw := bufio.NewWriter(c)

	for {
		n, err := c.Read(buf)
		if n == 0 {
			if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Debug("read failed", "error", err)
			}
			return
		}

		var reply []byte
		if s.limiter != nil && !s.limiter.allow(ip) {
			reply = resp.AppendError(nil, errRateLimited)
		} else {
			reply, err = s.handler.Handle(ctx, buf[:n])
			if err != nil {
				log.Warn("request failed", "error", err)
				if s.cfg.ReplyErrors {
					_, _ = bw.Write(errorReply(err))
					_ = bw.Flush()
				}
				return
			}
		}

		if len(reply) == 0 {
			continue
		}
		if _, err := bw.Write(reply); err != nil {
			log.Debug("write failed", "error", err)
			return
		}
		if err := bw.Flush(); err != nil {
			log.Debug("flush failed", "error", err)
			return
		}
	}
}

// errorReply renders err as a RESP error line.
func errorReply(err error) []byte {
	var re *command.RequestError
	if errors.As(err, &re) {
		return resp.AppendError(nil, "ERR "+re.ReplyText())
	}
	text := strings.NewReplacer("\r", " ", "\n", " ").Replace(err.Error())
	return resp.AppendError(nil, "ERR "+text)
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
