// Package redisserver serves the RESP protocol over TCP.
//
// Each accepted connection must obtain one of MaxConnections slots before it
// is served. A connection that cannot get a slot within PermitTimeout is
// closed without a reply; the listener keeps accepting.
//
// A served connection reads at most ReadBufferSize bytes at a time, hands
// exactly those bytes to the Handler and writes back whatever it returns.
// A request error ends the connection, optionally after a "-ERR" reply.
package redisserver
