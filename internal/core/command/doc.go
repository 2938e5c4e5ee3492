// Package command routes decoded RESP requests to the PING, ECHO, GET and SET
// handlers and builds the reply bytes.
//
// A request is a RESP array of bulk strings. Several commands may be packed
// into one array ("PING PING PING"); the router walks the words left to right
// and appends one reply per recognised command. Words it does not recognise
// are skipped without a reply. Split exposes the same grouping so a client can
// tell how many replies a request will produce.
//
// A buffer holding several top-level arrays back to back is handled one array
// at a time, in order.
package command
