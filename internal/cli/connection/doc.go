// Package connection provides the RESP client used by redikv-cli.
//
// A Client holds one TCP connection and sends each line as an array of bulk
// strings. The server may find several commands in one array, or none, so the
// client counts them with command.Split and reads exactly that many replies.
// The server closes the connection after an error reply, so the client drops
// it too and redials on the next call.
package connection
