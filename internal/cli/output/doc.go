// Package output renders RESP replies for redikv-cli.
//
// The raw format mirrors redis-cli ("PONG", "(nil)", "(error) ...", numbered
// array elements). The json format is meant for scripts.
package output
