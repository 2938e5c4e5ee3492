// Package repl implements the interactive mode of redikv-cli.
//
// Each input line is split into words (single and double quotes group words,
// backslash escapes work inside double quotes) and sent as one request. Every
// reply the line produces is printed.
// "help" lists the known commands, "exit" or "quit" leaves.
package repl
