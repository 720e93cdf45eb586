// Package cli builds the command tree of ocfl-tools: it reads flags,
// environment variables and the optional config file into app
// configuration, runs the chosen command and maps failures to exit codes.
package cli
