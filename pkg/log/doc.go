/*
Package log provides structured logging for securestore-go using zerolog.

The core crypto and vault packages never log: errors are returned, not
printed, so a library caller controls how failures surface. This package
exists for the CLI collaborator, which uses it for operational messages
(startup, file I/O, non-secret diagnostics) while keeping decrypted secret
values and the value itself off the log path entirely.

	Init(Config{Level: InfoLevel, Output: os.Stderr})
	log.WithComponent("cli").Info().Msg("vault loaded")

Console output is the default (human-readable, colorized level tags);
JSONOutput switches to structured JSON for log aggregation.
*/
package log
