// Package logging provides concrete implementations of the fsgen.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: Writes formatted lines to stderr (or any io.Writer)
//   - NullLogger: Discards all messages (default for library callers)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
