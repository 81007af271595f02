package fsgen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := generator.Generate(ctx, entries)
//	if errors.Is(err, fsgen.ErrGenerationFailed) {
//	    // At least one destination was not written
//	}
var (
	// ErrInvalidWriter indicates a file writer was configured with neither or
	// both of content and copy source, or with an invalid option.
	ErrInvalidWriter = errors.New("invalid file writer")

	// ErrRelativePath indicates an absolute path was required.
	ErrRelativePath = errors.New("path is not absolute")

	// ErrUnknownEncoding indicates the requested text encoding is not supported.
	ErrUnknownEncoding = errors.New("unknown encoding")

	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrManifestNotFound indicates the manifest file does not exist.
	ErrManifestNotFound = errors.New("manifest not found")

	// ErrGenerationFailed indicates at least one destination failed to be written.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrDestinationBusy indicates another run of the same generator is
	// still writing the destination.
	ErrDestinationBusy = errors.New("destination is being written by another run")

	// ErrNoContent indicates a deferred value settled without producing anything.
	ErrNoContent = errors.New("deferred value settled without a value")

	// ErrNotReplayable indicates a failed write consumed its stream, so
	// another attempt would write an empty or truncated file.
	ErrNotReplayable = errors.New("stream content cannot be written again")

	// ErrCopyIntoSelf indicates a directory copy whose destination lies
	// inside its source.
	ErrCopyIntoSelf = errors.New("cannot copy a directory into itself")
)

// Op identifies which kind of description failed to resolve.
type Op string

const (
	// OpContent is the resolution of a write description.
	OpContent Op = "content"
	// OpCopy is the resolution of a copy description.
	OpCopy Op = "copy"
)

// ResolutionError reports a deferred content or copy source that failed
// to settle. The cause is kept for errors.Is and errors.As.
type ResolutionError struct {
	Op          Op
	Destination string
	Err         error
}

func (e *ResolutionError) Error() string {
	if e.Op == OpCopy {
		return fmt.Sprintf(`Error getting the original to copy to "%s" => %s`, e.Destination, causeMessage(e.Err))
	}
	return fmt.Sprintf(`Error getting the content of "%s" => %s`, e.Destination, causeMessage(e.Err))
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func causeMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrGenerationFailed):
		// checked first: a failed run may wrap per-path config errors
		return ExitGenerationFailed
	case errors.Is(err, ErrManifestNotFound):
		return ExitManifestMissing
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrInvalidWriter),
		errors.Is(err, ErrUnknownEncoding):
		return ExitConfigError
	}

	// Cobra reports usage problems as plain errors
	errStr := err.Error()
	for _, prefix := range usageErrorPrefixes {
		if strings.HasPrefix(errStr, prefix) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}

var usageErrorPrefixes = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"invalid argument",
	"required flag",
}
