package fsgen

import (
	"os"
	"time"
)

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Generation completed successfully
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid manifest, options or writer configuration
	ExitGenerationFailed = 12 // At least one destination could not be written
	ExitManifestMissing  = 14 // Manifest file not found
)

const (
	// DefaultEncoding is the text encoding used when none is configured.
	DefaultEncoding = "utf-8"

	// DefaultFileMode is the permission used for created files.
	DefaultFileMode os.FileMode = 0644

	// DefaultDirMode is the permission used for created directories.
	DefaultDirMode os.FileMode = 0755

	// DefaultConcurrency is the number of destinations written in parallel
	// by a generator when no limit is configured.
	DefaultConcurrency = 8

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 50 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 2 * time.Second

	// DefaultManifestName is the manifest file looked up when none is given.
	DefaultManifestName = "fsgen.yaml"

	// WatchDebounce is how long the watcher waits for further changes
	// before regenerating.
	WatchDebounce = 200 * time.Millisecond
)
