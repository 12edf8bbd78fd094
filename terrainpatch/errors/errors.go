package errors

import "fmt"

// Error kinds for terrain patch operations. All of them are fatal for the
// operation that raised them; there is no partial or degraded output.
var (
	// ErrInvalidSignature is returned when an archive's magic does not match
	// the VPK signature.
	ErrInvalidSignature = &TerrainError{Code: "INVALID_SIGNATURE", Message: "not a VPK archive"}

	// ErrIndexCorrupt is returned when the archive index fails a structural
	// check: a bad entry terminator or a tree walk past the declared bounds.
	ErrIndexCorrupt = &TerrainError{Code: "INDEX_CORRUPT", Message: "archive index is corrupt"}

	// ErrNoMapFile is returned when the override archive contains no
	// .vmap_c entry to canonicalize.
	ErrNoMapFile = &TerrainError{Code: "NO_MAP_FILE", Message: "archive contains no map file"}

	// ErrBadPath is returned when a file path cannot be split into
	// directory, base name and extension for encoding.
	ErrBadPath = &TerrainError{Code: "BAD_PATH", Message: "path cannot be encoded"}

	// ErrIO is returned when a read or write of a whole archive file fails.
	ErrIO = &TerrainError{Code: "IO_ERROR", Message: "archive I/O failed"}

	// ErrInstallNotFound is returned when no Dota 2 installation could be
	// located on this machine.
	ErrInstallNotFound = &TerrainError{Code: "INSTALL_NOT_FOUND", Message: "Dota 2 installation not found"}
)

// TerrainError is a structured error carrying a stable code for
// programmatic handling.
type TerrainError struct {
	Code    string         // Error code for programmatic handling
	Message string         // Human-readable error message
	Cause   error          // Underlying error, if any
	Details map[string]any // Additional context
}

// Error implements the error interface.
func (e *TerrainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	if len(e.Details) > 0 {
		return fmt.Sprintf("[%s] %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *TerrainError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, so errors.Is works across WithCause/WithDetail
// derivations of the same kind.
func (e *TerrainError) Is(target error) bool {
	t, ok := target.(*TerrainError)
	return ok && t.Code == e.Code
}

// WithCause derives a new error with an underlying cause attached.
func (e *TerrainError) WithCause(cause error) *TerrainError {
	return &TerrainError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
		Details: e.Details,
	}
}

// WithDetail derives a new error with a detail key-value pair attached.
func (e *TerrainError) WithDetail(key string, value any) *TerrainError {
	details := make(map[string]any)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &TerrainError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Details: details,
	}
}

// WithMessage derives a new error with the message replaced.
func (e *TerrainError) WithMessage(message string) *TerrainError {
	return &TerrainError{
		Code:    e.Code,
		Message: message,
		Cause:   e.Cause,
		Details: e.Details,
	}
}

// GetErrorCode extracts the code from a TerrainError, or "" for other errors.
func GetErrorCode(err error) string {
	if terr, ok := err.(*TerrainError); ok {
		return terr.Code
	}
	return ""
}
