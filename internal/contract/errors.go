package contract

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three ways an entrypoint contract can fail.
var (
	ErrMissingFile   = errors.New("missing entrypoint file")
	ErrMissingScript = errors.New("missing manifest script")
	ErrManifestParse = errors.New("manifest parse error")
)

// MissingFileError reports a required entrypoint that does not exist.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("entrypoint file %s does not exist", e.Path)
}

func (e *MissingFileError) Unwrap() error { return ErrMissingFile }

// MissingScriptError reports a script key that is absent or empty in the manifest.
type MissingScriptError struct {
	Key      string
	Manifest string
}

func (e *MissingScriptError) Error() string {
	return fmt.Sprintf("script %q is missing or empty in %s", e.Key, e.Manifest)
}

func (e *MissingScriptError) Unwrap() error { return ErrMissingScript }

// ManifestError reports a manifest that could not be read or parsed.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *ManifestError) Unwrap() []error { return []error{ErrManifestParse, e.Err} }
