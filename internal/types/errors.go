package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDataNotFound  = errors.New("data not found")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// RootScanError reports a configured root that could not be listed. It is
// recovered locally: the root is skipped and the run continues.
type RootScanError struct {
	Root string
	Err  error
}

func (e RootScanError) Error() string {
	return fmt.Sprintf("failed to scan root %s: %v", e.Root, e.Err)
}

func (e RootScanError) Unwrap() error {
	return e.Err
}

// LoaderError reports a single file that could not be opened or read. The
// file's contribution is treated as empty and the run continues.
type LoaderError struct {
	Path string
	Err  error
}

func (e LoaderError) Error() string {
	return fmt.Sprintf("failed to load from %s: %v", e.Path, e.Err)
}

func (e LoaderError) Unwrap() error {
	return e.Err
}

// ParseError reports a line that is not well-formed JSON.
type ParseError struct {
	Line int
	Err  error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %v", e.Line, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// ValidationError carries the constraints a parsed line violated. Expected
// invalid input is reported this way instead of panicking or aborting.
type ValidationError struct {
	Line       int
	Violations []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed at line %d: %s", e.Line, strings.Join(e.Violations, "; "))
}
