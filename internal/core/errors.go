package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLoad matches every *LoadError.
	ErrLoad = errors.New("dataset load failed")
	// ErrLabel matches every *LabelError.
	ErrLabel = errors.New("unmapped category code")

	ErrMissingColumn = errors.New("missing column")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidCount  = errors.New("invalid count")
	ErrDuplicateDate = errors.New("duplicate date")
)

// LoadError reports a dataset that could not be read or parsed.
type LoadError struct {
	Path string
	Op   string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load dataset: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("load dataset %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// UnmappedCode is a category code present in the data with no display label.
type UnmappedCode struct {
	Category string
	Code     int
	Days     int
}

// LabelError lists every code the label tables do not cover.
type LabelError struct {
	Unmapped []UnmappedCode
}

func (e *LabelError) Error() string {
	parts := make([]string, 0, len(e.Unmapped))
	for _, u := range e.Unmapped {
		parts = append(parts, fmt.Sprintf("%s=%d (%d days)", u.Category, u.Code, u.Days))
	}
	return "unmapped category codes: " + strings.Join(parts, ", ")
}

func (e *LabelError) Is(target error) bool { return target == ErrLabel }
