// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package latfmt

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingInput reports that a dataset could not be loaded.
	ErrMissingInput = errors.New("missing input")

	// ErrMissingColumn reports that a required column is absent.
	ErrMissingColumn = errors.New("missing column")
)

// An InputError records a failure to open or read a dataset.
// It matches ErrMissingInput with errors.Is and unwraps to the
// underlying I/O error.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrMissingInput, e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

func (e *InputError) Is(target error) bool {
	return target == ErrMissingInput
}

// A MissingColumnError names a required column absent from a table.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s %q", ErrMissingColumn, e.Column)
	}
	return fmt.Sprintf("%s: %s %q", e.Table, ErrMissingColumn, e.Column)
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// A SyntaxError represents a malformed line of a CSV file.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}
