// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package latfmt

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// A Reader reads CSV datasets into Tables.
//
// The zero Reader sniffs the delimiter from the header line and
// treats lines starting with '#' as comments.
type Reader struct {
	// Comma is the field delimiter. If zero, the first of ',',
	// ';' and '\t' found in the header line is used.
	Comma rune

	// Comment, if not 0, is the comment character. If zero,
	// '#' is used; set it to -1 to disable comments.
	Comment rune
}

// Load reads the CSV file at path. The path "-" reads standard input.
// Open and read failures are reported as *InputError.
func Load(path string) (*Table, error) {
	var r Reader
	return r.Load(path)
}

// Load reads the CSV file at path using r's settings.
func (r *Reader) Load(path string) (*Table, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	return r.Parse(data, path)
}

// Read reads a CSV dataset from in. name is used in errors and as
// the Table's Name.
func (r *Reader) Read(in io.Reader, name string) (*Table, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, &InputError{Path: name, Err: err}
	}
	return r.Parse(data, name)
}

// Parse parses a CSV dataset held in memory.
func (r *Reader) Parse(data []byte, name string) (*Table, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = r.Comma
	if cr.Comma == 0 {
		cr.Comma = sniffDelimiter(data)
	}
	switch r.Comment {
	case 0:
		cr.Comment = '#'
	case -1:
	default:
		cr.Comment = r.Comment
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &InputError{Path: name, Err: errors.New("no header row")}
		}
		return nil, syntaxError(name, err)
	}
	t := NewTable(name, header...)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, syntaxError(name, err)
		}
		if len(rec) > len(t.Columns) {
			line, _ := cr.FieldPos(0)
			return nil, &SyntaxError{name, line, fmt.Sprintf("row has %d fields, header has %d", len(rec), len(t.Columns))}
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		t.AddRow(rec...)
	}
	return t, nil
}

func syntaxError(name string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &SyntaxError{name, pe.Line, pe.Err.Error()}
	}
	return &SyntaxError{name, 0, err.Error()}
}

// sniffDelimiter picks the delimiter of the header line of data,
// skipping blank and comment lines.
func sniffDelimiter(data []byte) rune {
	var line []byte
	for len(data) > 0 {
		line, data, _ = bytes.Cut(data, []byte("\n"))
		if t := bytes.TrimSpace(line); len(t) > 0 && t[0] != '#' {
			break
		}
	}
	best, bestN := ',', 0
	for _, c := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}
