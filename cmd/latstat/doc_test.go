// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"go/ast"
	"go/doc"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// Test that the examples in the command documentation do what they
// say.
func TestDoc(t *testing.T) {
	isolate(t)

	// Read the package documentation.
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "main.go", nil, parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}
	p, err := doc.NewFromFiles(fset, []*ast.File{f}, "p")
	if err != nil {
		t.Fatal(err)
	}
	tests := parseDocTests(p.Doc)
	if len(tests) == 0 {
		t.Fatal("failed to parse doc tests: found 0 tests")
	}

	// Run the tests.
	if err := os.Chdir("testdata"); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir("..")
	for _, test := range tests {
		var got, gotErr bytes.Buffer
		t.Logf("latstat %s", strings.Join(test.args, " "))
		if err := latstat(&got, &gotErr, test.args); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		// None of the doc tests should have error output.
		if gotErr.Len() != 0 {
			t.Errorf("unexpected stderr output:\n%s", gotErr.String())
			continue
		}

		// Compare the output
		diff(t, []byte(test.want), got.Bytes())
	}
}

type docTest struct {
	args []string
	want string
}

var docTestRe = regexp.MustCompile(`(?m)^[ \t]+\$ latstat (.*)\n((?:\t.*\n|\n)+)`)

func parseDocTests(doc string) []*docTest {
	var tests []*docTest
	for _, m := range docTestRe.FindAllStringSubmatch(doc, -1) {
		want := m[2]
		// Strip extra trailing newlines
		want = strings.TrimRight(want, "\n") + "\n"
		// Strip \t at the beginning of each line
		want = strings.Replace(want[1:], "\n\t", "\n", -1)
		tests = append(tests, &docTest{
			args: strings.Fields(m[1]),
			want: want,
		})
	}
	return tests
}

// Test that every source file carries the license header and that the
// license it refers to exists.
func TestCopyright(t *testing.T) {
	const root = "../.."
	if _, err := os.Stat(filepath.Join(root, "LICENSE")); err != nil {
		t.Fatal(err)
	}
	const header = "// Copyright 2026 The latstat Authors. All rights reserved.\n" +
		"// Use of this source code is governed by a BSD-style\n" +
		"// license that can be found in the LICENSE file.\n"
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(string(data), header) {
			t.Errorf("%s: missing license header", path)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
