// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/uarchlab/latstat/analysis"
	"github.com/uarchlab/latstat/latfmt"
)

// Fingerprint returns a 16-digit hex digest of t's contents and cfg.
// Equal tables analyzed with equal configurations have equal
// fingerprints; the table's Name does not contribute.
func Fingerprint(t *latfmt.Table, cfg analysis.Config) string {
	d := xxhash.New()
	for _, c := range t.Columns {
		d.WriteString(c)
		d.Write([]byte{0x1f})
	}
	for _, row := range t.Rows {
		d.Write([]byte{0x1e})
		for _, cell := range row {
			d.WriteString(cell)
			d.Write([]byte{0x1f})
		}
	}
	d.Write([]byte{0x1d})
	// Config is plain data; Marshal can't fail.
	b, _ := json.Marshal(cfg)
	d.Write(b)
	return fmt.Sprintf("%016x", d.Sum64())
}
