// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package latfmt

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const numPrefixes = `KMGTPEZY`

var numRe = regexp.MustCompile(`^([0-9.]+)\s*([k` + numPrefixes + `]i?)?[bB]?$`)

// ParseNum is a fuzzy number parser for table cells. Besides plain
// floats it accepts sizes with SI or IEC suffixes. Because cache and
// working-set sizes are conventionally binary, a bare K/M/G suffix
// ("48K", as printed by sysfs) is read as a power of 1024, as is an
// explicit "Ki"/"Mi" suffix. A trailing "B" is ignored.
func ParseNum(x string) (float64, error) {
	x = strings.TrimSpace(x)
	v, err := strconv.ParseFloat(x, 64)
	if err == nil {
		return v, nil
	}

	subs := numRe.FindStringSubmatch(x)
	if subs != nil {
		v, err := strconv.ParseFloat(subs[1], 64)
		if err == nil {
			exp := 0
			if len(subs[2]) > 0 {
				pre := subs[2][0]
				if pre == 'k' {
					pre = 'K'
				}
				exp = 1 + strings.IndexByte(numPrefixes, pre)
			}
			return v * math.Pow(1024, float64(exp)), nil
		}
	}

	return 0, strconv.ErrSyntax
}

// IsMissing reports whether a cell holds no value.
func IsMissing(x string) bool {
	switch strings.ToUpper(strings.TrimSpace(x)) {
	case "", "NA", "N/A", "NAN", "NULL", "-":
		return true
	}
	return false
}
