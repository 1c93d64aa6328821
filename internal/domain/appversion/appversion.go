// Package appversion encodes toolkit version strings ("3.6.*", "4.0b2pre")
// into sortable integers and evaluates compatibility windows against them.
package appversion

import (
	"fmt"
	"regexp"
	"strconv"
)

var versionRe = regexp.MustCompile(
	`^(\d+|\*)\.?(\d+|\*)?\.?(\d+|\*)?\.?(\d+|\*)?([ab]?)(\d*)(pre)?(\d)?`,
)

// maxPart is the widest value a two-digit slot can hold. "*" also maps to it.
const maxPart = 99

// Parts is the decomposed form of a version string.
type Parts struct {
	Major, Minor1, Minor2, Minor3 int
	Alpha                         string // "a", "b" or ""
	AlphaVer                      int
	Pre                           bool
	PreVer                        int
}

// Parse decomposes a version string. Unparseable input yields zero Parts.
func Parse(version string) Parts {
	m := versionRe.FindStringSubmatch(version)
	if m == nil {
		return Parts{}
	}
	return Parts{
		Major:    number(m[1]),
		Minor1:   number(m[2]),
		Minor2:   number(m[3]),
		Minor3:   number(m[4]),
		Alpha:    m[5],
		AlphaVer: number(m[6]),
		Pre:      m[7] != "",
		PreVer:   number(m[8]),
	}
}

func number(s string) int {
	if s == "*" {
		return maxPart
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Int returns the sortable integer for a version string.
// Releases sort above their own alphas and betas: Int("10.0a") < Int("10.0b") < Int("10.0").
func Int(version string) int64 {
	return Parse(version).Int()
}

// Int encodes the parts as major, three two-digit minors, the alpha rank,
// the alpha number, the pre flag and the pre number.
func (p Parts) Int() int64 {
	alpha := 2
	switch p.Alpha {
	case "a":
		alpha = 0
	case "b":
		alpha = 1
	}
	pre := 1
	if p.Pre {
		pre = 0
	}
	s := fmt.Sprintf("%d%02d%02d%02d%d%02d%d%02d",
		p.Major, clamp(p.Minor1), clamp(p.Minor2), clamp(p.Minor3),
		alpha, clamp(p.AlphaVer), pre, clamp(p.PreVer))
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func clamp(n int) int {
	if n > maxPart {
		return maxPart
	}
	return n
}

// Range is an inclusive compatibility range in encoded form.
type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// WideOpen is the range given to entities that declare an application
// without bounding it.
func WideOpen() Range {
	return Range{Min: 0, Max: Int("9999")}
}

// RangeOf encodes a min/max version pair.
func RangeOf(minVersion, maxVersion string) Range {
	return Range{Min: Int(minVersion), Max: Int(maxVersion)}
}

// Window is the pair of bounds a requested application version is matched with.
// Low is the release itself, High is its first alpha; an entity is
// compatible when its range starts at or before Low and reaches High.
type Window struct {
	Low  int64
	High int64
}

// WindowFor builds the window for a requested version.
func WindowFor(version string) Window {
	return Window{Low: Int(version), High: Int(version + "a")}
}

// Compatible reports whether r covers the window.
func (w Window) Compatible(r Range) bool {
	return r.Min <= w.Low && r.Max >= w.High
}
