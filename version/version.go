// Package version parses the version banner reported by the embedded
// interpreter and answers ABI compatibility questions against it.
package version

import (
	"fmt"
	"strconv"
)

// Unknown marks a component that could not be parsed.
const Unknown = -1

// Version is a major.minor.patch triple. Components that failed to parse
// are Unknown.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse reads a banner such as "3.11.4 (main, Jun  7 2023, 00:00:00) [GCC 12]".
// The first two components end at '.', the third at ' ' or end of input.
// Malformed components become Unknown without stopping the scan, and
// missing trailing components stay Unknown.
func Parse(s string) Version {
	parts := [3]int{Unknown, Unknown, Unknown}
	idx, start := 0, 0

	for i := 0; i <= len(s) && idx < len(parts); i++ {
		if i < len(s) {
			c := s[i]
			if !(idx < 2 && c == '.') && !(idx == 2 && c == ' ') {
				continue
			}
		}
		parts[idx] = component(s[start:i])
		idx++
		start = i + 1
	}

	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}
}

func component(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return Unknown
	}
	return n
}

// AtLeast reports whether v is major.minor or newer. An Unknown major or
// minor never satisfies the check.
func (v Version) AtLeast(major, minor int) bool {
	if v.Major == Unknown || v.Minor == Unknown {
		return false
	}
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// Known reports whether all three components parsed.
func (v Version) Known() bool {
	return v.Major != Unknown && v.Minor != Unknown && v.Patch != Unknown
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
