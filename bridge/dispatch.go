package bridge

import (
	"strings"

	"github.com/wippyai/pybridge/version"
)

// abi holds the entry points whose availability depends on the interpreter
// version. Callers go through these instead of branching on the version.
type abi struct {
	is       func(s *session, a, b uintptr) (bool, error)
	iterNext func(s *session, it uintptr) (IterResult, error)
	fetch    func(s *session) (Owned, error)
	name     string
}

// gate enables a newer entry point from major.minor on. Below the gate the
// fallback in baseABI is used and the newer symbol is never resolved.
type gate struct {
	feature string
	major   int
	minor   int
	apply   func(*abi)
}

var baseABI = abi{
	is:       isByAddress,
	iterNext: iterNextLegacy,
	fetch:    fetchLegacy,
}

var gates = []gate{
	{"Py_Is", 3, 10, func(a *abi) { a.is = isByCall }},
	{"PyErr_GetRaisedException", 3, 12, func(a *abi) { a.fetch = fetchRaised }},
	{"PyIter_NextItem", 3, 14, func(a *abi) { a.iterNext = iterNextItem }},
}

func selectABI(v version.Version) abi {
	a := baseABI
	var enabled []string
	for _, g := range gates {
		if v.AtLeast(g.major, g.minor) {
			g.apply(&a)
			enabled = append(enabled, g.feature)
		}
	}
	if len(enabled) == 0 {
		a.name = "baseline"
	} else {
		a.name = strings.Join(enabled, "+")
	}
	return a
}

func isByAddress(_ *session, a, b uintptr) (bool, error) {
	return a == b, nil
}

func isByCall(s *session, a, b uintptr) (bool, error) {
	is, err := bind[func(uintptr, uintptr) int32](s, "Py_Is")
	if err != nil {
		return false, err
	}
	return is(a, b) != 0, nil
}
