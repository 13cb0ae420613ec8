// Package version compares platform version strings.
//
// Versions are dotted-numeric with an optional pre-release suffix
// (e.g. "2.2.1", "2.3.0-rc1"). Comparison follows semantic-version
// ordering for well-formed versions and falls back to a part-wise
// numeric comparison for anything semver cannot parse, so truncated
// versions like "2.2" still order sensibly.
//
// The Development sentinel identifies a host built from source rather
// than a release. A development host satisfies every minimum-version
// requirement; callers are expected to log that the check was bypassed.
package version

import (
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Development is the sentinel platform version reported by hosts built
// from source. It satisfies every requirement.
const Development = "development"

// IsDevelopment reports whether v is the development-build sentinel.
func IsDevelopment(v string) bool {
	return strings.TrimSpace(v) == Development
}

// Compare returns -1 if a is older than b, 0 if they are equal, and +1
// if a is newer than b.
func Compare(a, b string) int {
	ca, cb := canonical(a), canonical(b)
	if semver.IsValid(ca) && semver.IsValid(cb) {
		return semver.Compare(ca, cb)
	}
	return comparePartwise(a, b)
}

// Satisfies reports whether the host platform version meets the given
// minimum. The second result reports that the check was bypassed
// because the host is a development build.
func Satisfies(host, min string) (ok, bypassed bool) {
	if IsDevelopment(host) {
		return true, true
	}
	return Compare(host, min) >= 0, false
}

// canonical normalizes a version string into the form x/mod/semver
// expects: leading "v", surrounding whitespace removed.
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// comparePartwise compares dot-separated segments numerically, treating
// missing segments as zero. Non-numeric segments compare lexically,
// which keeps suffixed versions ("2.2.1.beta") in a stable total order.
func comparePartwise(a, b string) int {
	aParts := strings.Split(strings.TrimPrefix(strings.TrimSpace(a), "v"), ".")
	bParts := strings.Split(strings.TrimPrefix(strings.TrimSpace(b), "v"), ".")

	n := len(aParts)
	if len(bParts) > n {
		n = len(bParts)
	}

	for i := 0; i < n; i++ {
		var ap, bp string
		if i < len(aParts) {
			ap = strings.TrimSpace(aParts[i])
		}
		if i < len(bParts) {
			bp = strings.TrimSpace(bParts[i])
		}

		an, aNum := atoi(ap)
		bn, bNum := atoi(bp)

		switch {
		case aNum && bNum:
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
		case aNum != bNum:
			// A numeric segment outranks a pre-release suffix
			// ("2.2.1" is newer than "2.2.beta").
			if aNum {
				return 1
			}
			return -1
		default:
			if c := strings.Compare(ap, bp); c != 0 {
				return c
			}
		}
	}

	return 0
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
