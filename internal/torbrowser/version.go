package torbrowser

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Branch is a release track.
type Branch string

const (
	BranchAlpha  Branch = "alpha"
	BranchStable Branch = "stable"
)

// ErrUnknownBranch is returned by ParseBranch.
var ErrUnknownBranch = errors.New("unknown branch")

// ParseBranch converts a branch name. An empty string selects stable.
func ParseBranch(s string) (Branch, error) {
	switch Branch(strings.ToLower(strings.TrimSpace(s))) {
	case "", BranchStable:
		return BranchStable, nil
	case BranchAlpha:
		return BranchAlpha, nil
	default:
		return "", fmt.Errorf("%w: %q (want alpha or stable)", ErrUnknownBranch, s)
	}
}

// BranchOf returns the branch a version belongs to: alpha iff the version
// contains the "a" marker.
func BranchOf(version string) Branch {
	if strings.Contains(version, "a") {
		return BranchAlpha
	}
	return BranchStable
}

// Matches reports whether version belongs to b.
func (b Branch) Matches(version string) bool {
	return BranchOf(version) == b
}

var versionPattern = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})[a.]?(\d{0,3})$`)

// ErrInvalidVersion is returned for strings outside major.minor[.|a]fix.
var ErrInvalidVersion = errors.New("invalid version")

// VersionKey maps major.minor[.|a]fix onto major*1e6 + minor*1e3 + fix so
// versions compare numerically. A missing fix counts as 0.
func VersionKey(version string) (int64, error) {
	m := versionPattern.FindStringSubmatch(version)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}

	var parts [3]int64
	for i, s := range m[1:] {
		if s == "" {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, version, err)
		}
		parts[i] = n
	}

	return parts[0]*1_000_000 + parts[1]*1_000 + parts[2], nil
}

// CompareVersions returns -1, 0 or +1. Invalid versions sort before valid ones.
func CompareVersions(a, b string) int {
	ka, errA := VersionKey(a)
	kb, errB := VersionKey(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}

// SortVersions sorts versions ascending in place.
func SortVersions(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return CompareVersions(versions[i], versions[j]) < 0
	})
}
