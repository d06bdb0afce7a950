package platform

import (
	"strings"
)

// familyMap maps distribution names to their canonical family names.
// gopsutil reports family strings inconsistently across distributions.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian,
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// nativePlatforms maps host OS names to release platforms. Both Go (GOOS)
// and Node style names are accepted so values read from older config files
// keep working.
var nativePlatforms = map[string]ReleasePlatform{
	"darwin":  OSX,
	"linux":   Linux,
	"windows": Win,
	"win32":   Win,
}

// nativeArchs maps host architecture names to release arch codes.
var nativeArchs = map[string]string{
	"amd64": Arch64,
	"x64":   Arch64,
	"386":   Arch32,
	"ia32":  Arch32,
}

// mapNativePlatform converts a host OS name, Unsupported if unknown.
func mapNativePlatform(native string) ReleasePlatform {
	if p, ok := nativePlatforms[native]; ok {
		return p
	}
	return Unsupported
}

// mapNativeArch converts a host arch name, ArchUnsupported if unknown.
func mapNativeArch(native string) string {
	if a, ok := nativeArchs[native]; ok {
		return a
	}
	return ArchUnsupported
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}
	return FamilyUnknown
}
