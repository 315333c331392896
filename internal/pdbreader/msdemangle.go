package pdbreader

import "strings"

// demangleMS undecorates the common MSVC C++ data-symbol case,
// matching dwarfreader's msdemangle.go: "?Identifier@NS1@NS2@@..."
// recovers "NS2::NS1::Identifier"; anything more exotic falls back to
// the original decorated name.
func demangleMS(name string) string {
	if !strings.HasPrefix(name, "?") {
		return name
	}
	rest := name[1:]
	end := strings.Index(rest, "@@")
	if end < 0 {
		return name
	}
	parts := strings.Split(rest[:end], "@")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "::")
}
