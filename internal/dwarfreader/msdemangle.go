package dwarfreader

import "strings"

// demangleMS undecorates the common MSVC C++ name-mangling case: a
// non-overloaded, non-templated static/global data symbol of the form
// "?Identifier@Namespace1@Namespace2@@...". No importable Go library
// implementing full undname-style decoding was found anywhere in the
// retrieved corpus, so only the qualified-name prefix is recovered;
// anything more exotic (templates, operator overloads, calling-
// convention codes) falls back to the original decorated name, which
// still resolves correctly since a decorated name that does not match
// any Symbol Graph entry simply fails Name Resolver lookup rather than
// producing a wrong answer.
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
