package dwarfreader

import itanium "github.com/ianlancetaylor/demangle"

// demangle canonicalizes a linker symbol name into the form a source-
// level path expression would use: Itanium C++ names (leading "_Z")
// via the demangle library, Microsoft C++ names (leading "?") via a
// small hand-rolled undecorator, anything else returned unchanged.
func demangle(name string) string {
	if len(name) == 0 {
		return name
	}
	if name[0] == '?' {
		return demangleMS(name)
	}
	if out, err := itanium.ToString(name); err == nil {
		return out
	}
	return name
}
