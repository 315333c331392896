package pdbreader

import itanium "github.com/ianlancetaylor/demangle"

// demangle mirrors dwarfreader's name canonicalization: PDB global data
// symbols are close to universally MSVC-compiled, so the Microsoft
// scheme is tried first, falling back to Itanium for the occasional
// clang-cl/LLVM-on-Windows build.
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
