package main

import (
	"github.com/a2l-tools/a2ltool/internal/binimage"
	"github.com/a2l-tools/a2ltool/internal/dwarfreader"
	"github.com/a2l-tools/a2ltool/internal/pdbreader"
	"github.com/a2l-tools/a2ltool/internal/symgraph"
)

// loadSymbolGraph builds the Symbol Graph the rest of the engine works
// against, per spec.md §4.1's two entry points: an ELF/PE image read
// through the DWARF back-end, or an explicit sibling .pdb read through
// the PDB back-end. When both are given, the .pdb takes precedence,
// since a MinGW-style binary carrying its own inline DWARF would not
// normally ship a .pdb alongside it.
func loadSymbolGraph(binaryPath, pdbPath string) (*symgraph.SymbolGraph, binimage.LoadedImage, error) {
	img, err := binimage.Open(binaryPath, &binimage.Options{})
	if err != nil {
		return nil, nil, err
	}

	if pdbPath != "" {
		graph, err := pdbreader.Read(pdbPath, img.AddressSize())
		if err != nil {
			img.Close()
			return nil, nil, err
		}
		return graph, img, nil
	}

	graph, err := dwarfreader.Read(img)
	if err != nil {
		img.Close()
		return nil, nil, err
	}
	return graph, img, nil
}

// closeImage releases img, logging rather than failing the command if
// the close itself errors: by the time it runs the engine has already
// produced its result.
func closeImage(img binimage.LoadedImage) {
	if img == nil {
		return
	}
	if err := img.Close(); err != nil {
		log.Warnw("msg", "closing loaded image", "err", err)
	}
}
