package binimage

import "errors"

// Sentinel errors of the Binary Loader, matching the NoDebugInfo family
// of error kinds. Open and OpenELF return ErrUnreadableFile and
// ErrUnsupportedContainer.
var (
	// ErrUnreadableFile is returned when the path cannot be opened or
	// memory-mapped at all.
	ErrUnreadableFile = errors.New("binimage: file cannot be opened or mapped")

	// ErrUnsupportedContainer is returned when the first bytes of the
	// image match neither an ELF nor a PE/COFF signature.
	ErrUnsupportedContainer = errors.New("binimage: unrecognized container format")

	// ErrNoDebugInfo names a container that was parsed successfully but
	// carries no usable debug section (ELF) or Debug Directory CodeView
	// entry (PE). No function of this package returns it; the debug-info
	// readers report a missing stream with a2lerr.ErrNoDebugInfo.
	ErrNoDebugInfo = errors.New("binimage: image has no usable debug info")
)
