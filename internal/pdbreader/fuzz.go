package pdbreader

import "github.com/a2l-tools/a2ltool/internal/symgraph"

func Fuzz(data []byte) int {
	msf, err := openMSF(data)
	if err != nil {
		return 0
	}

	graph := symgraph.New()
	ran := 0

	if tpiStream := msf.stream(streamTPI); len(tpiStream) > 0 {
		if _, err := buildTypeStream(graph, tpiStream, 8); err == nil {
			ran = 1
		}
	}

	if dbiStream := msf.stream(streamDBI); len(dbiStream) > 0 {
		if dbi, err := parseDBIHeader(dbiStream); err == nil {
			if symStream := msf.stream(int(dbi.globalSymStream)); len(symStream) > 0 {
				_ = parseSymbolStream(symStream)
				ran = 1
			}
		}
	}

	return ran
}
