package prepare

// Wasm value type bytes used in generated signatures.
const (
	ValI32 = 0x7F
	ValI64 = 0x7E
)

// HostFunc describes one function of the env import surface.
type HostFunc struct {
	Name    string
	Params  []byte
	Results []byte
}

// BuildEnvModule generates the env facade module: it imports every host
// function from the given host module, re-exports each under its own
// name, and defines and exports the bounded guest memory. Contracts link
// against this module; the engine-side host module stays memory-less.
func BuildEnvModule(hostModule string, funcs []HostFunc, initialPages, maxPages uint32) []byte {
	// Deduplicated function types.
	type sig struct{ params, results string }
	sigIdx := make(map[sig]uint32)
	var typeBody []byte
	var typeCount uint32
	typeOf := func(f HostFunc) uint32 {
		key := sig{string(f.Params), string(f.Results)}
		if idx, ok := sigIdx[key]; ok {
			return idx
		}
		typeBody = append(typeBody, 0x60)
		typeBody = appendUleb32(typeBody, uint32(len(f.Params)))
		typeBody = append(typeBody, f.Params...)
		typeBody = appendUleb32(typeBody, uint32(len(f.Results)))
		typeBody = append(typeBody, f.Results...)
		idx := typeCount
		sigIdx[key] = idx
		typeCount++
		return idx
	}

	imports := make([]importEntry, 0, len(funcs))
	for _, f := range funcs {
		imports = append(imports, importEntry{
			module: hostModule,
			name:   f.Name,
			kind:   kindFunc,
			raw:    appendUleb32(nil, typeOf(f)),
		})
	}

	memBody := appendUleb32(nil, 1)
	memBody = append(memBody, 0x01)
	memBody = appendUleb32(memBody, initialPages)
	memBody = appendUleb32(memBody, maxPages)

	exportBody := appendUleb32(nil, uint32(len(funcs))+1)
	for i, f := range funcs {
		exportBody = appendUleb32(exportBody, uint32(len(f.Name)))
		exportBody = append(exportBody, f.Name...)
		exportBody = append(exportBody, kindFunc)
		exportBody = appendUleb32(exportBody, uint32(i))
	}
	exportBody = appendUleb32(exportBody, uint32(len(MemoryImportName)))
	exportBody = append(exportBody, MemoryImportName...)
	exportBody = append(exportBody, kindMemory)
	exportBody = appendUleb32(exportBody, 0)

	sections := []section{
		{id: sectionType, body: append(appendUleb32(nil, typeCount), typeBody...)},
		{id: sectionImport, body: encodeImports(imports)},
		{id: sectionMemory, body: memBody},
		{id: sectionExport, body: exportBody},
	}
	return joinSections(sections)
}
