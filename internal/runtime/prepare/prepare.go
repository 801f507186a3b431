// Package prepare turns raw contract bytes into the canonical, metered
// module the execution engine runs. Preparation is two passes: normalize
// (validate, pin the memory, enforce shape limits) and instrument
// (inject gas and stack accounting). Both passes are deterministic;
// equal inputs produce byte-equal outputs.
package prepare

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/meterwasm/vmhost/types"
)

// HostEnvModule is the import namespace contracts use for host calls and
// memory.
const HostEnvModule = "env"

// HostInternalModule is the import namespace of the injected
// instrumentation callbacks. Contracts cannot name it themselves: any
// import from a module other than env fails preparation, so the three
// functions below are only ever called by injected code.
const HostInternalModule = "internal"

// Names of the injected instrumentation callbacks.
const (
	GasFuncName     = "finite_wasm_gas"
	StackFuncName   = "finite_wasm_stack"
	UnstackFuncName = "finite_wasm_unstack"
)

// MemoryImportName is the name of the pinned memory import.
const MemoryImportName = "memory"

// CoreFeatures is the exact wasm feature set contracts may use.
const CoreFeatures = api.CoreFeatureMutableGlobal |
	api.CoreFeatureSignExtensionOps |
	api.CoreFeatureBulkMemoryOperations

func prepareErr(kind types.PrepareErrorKind) *types.PrepareError {
	return &types.PrepareError{Kind: kind}
}

// Prepare validates a contract and returns the instrumented module.
func Prepare(ctx context.Context, code []byte, config *types.Config) ([]byte, error) {
	normalized, err := normalize(ctx, code, config)
	if err != nil {
		return nil, err
	}
	instrumented, err := instrument(normalized, config)
	if err != nil {
		return nil, err
	}
	return instrumented, nil
}

// engineValidate runs the module through the engine's validator with the
// pinned feature set.
func engineValidate(ctx context.Context, code []byte) error {
	cfg := wazero.NewRuntimeConfigInterpreter().WithCoreFeatures(CoreFeatures)
	r := wazero.NewRuntimeWithConfig(ctx, cfg)
	defer r.Close(ctx)
	cm, err := r.CompileModule(ctx, code)
	if err != nil {
		return prepareErr(PrepareDeserializationKind)
	}
	return cm.Close(ctx)
}

// Aliases keep the kind names short inside this package.
const (
	PrepareDeserializationKind        = types.PrepareDeserialization
	PrepareInternalMemoryDeclaredKind = types.PrepareInternalMemoryDeclared
	PrepareInstantiateKind            = types.PrepareInstantiate
	PrepareMemoryKind                 = types.PrepareMemory
	PrepareTooManyFunctionsKind       = types.PrepareTooManyFunctions
	PrepareTooManyLocalsKind          = types.PrepareTooManyLocals
)

// normalize is the first pass: import policy, memory pinning, shape
// limits, then engine validation of the result. Validation runs on the
// normalized module so data segments see the injected memory.
func normalize(ctx context.Context, code []byte, config *types.Config) ([]byte, error) {
	sections, err := splitSections(code)
	if err != nil {
		return nil, prepareErr(PrepareDeserializationKind)
	}

	var (
		imports          []importEntry
		importSectionIdx = -1
		importedFuncs    uint64
		definedFuncs     uint64
		totalLocals      uint64
		hasMemoryImport  bool
	)

	out := sections[:0]
	for _, s := range sections {
		switch s.id {
		case sectionCustom:
			if config.DiscardCustomSections {
				continue
			}
			out = append(out, s)
		case sectionImport:
			imports, err = parseImports(s.body)
			if err != nil {
				return nil, prepareErr(PrepareDeserializationKind)
			}
			for _, imp := range imports {
				if imp.module != HostEnvModule {
					return nil, prepareErr(PrepareInstantiateKind)
				}
				switch imp.kind {
				case kindFunc:
					importedFuncs++
				case kindMemory:
					if err := checkMemoryImport(imp, config); err != nil {
						return nil, err
					}
					hasMemoryImport = true
				}
			}
			importSectionIdx = len(out)
			out = append(out, s)
		case sectionMemory:
			declared, merr := memoryCount(s.body)
			if merr != nil {
				return nil, prepareErr(PrepareDeserializationKind)
			}
			if declared > 0 {
				return nil, prepareErr(PrepareInternalMemoryDeclaredKind)
			}
			// An empty memory section carries no information; drop it.
		case sectionFunction:
			r := &reader{buf: s.body}
			count, cerr := r.uleb32()
			if cerr != nil {
				return nil, prepareErr(PrepareDeserializationKind)
			}
			definedFuncs = uint64(count)
			out = append(out, s)
		case sectionCode:
			totalLocals, err = countLocals(s.body)
			if err != nil {
				return nil, prepareErr(PrepareDeserializationKind)
			}
			out = append(out, s)
		default:
			out = append(out, s)
		}
	}

	if importedFuncs+definedFuncs > config.LimitConfig.MaxFunctionsNumberPerContract {
		return nil, prepareErr(PrepareTooManyFunctionsKind)
	}
	if totalLocals > config.LimitConfig.MaxLocalsPerContract {
		return nil, prepareErr(PrepareTooManyLocalsKind)
	}

	if !hasMemoryImport {
		memImport := importEntry{
			module: HostEnvModule,
			name:   MemoryImportName,
			kind:   kindMemory,
			raw: encodeMemoryImportDescriptor(
				config.LimitConfig.InitialMemoryPages,
				config.LimitConfig.MaxMemoryPages,
			),
		}
		if importSectionIdx >= 0 {
			imports = append(imports, memImport)
			out[importSectionIdx] = section{id: sectionImport, body: encodeImports(imports)}
		} else {
			body := encodeImports([]importEntry{memImport})
			out = insertSection(out, section{id: sectionImport, body: body})
		}
	}

	normalized := joinSections(out)
	if err := engineValidate(ctx, normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// checkMemoryImport accepts exactly one shape of imported memory: the
// configured bounds under env.memory. Anything else fails preparation.
func checkMemoryImport(imp importEntry, config *types.Config) error {
	if imp.name != MemoryImportName {
		return prepareErr(PrepareMemoryKind)
	}
	r := &reader{buf: imp.raw}
	min, max, hasMax, err := r.readLimits()
	if err != nil {
		return prepareErr(PrepareDeserializationKind)
	}
	if !hasMax ||
		min != config.LimitConfig.InitialMemoryPages ||
		max != config.LimitConfig.MaxMemoryPages {
		return prepareErr(PrepareMemoryKind)
	}
	return nil
}

// memoryCount returns the number of memories declared by a memory
// section.
func memoryCount(body []byte) (uint32, error) {
	r := &reader{buf: body}
	return r.uleb32()
}

// countLocals sums the declared locals over every function body.
func countLocals(body []byte) (uint64, error) {
	r := &reader{buf: body}
	bodies, err := r.uleb32()
	if err != nil {
		return 0, err
	}
	var total uint64
	for i := uint32(0); i < bodies; i++ {
		size, err := r.uleb32()
		if err != nil {
			return 0, err
		}
		raw, err := r.bytes(int(size))
		if err != nil {
			return 0, err
		}
		br := &reader{buf: raw}
		decls, err := br.uleb32()
		if err != nil {
			return 0, err
		}
		for j := uint32(0); j < decls; j++ {
			count, err := br.uleb32()
			if err != nil {
				return 0, err
			}
			if _, err := br.byte(); err != nil {
				return 0, err
			}
			total += uint64(count)
		}
	}
	return total, nil
}

// insertSection places a new section at its id-ordered position, after
// any leading custom sections.
func insertSection(sections []section, s section) []section {
	at := len(sections)
	for i, existing := range sections {
		if existing.id != sectionCustom && existing.id > s.id {
			at = i
			break
		}
	}
	out := make([]section, 0, len(sections)+1)
	out = append(out, sections[:at]...)
	out = append(out, s)
	return append(out, sections[at:]...)
}
