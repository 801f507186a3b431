package prepare

import (
	"github.com/meterwasm/vmhost/types"
)

// funcTypeI64 and funcTypeI64I64 are the appended host-callback
// signatures: (i64) -> () and (i64, i64) -> ().
var (
	funcTypeI64    = []byte{0x60, 0x01, 0x7E, 0x00}
	funcTypeI64I64 = []byte{0x60, 0x02, 0x7E, 0x7E, 0x00}
)

// stackFrameBaseSize is the accounted size of one call frame before its
// locals.
const stackFrameBaseSize = 64

// bytesPerLocal is the accounted size of one local slot.
const bytesPerLocal = 8

// blockTypeVoid is the empty block type byte.
const blockTypeVoid = 0x40

// instrumentation carries the index bookkeeping of the second pass.
// Appending three imports shifts every defined function by three while
// imported functions keep their indices.
type instrumentation struct {
	gasIdx        uint32
	stackIdx      uint32
	unstackIdx    uint32
	firstDefined  uint32 // original imported-function count
	regularOpCost types.Gas
}

func (in *instrumentation) rewriteFunc(idx uint32) uint32 {
	if idx >= in.firstDefined {
		return idx + 3
	}
	return idx
}

// instrument is the second pass: it wires the gas, stack and unstack
// callbacks into the module and charges every basic block up front.
func instrument(module []byte, config *types.Config) ([]byte, error) {
	sections, err := splitSections(module)
	if err != nil {
		return nil, prepareErr(PrepareDeserializationKind)
	}

	typeIdx, importIdx, funcSecIdx := -1, -1, -1
	for i, s := range sections {
		switch s.id {
		case sectionType:
			typeIdx = i
		case sectionImport:
			importIdx = i
		case sectionFunction:
			funcSecIdx = i
		}
	}
	if importIdx < 0 {
		return nil, prepareErr(PrepareDeserializationKind)
	}

	var origTypes uint32
	var typeResults [][]byte
	if typeIdx >= 0 {
		r := &reader{buf: sections[typeIdx].body}
		origTypes, err = r.uleb32()
		if err != nil {
			return nil, prepareErr(PrepareDeserializationKind)
		}
		rest := sections[typeIdx].body[r.pos:]
		typeResults, err = parseTypeResults(r, origTypes)
		if err != nil {
			return nil, prepareErr(PrepareDeserializationKind)
		}
		body := appendUleb32(nil, origTypes+2)
		body = append(body, rest...)
		body = append(body, funcTypeI64...)
		body = append(body, funcTypeI64I64...)
		sections[typeIdx] = section{id: sectionType, body: body}
	} else {
		body := appendUleb32(nil, 2)
		body = append(body, funcTypeI64...)
		body = append(body, funcTypeI64I64...)
		sections = insertSection(sections, section{id: sectionType, body: body})
		importIdx++
		if funcSecIdx >= 0 {
			funcSecIdx++
		}
	}
	gasTypeIdx := origTypes
	stackTypeIdx := origTypes + 1

	imports, err := parseImports(sections[importIdx].body)
	if err != nil {
		return nil, prepareErr(PrepareDeserializationKind)
	}
	var importedFuncs uint32
	for _, imp := range imports {
		if imp.kind == kindFunc {
			importedFuncs++
		}
	}
	imports = append(imports,
		importEntry{module: HostInternalModule, name: GasFuncName, kind: kindFunc, raw: appendUleb32(nil, gasTypeIdx)},
		importEntry{module: HostInternalModule, name: StackFuncName, kind: kindFunc, raw: appendUleb32(nil, stackTypeIdx)},
		importEntry{module: HostInternalModule, name: UnstackFuncName, kind: kindFunc, raw: appendUleb32(nil, stackTypeIdx)},
	)
	sections[importIdx] = section{id: sectionImport, body: encodeImports(imports)}

	in := &instrumentation{
		gasIdx:        importedFuncs,
		stackIdx:      importedFuncs + 1,
		unstackIdx:    importedFuncs + 2,
		firstDefined:  importedFuncs,
		regularOpCost: config.RegularOpCost,
	}

	// Each rewritten body is wrapped in a block of the function's result
	// type, so the exit paths need the declared type of every defined
	// function.
	var blockTypes [][]byte
	if funcSecIdx >= 0 {
		r := &reader{buf: sections[funcSecIdx].body}
		count, err := r.uleb32()
		if err != nil {
			return nil, prepareErr(PrepareDeserializationKind)
		}
		blockTypes = make([][]byte, 0, count)
		for i := uint32(0); i < count; i++ {
			ti, err := r.uleb32()
			if err != nil || ti >= uint32(len(typeResults)) {
				return nil, prepareErr(PrepareDeserializationKind)
			}
			results := typeResults[ti]
			switch len(results) {
			case 0:
				blockTypes = append(blockTypes, []byte{blockTypeVoid})
			case 1:
				blockTypes = append(blockTypes, []byte{results[0]})
			default:
				// Multi-value results are outside the accepted feature set.
				return nil, prepareErr(PrepareDeserializationKind)
			}
		}
	}

	for i, s := range sections {
		switch s.id {
		case sectionExport:
			body, err := in.rewriteExports(s.body)
			if err != nil {
				return nil, prepareErr(PrepareDeserializationKind)
			}
			sections[i] = section{id: s.id, body: body}
		case sectionStart:
			r := &reader{buf: s.body}
			idx, err := r.uleb32()
			if err != nil {
				return nil, prepareErr(PrepareDeserializationKind)
			}
			sections[i] = section{id: s.id, body: appendUleb32(nil, in.rewriteFunc(idx))}
		case sectionElement:
			body, err := in.rewriteElements(s.body)
			if err != nil {
				return nil, prepareErr(PrepareDeserializationKind)
			}
			sections[i] = section{id: s.id, body: body}
		case sectionCode:
			body, err := in.instrumentCode(s.body, blockTypes)
			if err != nil {
				return nil, err
			}
			sections[i] = section{id: s.id, body: body}
		}
	}
	return joinSections(sections), nil
}

func (in *instrumentation) rewriteExports(body []byte) ([]byte, error) {
	r := &reader{buf: body}
	count, err := r.uleb32()
	if err != nil {
		return nil, err
	}
	out := appendUleb32(nil, count)
	for i := uint32(0); i < count; i++ {
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		kind, err := r.byte()
		if err != nil {
			return nil, err
		}
		idx, err := r.uleb32()
		if err != nil {
			return nil, err
		}
		if kind == kindFunc {
			idx = in.rewriteFunc(idx)
		}
		out = appendUleb32(out, uint32(len(name)))
		out = append(out, name...)
		out = append(out, kind)
		out = appendUleb32(out, idx)
	}
	return out, nil
}

// copyConstExpr copies a constant initializer expression verbatim.
func copyConstExpr(r *reader, out []byte) ([]byte, error) {
	start := r.pos
	op, err := r.byte()
	if err != nil {
		return nil, err
	}
	switch op {
	case 0x41: // i32.const
		if _, err := r.sleb(32); err != nil {
			return nil, err
		}
	case 0x42: // i64.const
		if _, err := r.sleb(64); err != nil {
			return nil, err
		}
	case 0x43: // f32.const
		if _, err := r.bytes(4); err != nil {
			return nil, err
		}
	case 0x44: // f64.const
		if _, err := r.bytes(8); err != nil {
			return nil, err
		}
	case 0x23: // global.get
		if _, err := r.uleb32(); err != nil {
			return nil, err
		}
	default:
		return nil, errBadModule
	}
	end, err := r.byte()
	if err != nil {
		return nil, err
	}
	if end != opEnd {
		return nil, errBadModule
	}
	return append(out, r.buf[start:r.pos]...), nil
}

func (in *instrumentation) rewriteFuncVec(r *reader, out []byte) ([]byte, error) {
	n, err := r.uleb32()
	if err != nil {
		return nil, err
	}
	out = appendUleb32(out, n)
	for i := uint32(0); i < n; i++ {
		idx, err := r.uleb32()
		if err != nil {
			return nil, err
		}
		out = appendUleb32(out, in.rewriteFunc(idx))
	}
	return out, nil
}

func (in *instrumentation) rewriteElements(body []byte) ([]byte, error) {
	r := &reader{buf: body}
	count, err := r.uleb32()
	if err != nil {
		return nil, err
	}
	out := appendUleb32(nil, count)
	for i := uint32(0); i < count; i++ {
		flags, err := r.uleb32()
		if err != nil {
			return nil, err
		}
		out = appendUleb32(out, flags)
		switch flags {
		case 0:
			if out, err = copyConstExpr(r, out); err != nil {
				return nil, err
			}
			if out, err = in.rewriteFuncVec(r, out); err != nil {
				return nil, err
			}
		case 1, 3:
			kind, err := r.byte()
			if err != nil {
				return nil, err
			}
			out = append(out, kind)
			if out, err = in.rewriteFuncVec(r, out); err != nil {
				return nil, err
			}
		case 2:
			tableIdx, err := r.uleb32()
			if err != nil {
				return nil, err
			}
			out = appendUleb32(out, tableIdx)
			if out, err = copyConstExpr(r, out); err != nil {
				return nil, err
			}
			kind, err := r.byte()
			if err != nil {
				return nil, err
			}
			out = append(out, kind)
			if out, err = in.rewriteFuncVec(r, out); err != nil {
				return nil, err
			}
		case 4:
			if out, err = copyConstExpr(r, out); err != nil {
				return nil, err
			}
			n, err := r.uleb32()
			if err != nil {
				return nil, err
			}
			out = appendUleb32(out, n)
			for j := uint32(0); j < n; j++ {
				if out, err = in.rewriteRefExpr(r, out); err != nil {
					return nil, err
				}
			}
		default:
			return nil, errBadModule
		}
	}
	return out, nil
}

// rewriteRefExpr rewrites one element expression: ref.func with a
// shifted index or ref.null, each terminated by end.
func (in *instrumentation) rewriteRefExpr(r *reader, out []byte) ([]byte, error) {
	op, err := r.byte()
	if err != nil {
		return nil, err
	}
	switch op {
	case 0xD2: // ref.func
		idx, err := r.uleb32()
		if err != nil {
			return nil, err
		}
		out = append(out, op)
		out = appendUleb32(out, in.rewriteFunc(idx))
	case 0xD0: // ref.null
		t, err := r.byte()
		if err != nil {
			return nil, err
		}
		out = append(out, op, t)
	default:
		return nil, errBadModule
	}
	end, err := r.byte()
	if err != nil {
		return nil, err
	}
	if end != opEnd {
		return nil, errBadModule
	}
	return append(out, opEnd), nil
}

// parseTypeResults collects the result types of every declared function
// type. The reader must be positioned right after the type count.
func parseTypeResults(r *reader, count uint32) ([][]byte, error) {
	out := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		form, err := r.byte()
		if err != nil {
			return nil, err
		}
		if form != 0x60 {
			return nil, errBadModule
		}
		params, err := r.uleb32()
		if err != nil {
			return nil, err
		}
		if _, err := r.bytes(int(params)); err != nil {
			return nil, err
		}
		results, err := r.uleb32()
		if err != nil {
			return nil, err
		}
		res, err := r.bytes(int(results))
		if err != nil {
			return nil, err
		}
		out = append(out, append([]byte(nil), res...))
	}
	return out, nil
}

func (in *instrumentation) instrumentCode(body []byte, blockTypes [][]byte) ([]byte, error) {
	r := &reader{buf: body}
	count, err := r.uleb32()
	if err != nil {
		return nil, prepareErr(PrepareDeserializationKind)
	}
	if count != uint32(len(blockTypes)) {
		return nil, prepareErr(PrepareDeserializationKind)
	}
	out := appendUleb32(nil, count)
	for i := uint32(0); i < count; i++ {
		size, err := r.uleb32()
		if err != nil {
			return nil, prepareErr(PrepareDeserializationKind)
		}
		raw, err := r.bytes(int(size))
		if err != nil {
			return nil, prepareErr(PrepareDeserializationKind)
		}
		newBody, err := in.instrumentBody(raw, blockTypes[i])
		if err != nil {
			return nil, err
		}
		out = appendUleb32(out, uint32(len(newBody)))
		out = append(out, newBody...)
	}
	return out, nil
}

func appendI64Const(dst []byte, v int64) []byte {
	dst = append(dst, opI64Const)
	return appendSleb64(dst, v)
}

func appendCall(dst []byte, idx uint32) []byte {
	dst = append(dst, opCall)
	return appendUleb32(dst, idx)
}

// instrumentBody rewrites one function body: a stack charge on entry, a
// gas charge at the head of every basic block, and shifted call targets
// throughout. The original body is wrapped in a block of the function's
// result type so every exit runs the frame release: branches targeting
// the body label leave the wrapper and fall through to it, returns get
// an explicit release of their own.
func (in *instrumentation) instrumentBody(body, blockType []byte) ([]byte, error) {
	gasErr := prepareErr(types.PrepareGasInstrumentation)
	r := &reader{buf: body}

	decls, err := r.uleb32()
	if err != nil {
		return nil, gasErr
	}
	out := appendUleb32(nil, decls)
	var localCount uint64
	for i := uint32(0); i < decls; i++ {
		start := r.pos
		n, err := r.uleb32()
		if err != nil {
			return nil, gasErr
		}
		if _, err := r.byte(); err != nil {
			return nil, gasErr
		}
		localCount += uint64(n)
		out = append(out, r.buf[start:r.pos]...)
	}
	frameSize := stackFrameBaseSize + bytesPerLocal*localCount

	emitStack := func(dst []byte, idx uint32) []byte {
		dst = appendI64Const(dst, 0)
		dst = appendI64Const(dst, int64(frameSize))
		return appendCall(dst, idx)
	}
	out = emitStack(out, in.stackIdx)
	out = append(out, opBlock)
	out = append(out, blockType...)

	segStart := len(out)
	var segCount uint64
	flush := func() {
		if segCount > 0 {
			charge := appendI64Const(nil, int64(segCount*uint64(in.regularOpCost)))
			charge = appendCall(charge, in.gasIdx)
			out = append(out[:segStart], append(charge, out[segStart:]...)...)
			segCount = 0
		}
	}

	copyFrom := func(start int) {
		out = append(out, r.buf[start:r.pos]...)
	}

	depth := 1
	for {
		start := r.pos
		op, err := r.byte()
		if err != nil {
			return nil, gasErr
		}
		switch op {
		case opEnd:
			depth--
			flush()
			if depth == 0 {
				// The original terminal end closes the wrapper block.
				out = append(out, opEnd)
				out = emitStack(out, in.unstackIdx)
				out = append(out, opEnd)
				if !r.done() {
					return nil, gasErr
				}
				return out, nil
			}
			out = append(out, opEnd)
			segStart = len(out)
		case opElse:
			flush()
			out = append(out, opElse)
			segStart = len(out)
		case opBlock, opLoop:
			depth++
			if _, err := r.sleb(33); err != nil {
				return nil, gasErr
			}
			flush()
			copyFrom(start)
			segStart = len(out)
		case opIf:
			depth++
			segCount++
			if _, err := r.sleb(33); err != nil {
				return nil, gasErr
			}
			flush()
			copyFrom(start)
			segStart = len(out)
		case opBr, opBrIf, opBrTable, opUnreachable:
			segCount++
			if err := skipImm(r, immTable[op]); err != nil {
				return nil, gasErr
			}
			flush()
			copyFrom(start)
			segStart = len(out)
		case opReturn:
			segCount++
			flush()
			out = emitStack(out, in.unstackIdx)
			out = append(out, opReturn)
			segStart = len(out)
		case opCall:
			segCount++
			idx, err := r.uleb32()
			if err != nil {
				return nil, gasErr
			}
			out = appendCall(out, in.rewriteFunc(idx))
		case opPrefixMisc:
			sub, err := r.uleb32()
			if err != nil {
				return nil, gasErr
			}
			kind := miscImm(sub)
			if kind == immInvalid {
				return nil, gasErr
			}
			segCount++
			if err := skipImm(r, kind); err != nil {
				return nil, gasErr
			}
			copyFrom(start)
		default:
			kind := immTable[op]
			if kind == immInvalid {
				return nil, gasErr
			}
			segCount++
			if err := skipImm(r, kind); err != nil {
				return nil, gasErr
			}
			copyFrom(start)
		}
	}
}

// skipImm consumes the immediates of one instruction.
func skipImm(r *reader, kind immKind) error {
	switch kind {
	case immNone:
		return nil
	case immBlockType:
		_, err := r.sleb(33)
		return err
	case immIndex:
		_, err := r.uleb32()
		return err
	case immIndexPair:
		if _, err := r.uleb32(); err != nil {
			return err
		}
		_, err := r.uleb32()
		return err
	case immMemArg:
		if _, err := r.uleb32(); err != nil {
			return err
		}
		_, err := r.uleb32()
		return err
	case immBrTable:
		n, err := r.uleb32()
		if err != nil {
			return err
		}
		for i := uint32(0); i <= n; i++ {
			if _, err := r.uleb32(); err != nil {
				return err
			}
		}
		return nil
	case immI32:
		_, err := r.sleb(32)
		return err
	case immI64:
		_, err := r.sleb(64)
		return err
	case immF32:
		_, err := r.bytes(4)
		return err
	case immF64:
		_, err := r.bytes(8)
		return err
	default:
		return errBadModule
	}
}
