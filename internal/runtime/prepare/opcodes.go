package prepare

// immKind describes the immediate layout of one instruction.
type immKind int

const (
	immInvalid immKind = iota
	immNone
	immBlockType  // s33 block type
	immIndex      // one u32 index
	immIndexPair  // two u32 indices
	immMemArg     // align + offset, both u32
	immBrTable    // vector of u32 labels plus default
	immI32        // s32 constant
	immI64        // s64 constant
	immF32        // 4 raw bytes
	immF64        // 8 raw bytes
)

// Control opcodes the instrumenter treats specially.
const (
	opUnreachable  = 0x00
	opBlock        = 0x02
	opLoop         = 0x03
	opIf           = 0x04
	opElse         = 0x05
	opEnd          = 0x0B
	opBr           = 0x0C
	opBrIf         = 0x0D
	opBrTable      = 0x0E
	opReturn       = 0x0F
	opCall         = 0x10
	opCallIndirect = 0x11
	opI64Const     = 0x42
	opPrefixMisc   = 0xFC
)

// immTable maps single-byte opcodes to their immediate layout. Entries
// left immInvalid are either unassigned or belong to proposals the
// runtime does not accept (reference types, tail calls, SIMD, threads).
var immTable = func() [256]immKind {
	var t [256]immKind

	t[opUnreachable] = immNone
	t[0x01] = immNone // nop
	t[opBlock] = immBlockType
	t[opLoop] = immBlockType
	t[opIf] = immBlockType
	t[opElse] = immNone
	t[opEnd] = immNone
	t[opBr] = immIndex
	t[opBrIf] = immIndex
	t[opBrTable] = immBrTable
	t[opReturn] = immNone
	t[opCall] = immIndex
	t[opCallIndirect] = immIndexPair

	t[0x1A] = immNone // drop
	t[0x1B] = immNone // select

	for op := 0x20; op <= 0x24; op++ { // local.*, global.*
		t[op] = immIndex
	}
	for op := 0x28; op <= 0x3E; op++ { // loads and stores
		t[op] = immMemArg
	}
	t[0x3F] = immIndex // memory.size
	t[0x40] = immIndex // memory.grow

	t[0x41] = immI32
	t[opI64Const] = immI64
	t[0x43] = immF32
	t[0x44] = immF64

	for op := 0x45; op <= 0xC4; op++ { // numeric ops incl. sign extension
		t[op] = immNone
	}
	return t
}()

// miscImm maps 0xFC-prefixed sub-opcodes to immediate layouts. Only the
// bulk memory proposal is accepted; the saturating truncation and table
// sub-opcodes stay invalid.
func miscImm(sub uint32) immKind {
	switch sub {
	case 8: // memory.init: data index + memory index
		return immIndexPair
	case 9: // data.drop
		return immIndex
	case 10: // memory.copy: two memory indices
		return immIndexPair
	case 11: // memory.fill
		return immIndex
	case 12: // table.init
		return immIndexPair
	case 13: // elem.drop
		return immIndex
	case 14: // table.copy
		return immIndexPair
	default:
		return immInvalid
	}
}
