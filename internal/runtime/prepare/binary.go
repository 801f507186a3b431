package prepare

import (
	"bytes"
	"errors"
)

// Section ids of the wasm binary format.
const (
	sectionCustom    = 0
	sectionType      = 1
	sectionImport    = 2
	sectionFunction  = 3
	sectionTable     = 4
	sectionMemory    = 5
	sectionGlobal    = 6
	sectionExport    = 7
	sectionStart     = 8
	sectionElement   = 9
	sectionCode      = 10
	sectionData      = 11
	sectionDataCount = 12
)

// External kinds used in import and export entries.
const (
	kindFunc   = 0
	kindTable  = 1
	kindMemory = 2
	kindGlobal = 3
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

var errBadModule = errors.New("malformed wasm module")

// section is one raw module section.
type section struct {
	id   byte
	body []byte
}

// splitSections cuts a module into its sections, checking only the
// framing. Section-internal validation is the engine's job.
func splitSections(module []byte) ([]section, error) {
	if len(module) < len(wasmMagic) || !bytes.Equal(module[:len(wasmMagic)], wasmMagic) {
		return nil, errBadModule
	}
	r := &reader{buf: module, pos: len(wasmMagic)}
	var sections []section
	for !r.done() {
		id, err := r.byte()
		if err != nil {
			return nil, err
		}
		if id > sectionDataCount {
			return nil, errBadModule
		}
		size, err := r.uleb32()
		if err != nil {
			return nil, err
		}
		body, err := r.bytes(int(size))
		if err != nil {
			return nil, err
		}
		sections = append(sections, section{id: id, body: body})
	}
	return sections, nil
}

// joinSections reassembles a module from its sections.
func joinSections(sections []section) []byte {
	out := append([]byte(nil), wasmMagic...)
	for _, s := range sections {
		out = append(out, s.id)
		out = appendUleb32(out, uint32(len(s.body)))
		out = append(out, s.body...)
	}
	return out
}

// importEntry is one decoded import.
type importEntry struct {
	module string
	name   string
	kind   byte
	// raw holds the kind-specific descriptor bytes.
	raw []byte
}

// readName decodes a length-prefixed UTF-8 name.
func (r *reader) readName() (string, error) {
	n, err := r.uleb32()
	if err != nil {
		return "", err
	}
	raw, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// readLimits decodes a limits descriptor and returns (min, max, hasMax).
func (r *reader) readLimits() (uint32, uint32, bool, error) {
	flags, err := r.byte()
	if err != nil {
		return 0, 0, false, err
	}
	if flags > 1 {
		return 0, 0, false, errBadModule
	}
	min, err := r.uleb32()
	if err != nil {
		return 0, 0, false, err
	}
	if flags == 0 {
		return min, 0, false, nil
	}
	max, err := r.uleb32()
	if err != nil {
		return 0, 0, false, err
	}
	return min, max, true, nil
}

// readImportDescriptor consumes the kind-specific part of an import.
func (r *reader) readImportDescriptor(kind byte) error {
	switch kind {
	case kindFunc:
		_, err := r.uleb32()
		return err
	case kindTable:
		if _, err := r.byte(); err != nil { // reftype
			return err
		}
		_, _, _, err := r.readLimits()
		return err
	case kindMemory:
		_, _, _, err := r.readLimits()
		return err
	case kindGlobal:
		if _, err := r.byte(); err != nil { // valtype
			return err
		}
		_, err := r.byte() // mutability
		return err
	default:
		return errBadModule
	}
}

// parseImports decodes an import section body.
func parseImports(body []byte) ([]importEntry, error) {
	r := &reader{buf: body}
	count, err := r.uleb32()
	if err != nil {
		return nil, err
	}
	entries := make([]importEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		module, err := r.readName()
		if err != nil {
			return nil, err
		}
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		kind, err := r.byte()
		if err != nil {
			return nil, err
		}
		start := r.pos
		if err := r.readImportDescriptor(kind); err != nil {
			return nil, err
		}
		entries = append(entries, importEntry{
			module: module,
			name:   name,
			kind:   kind,
			raw:    append([]byte(nil), r.buf[start:r.pos]...),
		})
	}
	if !r.done() {
		return nil, errBadModule
	}
	return entries, nil
}

// encodeImports rebuilds an import section body.
func encodeImports(entries []importEntry) []byte {
	out := appendUleb32(nil, uint32(len(entries)))
	for _, e := range entries {
		out = appendUleb32(out, uint32(len(e.module)))
		out = append(out, e.module...)
		out = appendUleb32(out, uint32(len(e.name)))
		out = append(out, e.name...)
		out = append(out, e.kind)
		out = append(out, e.raw...)
	}
	return out
}

// encodeMemoryImportDescriptor builds the descriptor of a bounded memory
// import.
func encodeMemoryImportDescriptor(initial, max uint32) []byte {
	out := []byte{0x01}
	out = appendUleb32(out, initial)
	return appendUleb32(out, max)
}
