// Package wasmexec runs prepared contracts on wazero: it binds the host
// call surface, owns the guest memory facade, and turns engine results
// into call outcomes.
package wasmexec

import (
	"errors"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/meterwasm/vmhost/types"
)

var errMemoryOutOfBounds = errors.New("memory access out of bounds")

// guestMemory adapts the engine memory to the runtime's capability
// interface. The api.Memory handle is filled in once the env module is
// instantiated; the logic layer never sees a nil memory because every
// access funnels through here.
type guestMemory struct {
	mem api.Memory
}

func (m *guestMemory) FitsMemory(slice types.MemSlice) error {
	if m.mem == nil {
		return errMemoryOutOfBounds
	}
	end := slice.Ptr + slice.Len
	if end < slice.Ptr || end > math.MaxUint32 {
		return errMemoryOutOfBounds
	}
	if end > uint64(m.mem.Size()) {
		return errMemoryOutOfBounds
	}
	return nil
}

// ViewMemory returns a copy: the engine buffer may move on memory.grow,
// and host calls hand the bytes to collaborators that outlive the view.
func (m *guestMemory) ViewMemory(slice types.MemSlice) ([]byte, error) {
	if err := m.FitsMemory(slice); err != nil {
		return nil, err
	}
	view, ok := m.mem.Read(uint32(slice.Ptr), uint32(slice.Len))
	if !ok {
		return nil, errMemoryOutOfBounds
	}
	return append([]byte(nil), view...), nil
}

func (m *guestMemory) ReadMemory(offset uint64, buf []byte) error {
	if err := m.FitsMemory(types.MemSlice{Ptr: offset, Len: uint64(len(buf))}); err != nil {
		return err
	}
	view, ok := m.mem.Read(uint32(offset), uint32(len(buf)))
	if !ok {
		return errMemoryOutOfBounds
	}
	copy(buf, view)
	return nil
}

func (m *guestMemory) WriteMemory(offset uint64, buf []byte) error {
	if err := m.FitsMemory(types.MemSlice{Ptr: offset, Len: uint64(len(buf))}); err != nil {
		return err
	}
	if !m.mem.Write(uint32(offset), buf) {
		return errMemoryOutOfBounds
	}
	return nil
}
