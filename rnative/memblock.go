/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package rnative

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/jacobin-run/rho/except"
)

// largestPrimitiveAlign is the alignment Unsafe.allocateMemory must honor:
// the largest primitive Java type it can be asked to read/write, a long or
// a double, both 8 bytes.
const largestPrimitiveAlign = int(unsafe.Sizeof(int64(0)))

// MemPtr is an opaque handle into a MemoryBlocks store, the Go analogue
// of Unsafe's raw pointer. It carries no capability to dereference
// outside this package.
type MemPtr uint64

// memBlock pairs an allocation's backing bytes with however allocAligned
// wants it released (munmap on unix, nothing for a plain heap slice).
type memBlock struct {
	data    []byte
	release func()
}

// MemoryBlocks is the side-heap Unsafe.allocateMemory/freeMemory/put*/
// get* operate against: every live allocation is tracked so a stray or
// already-freed pointer is rejected rather than corrupting memory.
type MemoryBlocks struct {
	blocks map[MemPtr]memBlock
	next   MemPtr
}

// NewMemoryBlocks creates an empty store.
func NewMemoryBlocks() *MemoryBlocks {
	return &MemoryBlocks{blocks: make(map[MemPtr]memBlock)}
}

// Allocate reserves a zero-filled block of size bytes, aligned to the
// largest primitive width, and returns its handle.
func (m *MemoryBlocks) Allocate(size int64) (MemPtr, error) {
	if size < 0 {
		return 0, except.New(except.InvalidDescriptorType, "negative allocation size %d", size)
	}
	buf, release := allocAligned(int(size), largestPrimitiveAlign)
	m.next++
	ptr := m.next
	m.blocks[ptr] = memBlock{data: buf, release: release}
	return ptr, nil
}

// Free releases ptr, reporting false if it was never allocated or was
// already freed — the caller turns that into Unsafe's undefined-behavior
// case as a managed exception instead of a Go panic.
func (m *MemoryBlocks) Free(ptr MemPtr) bool {
	b, ok := m.blocks[ptr]
	if !ok {
		return false
	}
	if b.release != nil {
		b.release()
	}
	delete(m.blocks, ptr)
	return true
}

func (m *MemoryBlocks) slice(ptr MemPtr, offset, n int64) ([]byte, error) {
	b, ok := m.blocks[ptr]
	if !ok {
		return nil, except.New(except.BadGcRef, "unallocated or already-freed memory block %d", ptr)
	}
	buf := b.data
	if offset < 0 || n < 0 || offset+n > int64(len(buf)) {
		return nil, except.New(except.InvalidDescriptorType, "memory block %d access [%d,%d) out of bounds (len %d)", ptr, offset, offset+n, len(buf))
	}
	return buf[offset : offset+n], nil
}

// SetMemory fills count bytes starting at offset with val, Unsafe's
// memset-equivalent.
func (m *MemoryBlocks) SetMemory(ptr MemPtr, offset, count int64, val byte) error {
	buf, err := m.slice(ptr, offset, count)
	if err != nil {
		return err
	}
	for i := range buf {
		buf[i] = val
	}
	return nil
}

// GetByte/GetShort/GetInt/GetLong/GetFloat/GetDouble and their Put
// counterparts read and write one native-endian primitive at offset.
func (m *MemoryBlocks) GetByte(ptr MemPtr, offset int64) (int8, error) {
	b, err := m.slice(ptr, offset, 1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (m *MemoryBlocks) PutByte(ptr MemPtr, offset int64, v int8) error {
	b, err := m.slice(ptr, offset, 1)
	if err != nil {
		return err
	}
	b[0] = byte(v)
	return nil
}

func (m *MemoryBlocks) GetShort(ptr MemPtr, offset int64) (int16, error) {
	b, err := m.slice(ptr, offset, 2)
	if err != nil {
		return 0, err
	}
	return int16(nativeEndian.Uint16(b)), nil
}

func (m *MemoryBlocks) PutShort(ptr MemPtr, offset int64, v int16) error {
	b, err := m.slice(ptr, offset, 2)
	if err != nil {
		return err
	}
	nativeEndian.PutUint16(b, uint16(v))
	return nil
}

func (m *MemoryBlocks) GetInt(ptr MemPtr, offset int64) (int32, error) {
	b, err := m.slice(ptr, offset, 4)
	if err != nil {
		return 0, err
	}
	return int32(nativeEndian.Uint32(b)), nil
}

func (m *MemoryBlocks) PutInt(ptr MemPtr, offset int64, v int32) error {
	b, err := m.slice(ptr, offset, 4)
	if err != nil {
		return err
	}
	nativeEndian.PutUint32(b, uint32(v))
	return nil
}

func (m *MemoryBlocks) GetLong(ptr MemPtr, offset int64) (int64, error) {
	b, err := m.slice(ptr, offset, 8)
	if err != nil {
		return 0, err
	}
	return int64(nativeEndian.Uint64(b)), nil
}

func (m *MemoryBlocks) PutLong(ptr MemPtr, offset int64, v int64) error {
	b, err := m.slice(ptr, offset, 8)
	if err != nil {
		return err
	}
	nativeEndian.PutUint64(b, uint64(v))
	return nil
}

func (m *MemoryBlocks) GetFloat(ptr MemPtr, offset int64) (float32, error) {
	v, err := m.GetInt(ptr, offset)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

func (m *MemoryBlocks) PutFloat(ptr MemPtr, offset int64, v float32) error {
	return m.PutInt(ptr, offset, int32(math.Float32bits(v)))
}

func (m *MemoryBlocks) GetDouble(ptr MemPtr, offset int64) (float64, error) {
	v, err := m.GetLong(ptr, offset)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

func (m *MemoryBlocks) PutDouble(ptr MemPtr, offset int64, v float64) error {
	return m.PutLong(ptr, offset, int64(math.Float64bits(v)))
}

// nativeEndian matches the host's byte order, since Unsafe's memory
// operations are specified as native-endian, not a fixed wire order.
var nativeEndian = binary.NativeEndian
