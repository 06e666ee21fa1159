package emu

import (
	"encoding/binary"
	"fmt"
)

// ErrOutOfRange is returned by memory accesses that touch any byte at or
// beyond the memory size.
var ErrOutOfRange = fmt.Errorf("memory access out of range")

// Memory is a flat, bounded, byte-addressed little-endian memory.
//
// Every access is bounds-checked against the configured size. An access is
// rejected if any byte of it falls outside [0, size).
type Memory struct {
	data []byte
}

// NewMemory creates a memory of the given size in bytes, zero-filled.
func NewMemory(size uint32) *Memory {
	return &Memory{data: make([]byte, size)}
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.data))
}

func (m *Memory) check(addr uint32, n uint32) error {
	if uint64(addr)+uint64(n) > uint64(len(m.data)) {
		return fmt.Errorf("%w: address 0x%08X, %d bytes, memory size %d",
			ErrOutOfRange, addr, n, len(m.data))
	}
	return nil
}

// ReadU8 reads one byte.
func (m *Memory) ReadU8(addr uint32) (uint8, error) {
	if err := m.check(addr, 1); err != nil {
		return 0, err
	}
	return m.data[addr], nil
}

// ReadU16 reads a 16-bit little-endian value.
func (m *Memory) ReadU16(addr uint32) (uint16, error) {
	if err := m.check(addr, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.data[addr:]), nil
}

// ReadU32 reads a 32-bit little-endian value.
func (m *Memory) ReadU32(addr uint32) (uint32, error) {
	if err := m.check(addr, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.data[addr:]), nil
}

// WriteU8 writes one byte.
func (m *Memory) WriteU8(addr uint32, value uint8) error {
	if err := m.check(addr, 1); err != nil {
		return err
	}
	m.data[addr] = value
	return nil
}

// WriteU16 writes a 16-bit little-endian value.
func (m *Memory) WriteU16(addr uint32, value uint16) error {
	if err := m.check(addr, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.data[addr:], value)
	return nil
}

// WriteU32 writes a 32-bit little-endian value.
func (m *Memory) WriteU32(addr uint32, value uint32) error {
	if err := m.check(addr, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[addr:], value)
	return nil
}

// CopyFrom copies a byte image into memory starting at addr.
func (m *Memory) CopyFrom(addr uint32, image []byte) error {
	if err := m.check(addr, uint32(len(image))); err != nil {
		return err
	}
	copy(m.data[addr:], image)
	return nil
}

// Bytes returns the backing store. Callers must treat it as read-only.
func (m *Memory) Bytes() []byte {
	return m.data
}
