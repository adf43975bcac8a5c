//go:build linux || darwin

/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package rnative

import "golang.org/x/sys/unix"

// allocAligned backs one Unsafe.allocateMemory block with its own
// anonymous mmap region. mmap always returns page-aligned memory, which
// satisfies any primitive alignment Java can ask for; align is unused
// here, as it is in the non-unix fallback, and stays in the signature so
// both builds share one.
func allocAligned(size, _ int) ([]byte, func()) {
	if size == 0 {
		size = 1
	}
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		// Falls back to a heap-backed slice rather than surfacing a raw
		// mmap failure through Unsafe.allocateMemory's much simpler
		// contract; native-endian alignment still holds since Go's
		// allocator aligns slices to at least the platform word size.
		return make([]byte, size), nil
	}
	return b, func() { _ = unix.Munmap(b) }
}
