// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly || solaris
// +build linux darwin freebsd netbsd openbsd dragonfly solaris

package allocator

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

func systemPageSize() int { return os.Getpagesize() }

// mapPages requests a fresh, zero-initialized, private anonymous mapping
// from the kernel.
func mapPages(size int) (uintptr, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, err
	}

	return uintptr(unsafe.Pointer(&b[0])), nil
}

func unmapPages(base uintptr, size uintptr) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(base)), int(size))

	return unix.Munmap(b)
}
