// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

//go:build windows
// +build windows

package allocator

import (
	"os"

	"golang.org/x/sys/windows"
)

func systemPageSize() int { return os.Getpagesize() }

// mapPages reserves and commits a fresh region with VirtualAlloc. Windows
// zero-fills committed pages, matching the zero-initialization guarantee
// MapPages makes on every platform.
func mapPages(size int) (uintptr, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return 0, err
	}

	return addr, nil
}

func unmapPages(base uintptr, size uintptr) error {
	return windows.VirtualFree(base, 0, windows.MEM_RELEASE)
}
