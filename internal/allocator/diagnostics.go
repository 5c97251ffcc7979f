package allocator

import (
	"bytes"
	"fmt"
	"unsafe"
)

// ShowAllocMem writes a human-readable dump of every live (non-free) block
// across all zones to the heap's configured output, grouped by class in
// TINY, SMALL, LARGE order and by ascending zone base address within each
// class. It never calls back into Malloc or Free: the dump is assembled in
// a local buffer and written once via a single unbuffered Write, so it
// cannot re-enter the allocator it is inspecting.
func (h *Heap) ShowAllocMem() {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf bytes.Buffer

	var total uintptr

	for c := ClassTiny; c <= ClassLarge; c++ {
		for z := h.reg.heads[c]; z != nil; z = z.next {
			fmt.Fprintf(&buf, "%s : 0x%X\n", c, zoneBase(z))

			end := zoneEnd(z)
			for b := firstBlock(z); b != nil && uintptr(unsafe.Pointer(b)) < end; b = nextPhysical(b, end) {
				if b.free() {
					continue
				}

				start := b.payloadPtr()
				size := b.payload()
				fmt.Fprintf(&buf, "0x%X - 0x%X : %d bytes\n", start, start+size-1, size)
				total += size
			}
		}
	}

	fmt.Fprintf(&buf, "Total : %d bytes\n", total)

	_, _ = h.out.Write(buf.Bytes())
}
