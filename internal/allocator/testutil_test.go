package allocator

import "unsafe"

// fakePageSource backs pages with ordinary Go slices instead of real OS
// mappings, so tests run fast, deterministically, and without requiring
// mmap/munmap permissions. It also counts map/unmap calls so tests can
// assert on retention-policy behavior (e.g. that a LARGE zone is actually
// released on free).
type fakePageSource struct {
	pageSize   int
	mapped     map[uintptr][]byte
	mapCalls   int
	unmapCalls int
}

func newFakePageSource(pageSize int) *fakePageSource {
	return &fakePageSource{
		pageSize: pageSize,
		mapped:   make(map[uintptr][]byte),
	}
}

func (f *fakePageSource) PageSize() int { return f.pageSize }

func (f *fakePageSource) MapPages(size int) (uintptr, error) {
	b := make([]byte, size)
	addr := uintptr(unsafe.Pointer(&b[0]))
	f.mapped[addr] = b
	f.mapCalls++

	return addr, nil
}

func (f *fakePageSource) UnmapPages(base uintptr, _ uintptr) error {
	delete(f.mapped, base)
	f.unmapCalls++

	return nil
}

func (f *fakePageSource) liveMappings() int { return len(f.mapped) }

// walkZone verifies the block-sequence invariant for z: starting from the
// first block and stepping by header+payload visits every block exactly
// once and lands precisely on the zone end, with each block's prevSize
// matching its predecessor's payload. It also recomputes freeBlocks and
// freeSize from scratch and compares them against the zone's bookkeeping.
func walkZone(t interface{ Fatalf(string, ...interface{}) }, z *zoneHeader) {
	end := zoneEnd(z)
	addr := zoneBase(z) + zoneHeaderSize

	var (
		prevPayload         uintptr
		sawAny              bool
		freeBlocks          int
		freeSize            uintptr
		prevWasFree         bool
	)

	for addr < end {
		b := (*blockHeader)(unsafe.Pointer(addr))
		payload := b.payload()

		if payload == 0 {
			t.Fatalf("zero-payload block at 0x%X", addr)
		}

		if sawAny && b.prevSize != prevPayload {
			t.Fatalf("block at 0x%X: prevSize=%d want %d", addr, b.prevSize, prevPayload)
		}

		if !sawAny && b.prevSize != 0 {
			t.Fatalf("first block has nonzero prevSize=%d", b.prevSize)
		}

		if b.free() {
			if prevWasFree {
				t.Fatalf("two physically adjacent free blocks at 0x%X", addr)
			}

			freeBlocks++
			freeSize += payload
		}

		prevWasFree = b.free()
		prevPayload = payload
		sawAny = true
		addr += blockHeaderSize + payload
	}

	if addr != end {
		t.Fatalf("block walk ended at 0x%X, want 0x%X", addr, end)
	}

	if freeBlocks != z.freeBlocks {
		t.Fatalf("zone.freeBlocks=%d, recomputed %d", z.freeBlocks, freeBlocks)
	}

	if freeSize != z.freeSize {
		t.Fatalf("zone.freeSize=%d, recomputed %d", z.freeSize, freeSize)
	}
}
