package allocator

import "unsafe"

// zoneHeader sits at the start of every mapped zone. It is placed directly
// over the mapped bytes returned by a PageSource, the same way cznic's
// memory allocator overlays a *page onto a raw mmap'd slice: the memory is
// OS-owned, not Go-heap-owned, so the garbage collector never scans or
// moves it and storing raw *zoneHeader pointers inside it is safe.
type zoneHeader struct {
	prev, next *zoneHeader
	class      Class
	totalSize  uintptr
	freeBlocks int
	freeSize   uintptr
}

// blockHeader is prepended to every block, free or in use, inside a zone.
// size packs the payload size (always a multiple of 8) with the free flag
// in its lowest bit.
type blockHeader struct {
	size     uintptr
	prevSize uintptr
}

var (
	zoneHeaderSize  = alignUp(unsafe.Sizeof(zoneHeader{}), Alignment)
	blockHeaderSize = alignUp(unsafe.Sizeof(blockHeader{}), Alignment)
)

const (
	blockFreeFlag = uintptr(1)
	blockSizeMask = ^uintptr(0x7)
)

func (b *blockHeader) payload() uintptr { return b.size & blockSizeMask }
func (b *blockHeader) free() bool       { return b.size&blockFreeFlag != 0 }

func (b *blockHeader) setSize(payload uintptr, free bool) {
	s := payload &^ uintptr(0x7)
	if free {
		s |= blockFreeFlag
	}

	b.size = s
}

// payloadPtr returns the address handed out to (or received back from) the
// caller for this block.
func (b *blockHeader) payloadPtr() uintptr {
	return uintptr(unsafe.Pointer(b)) + blockHeaderSize
}

// blockFromUser recovers the block header owning a user pointer.
func blockFromUser(p uintptr) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(p - blockHeaderSize))
}

func zoneBase(z *zoneHeader) uintptr { return uintptr(unsafe.Pointer(z)) }
func zoneEnd(z *zoneHeader) uintptr  { return zoneBase(z) + z.totalSize }

// payloadCapacity is the total payload capacity of a zone: everything but
// the zone header and the one block header every zone carries even when
// entirely free.
func payloadCapacity(z *zoneHeader) uintptr {
	return z.totalSize - zoneHeaderSize - blockHeaderSize
}

func firstBlock(z *zoneHeader) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(zoneBase(z) + zoneHeaderSize))
}

// nextPhysical returns the block immediately following b in address order,
// or nil if b is the last block of the zone.
func nextPhysical(b *blockHeader, end uintptr) *blockHeader {
	n := uintptr(unsafe.Pointer(b)) + blockHeaderSize + b.payload()
	if n >= end {
		return nil
	}

	return (*blockHeader)(unsafe.Pointer(n))
}

// zoneIsEmpty reports whether every byte of a zone's payload capacity is
// currently free. Combined with the no-adjacent-free invariant, this can
// only be true when the zone holds exactly one, zone-spanning free block.
func zoneIsEmpty(z *zoneHeader) bool {
	return z.freeBlocks == 1 && z.freeSize == payloadCapacity(z)
}

// newZone maps a fresh region from ps and initializes it as a single
// zone-spanning free block.
func newZone(ps PageSource, class Class, totalSize uintptr) (*zoneHeader, error) {
	base, err := ps.MapPages(int(totalSize))
	if err != nil {
		return nil, err
	}

	z := (*zoneHeader)(unsafe.Pointer(base))
	z.prev, z.next = nil, nil
	z.class = class
	z.totalSize = totalSize

	payload := payloadCapacity(z)
	z.freeBlocks = 1
	z.freeSize = payload

	b := firstBlock(z)
	b.prevSize = 0
	b.setSize(payload, true)

	return z, nil
}

// unmapZone releases a zone's pages back to ps. The caller must already
// have unlinked z from the registry.
func unmapZone(ps PageSource, z *zoneHeader) error {
	return ps.UnmapPages(zoneBase(z), z.totalSize)
}
