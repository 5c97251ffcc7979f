package allocator

import (
	"io"
	"log"
	"sync"
	"unsafe"

	allocerrors "github.com/orizon-lang/heapd/internal/errors"
)

// Heap is a single malloc/free/realloc arena: a zone registry plus the page
// source it maps fresh zones from. All mutating operations are serialized
// by mu; there are no lock-free paths, per the allocator's single global
// mutex design.
type Heap struct {
	mu       sync.Mutex
	reg      registry
	pages    PageSource
	pageSize uintptr
	out      io.Writer
	logger   *log.Logger
	debug    bool
}

// NewHeap builds an independent Heap. Most callers should use the
// package-level Malloc/Free/Realloc/ShowAllocMem functions, which operate
// on a package-level global Heap whose zones are mapped only on first use;
// NewHeap exists for tests and for
// embedders that want isolated arenas.
func NewHeap(opts ...Option) *Heap {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Heap{
		pages:    cfg.pageSource,
		pageSize: uintptr(cfg.pageSource.PageSize()),
		out:      cfg.out,
		logger:   cfg.logger,
		debug:    cfg.debug,
	}
}

// Malloc allocates n bytes and returns an opaque pointer to the start of
// the payload, or nil. Malloc(0) always returns nil.
func (h *Heap) Malloc(n uintptr) unsafe.Pointer {
	if n == 0 {
		return nil
	}

	aligned := alignUp(n, Alignment)
	class := classify(aligned)

	h.mu.Lock()
	defer h.mu.Unlock()

	if class == ClassLarge {
		return h.allocLarge(aligned)
	}

	for z := h.reg.heads[class]; z != nil; z = z.next {
		if ptr, ok := allocateInZone(z, aligned); ok {
			return unsafe.Pointer(ptr)
		}
	}

	z, err := h.newZoneLocked(class, defaultZoneSize(class, h.pageSize))
	if err != nil {
		return nil
	}

	ptr, ok := allocateInZone(z, aligned)
	if !ok {
		// A freshly mapped TINY/SMALL zone is sized to hold at least
		// minZoneBlocks maximum-class allocations, so this would mean the
		// zone itself is corrupt or misconfigured; fail safe rather than
		// leave a registered zone with no usable block.
		h.reg.remove(z)
		h.unmapZoneLocked(z)

		return nil
	}

	return unsafe.Pointer(ptr)
}

func (h *Heap) allocLarge(aligned uintptr) unsafe.Pointer {
	total := alignUp(aligned+zoneHeaderSize+blockHeaderSize, Alignment)

	z, err := h.newZoneLocked(ClassLarge, total)
	if err != nil {
		return nil
	}

	ptr, ok := allocateInZone(z, aligned)
	if !ok {
		h.reg.remove(z)
		h.unmapZoneLocked(z)

		return nil
	}

	return unsafe.Pointer(ptr)
}

func (h *Heap) newZoneLocked(class Class, size uintptr) (*zoneHeader, error) {
	z, err := newZone(h.pages, class, size)
	if err != nil {
		h.logError(allocerrors.MapFailed(size, err))

		return nil, err
	}

	h.reg.insert(z)

	if h.debug {
		h.logger.Printf("mapped %s zone of %d bytes at 0x%X", class, size, zoneBase(z))
	}

	return z, nil
}

func (h *Heap) unmapZoneLocked(z *zoneHeader) {
	base, size, class := zoneBase(z), z.totalSize, z.class

	if err := unmapZone(h.pages, z); err != nil {
		h.logError(allocerrors.UnmapFailed(base, size, err))

		return
	}

	if h.debug {
		h.logger.Printf("unmapped %s zone of %d bytes at 0x%X", class, size, base)
	}
}

func (h *Heap) logError(err error) {
	if h.logger != nil {
		h.logger.Print(err)
	}
}

// Free releases the block owning p. A nil p, a pointer outside every known
// zone, and a pointer already free are all tolerated as no-ops.
func (h *Heap) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	addr := uintptr(p)

	z := h.reg.findZone(addr)
	if z == nil {
		return
	}

	b := blockFromUser(addr)
	if b.free() {
		return
	}

	freeBlockInZone(z, b)
	h.retainLocked(z)
}

// retainLocked applies the empty-zone retention policy: LARGE zones are
// unmapped immediately; TINY/SMALL zones are unmapped unless they are the
// last remaining zone of their class.
func (h *Heap) retainLocked(z *zoneHeader) {
	if !zoneIsEmpty(z) {
		return
	}

	if z.class == ClassLarge || !h.reg.isSole(z) {
		h.reg.remove(z)
		h.unmapZoneLocked(z)
	}
}

// Realloc resizes the allocation at p to n bytes, as described by the
// malloc/realloc contract: p == nil behaves like Malloc(n); n == 0 frees p
// and returns nil; growing past the current payload copies the lesser of
// the old and new sizes into a fresh allocation and frees the original.
func (h *Heap) Realloc(p unsafe.Pointer, n uintptr) unsafe.Pointer {
	if p == nil {
		return h.Malloc(n)
	}

	if n == 0 {
		h.Free(p)

		return nil
	}

	h.mu.Lock()

	addr := uintptr(p)

	z := h.reg.findZone(addr)
	if z == nil {
		h.mu.Unlock()

		return nil
	}

	b := blockFromUser(addr)
	old := b.payload()
	aligned := alignUp(n, Alignment)

	if aligned <= old {
		h.mu.Unlock()

		return p
	}

	h.mu.Unlock()

	q := h.Malloc(n)
	if q == nil {
		return nil
	}

	copySize := old
	if n < copySize {
		copySize = n
	}

	copyBytes(q, p, copySize)
	h.Free(p)

	return q
}

func copyBytes(dst, src unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}

	d := unsafe.Slice((*byte)(dst), int(n))
	s := unsafe.Slice((*byte)(src), int(n))
	copy(d, s)
}

// global is the default Heap backing the package-level Malloc/Free/Realloc/
// ShowAllocMem functions. Its construction touches no OS resources: the
// first zone is only mapped on the first Malloc call.
var global = NewHeap()

// Malloc allocates n bytes from the global heap.
func Malloc(n uintptr) unsafe.Pointer { return global.Malloc(n) }

// Free releases an allocation made by Malloc or Realloc on the global heap.
func Free(p unsafe.Pointer) { global.Free(p) }

// Realloc resizes an allocation made by Malloc or Realloc on the global
// heap.
func Realloc(p unsafe.Pointer, n uintptr) unsafe.Pointer { return global.Realloc(p, n) }

// ShowAllocMem dumps every live allocation on the global heap.
func ShowAllocMem() { global.ShowAllocMem() }
