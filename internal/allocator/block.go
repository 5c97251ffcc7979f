package allocator

import "unsafe"

// allocateInZone performs a first-fit walk over z looking for a free block
// whose payload can satisfy request (an already-aligned size). On success
// it returns the user-visible pointer and true.
func allocateInZone(z *zoneHeader, request uintptr) (uintptr, bool) {
	end := zoneEnd(z)

	for b := firstBlock(z); b != nil && uintptr(unsafe.Pointer(b)) < end; b = nextPhysical(b, end) {
		payload := b.payload()
		if payload == 0 {
			// A zero-payload block can only mean a corrupted zone: a
			// well-formed walk always terminates exactly at end.
			return 0, false
		}

		if !b.free() || payload < request {
			continue
		}

		full := payload

		if payload > request+blockHeaderSize+Alignment {
			// Split: carve the tail into a new free block.
			tailPayload := payload - request - blockHeaderSize
			tail := (*blockHeader)(unsafe.Pointer(uintptr(unsafe.Pointer(b)) + blockHeaderSize + request))
			tail.setSize(tailPayload, true)
			tail.prevSize = request

			if nb := nextPhysical(tail, end); nb != nil {
				nb.prevSize = tailPayload
			}

			b.setSize(request, false)
			z.freeBlocks++
			z.freeSize = z.freeSize - full + tailPayload
		} else {
			// Consume the whole block; the effective allocated size is the
			// block's full payload, not the (smaller) request.
			b.setSize(payload, false)
			z.freeSize -= full
		}

		z.freeBlocks--

		return b.payloadPtr(), true
	}

	return 0, false
}

// freeBlockInZone marks b free and coalesces it with its physically
// adjacent neighbors, restoring the no-adjacent-free invariant.
func freeBlockInZone(z *zoneHeader, b *blockHeader) {
	end := zoneEnd(z)

	payload := b.payload()
	b.setSize(payload, true)
	z.freeBlocks++
	z.freeSize += payload

	if nb := nextPhysical(b, end); nb != nil && nb.free() {
		nbPayload := nb.payload()
		payload += blockHeaderSize + nbPayload
		b.setSize(payload, true)
		z.freeBlocks--
		z.freeSize += blockHeaderSize
	}

	if b.prevSize > 0 {
		prevBase := uintptr(unsafe.Pointer(b)) - blockHeaderSize - b.prevSize
		pb := (*blockHeader)(unsafe.Pointer(prevBase))

		if pb.free() {
			payload = pb.payload() + blockHeaderSize + payload
			pb.setSize(payload, true)
			z.freeBlocks--
			z.freeSize += blockHeaderSize
			b = pb
		}
	}

	if nn := nextPhysical(b, end); nn != nil {
		nn.prevSize = payload
	}
}
