package allocator

import (
	"testing"
	"unsafe"
)

const testPageSize = 4096

func TestNewZoneInitialState(t *testing.T) {
	ps := newFakePageSource(testPageSize)

	size := tinyZoneSize(testPageSize)

	z, err := newZone(ps, ClassTiny, size)
	if err != nil {
		t.Fatalf("newZone: %v", err)
	}

	if z.class != ClassTiny {
		t.Errorf("class = %v, want TINY", z.class)
	}

	if z.totalSize != size {
		t.Errorf("totalSize = %d, want %d", z.totalSize, size)
	}

	if !zoneIsEmpty(z) {
		t.Error("freshly mapped zone should be empty")
	}

	walkZone(t, z)

	b := firstBlock(z)
	if !b.free() {
		t.Error("initial block should be free")
	}

	if got, want := b.payload(), payloadCapacity(z); got != want {
		t.Errorf("initial block payload = %d, want %d", got, want)
	}
}

func TestFindZoneContainment(t *testing.T) {
	ps := newFakePageSource(testPageSize)

	size := tinyZoneSize(testPageSize)

	z, err := newZone(ps, ClassTiny, size)
	if err != nil {
		t.Fatalf("newZone: %v", err)
	}

	var reg registry

	reg.insert(z)

	inside := zoneBase(z) + zoneHeaderSize + 8
	if got := reg.findZone(inside); got != z {
		t.Errorf("findZone(inside) = %v, want %v", got, z)
	}

	if got := reg.findZone(zoneEnd(z)); got != nil {
		t.Error("findZone at zone end should miss (end is exclusive)")
	}

	if got := reg.findZone(0x12345); got != nil {
		t.Error("findZone for a foreign address should return nil")
	}
}

func TestRegistryInsertOrdersByBaseAddress(t *testing.T) {
	ps := newFakePageSource(testPageSize)

	size := tinyZoneSize(testPageSize)

	var reg registry

	zones := make([]*zoneHeader, 0, 5)
	for i := 0; i < 5; i++ {
		z, err := newZone(ps, ClassTiny, size)
		if err != nil {
			t.Fatalf("newZone: %v", err)
		}

		zones = append(zones, z)
		reg.insert(z)
	}

	var last uintptr

	count := 0

	for z := reg.heads[ClassTiny]; z != nil; z = z.next {
		base := zoneBase(z)
		if base < last {
			t.Fatalf("zone list not address-ordered: 0x%X after 0x%X", base, last)
		}

		last = base
		count++
	}

	if count != len(zones) {
		t.Fatalf("walked %d zones, want %d", count, len(zones))
	}
}

func TestRegistryRemoveSole(t *testing.T) {
	ps := newFakePageSource(testPageSize)
	size := tinyZoneSize(testPageSize)

	z, err := newZone(ps, ClassTiny, size)
	if err != nil {
		t.Fatalf("newZone: %v", err)
	}

	var reg registry

	reg.insert(z)

	if !reg.isSole(z) {
		t.Error("single registered zone should be sole")
	}

	reg.remove(z)

	if reg.heads[ClassTiny] != nil {
		t.Error("list head should be nil after removing the only zone")
	}

	if z.prev != nil || z.next != nil {
		t.Error("removed zone should have nil links")
	}
}

func TestUnmapZoneReleasesPages(t *testing.T) {
	ps := newFakePageSource(testPageSize)
	size := tinyZoneSize(testPageSize)

	z, err := newZone(ps, ClassTiny, size)
	if err != nil {
		t.Fatalf("newZone: %v", err)
	}

	base := zoneBase(z)

	if err := unmapZone(ps, z); err != nil {
		t.Fatalf("unmapZone: %v", err)
	}

	if ps.liveMappings() != 0 {
		t.Errorf("liveMappings = %d, want 0", ps.liveMappings())
	}

	if _, ok := ps.mapped[base]; ok {
		t.Error("mapping should have been released")
	}
}

func TestBlockFromUserRoundTrip(t *testing.T) {
	ps := newFakePageSource(testPageSize)
	size := tinyZoneSize(testPageSize)

	z, err := newZone(ps, ClassTiny, size)
	if err != nil {
		t.Fatalf("newZone: %v", err)
	}

	b := firstBlock(z)
	ptr := b.payloadPtr()

	got := blockFromUser(ptr)
	if uintptr(unsafe.Pointer(got)) != uintptr(unsafe.Pointer(b)) {
		t.Errorf("blockFromUser round trip mismatch")
	}
}
