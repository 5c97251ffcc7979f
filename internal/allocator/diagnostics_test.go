package allocator

import (
	"bytes"
	"fmt"
	"testing"
)

func TestShowAllocMemExactFormat(t *testing.T) {
	var out bytes.Buffer

	ps := newFakePageSource(testPageSize)
	h := NewHeap(WithPageSource(ps), WithOutput(&out))

	p := h.Malloc(64)

	z := h.reg.heads[ClassTiny]
	if z == nil {
		t.Fatal("expected a TINY zone to exist")
	}

	b := blockFromUser(uintptr(p))

	h.ShowAllocMem()

	want := fmt.Sprintf("TINY : 0x%X\n0x%X - 0x%X : %d bytes\nTotal : %d bytes\n",
		zoneBase(z), b.payloadPtr(), b.payloadPtr()+b.payload()-1, b.payload(), b.payload())

	if out.String() != want {
		t.Errorf("ShowAllocMem output mismatch\n got: %q\nwant: %q", out.String(), want)
	}

	h.Free(p)
}

func TestShowAllocMemEmptyHeapReportsZeroTotal(t *testing.T) {
	var out bytes.Buffer

	ps := newFakePageSource(testPageSize)
	h := NewHeap(WithPageSource(ps), WithOutput(&out))

	h.ShowAllocMem()

	if out.String() != "Total : 0 bytes\n" {
		t.Errorf("empty heap dump = %q, want %q", out.String(), "Total : 0 bytes\n")
	}
}

func TestShowAllocMemOrdersByClass(t *testing.T) {
	var out bytes.Buffer

	ps := newFakePageSource(testPageSize)
	h := NewHeap(WithPageSource(ps), WithOutput(&out))

	small := h.Malloc(TinyMax + Alignment)
	tiny := h.Malloc(64)
	large := h.Malloc(SmallMax + 1)

	h.ShowAllocMem()

	dump := out.String()

	tinyIdx := bytes.Index([]byte(dump), []byte("TINY :"))
	smallIdx := bytes.Index([]byte(dump), []byte("SMALL :"))
	largeIdx := bytes.Index([]byte(dump), []byte("LARGE :"))

	if tinyIdx < 0 || smallIdx < 0 || largeIdx < 0 {
		t.Fatalf("dump missing a class section: %q", dump)
	}

	if !(tinyIdx < smallIdx && smallIdx < largeIdx) {
		t.Errorf("dump sections out of TINY/SMALL/LARGE order: %q", dump)
	}

	h.Free(tiny)
	h.Free(small)
	h.Free(large)
}
