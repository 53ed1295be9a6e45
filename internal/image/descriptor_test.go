package image

import (
	"encoding/binary"
	"testing"
)

func encodeHeader(t *testing.T, entry, flash, ram, stack, grant uint32) []byte {
	t.Helper()
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:8], entry)
	binary.LittleEndian.PutUint32(buf[8:12], flash)
	binary.LittleEndian.PutUint32(buf[12:16], ram)
	binary.LittleEndian.PutUint32(buf[16:20], stack)
	binary.LittleEndian.PutUint32(buf[20:24], grant)
	return buf
}

func TestParseValidHeader(t *testing.T) {
	buf := encodeHeader(t, 0x40, 0x1000, 0x2000, 0x400, 0x200)
	d, err := Parse(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.EntryOffset != 0x40 || d.FlashSize != 0x1000 || d.RAMSize != 0x2000 {
		t.Fatalf("got %+v", d)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	buf := encodeHeader(t, 0, 0x1000, 0x2000, 0x400, 0x200)
	buf[0] ^= 0xff
	if _, err := Parse(buf); err == nil {
		t.Fatal("expected bad magic to fail")
	}
}

func TestParseRejectsShortBuffer(t *testing.T) {
	if _, err := Parse(make([]byte, 4)); err == nil {
		t.Fatal("expected short buffer to fail")
	}
}

func TestValidateRejectsEntryOutsideFlash(t *testing.T) {
	d := Descriptor{EntryOffset: 0x2000, FlashSize: 0x1000, RAMSize: 0x1000, StackSize: 0x400}
	if err := d.Validate(); err == nil {
		t.Fatal("expected out-of-bounds entry point to fail validation")
	}
}

func TestValidateRejectsOvercommittedRAM(t *testing.T) {
	d := Descriptor{EntryOffset: 0, FlashSize: 0x1000, RAMSize: 0x1000, StackSize: 0x800, GrantSize: 0x900}
	if err := d.Validate(); err == nil {
		t.Fatal("expected stack+grant exceeding RAM to fail validation")
	}
}

func TestHeapSizeIsRemainder(t *testing.T) {
	d := Descriptor{RAMSize: 0x2000, StackSize: 0x400, GrantSize: 0x200}
	if got, want := d.HeapSize(), uint32(0x2000-0x400-0x200); got != want {
		t.Fatalf("got %#x want %#x", got, want)
	}
}

func TestMemoryMapLayout(t *testing.T) {
	d := Descriptor{EntryOffset: 0, FlashSize: 0x1000, RAMSize: 0x2000, StackSize: 0x400, GrantSize: 0x200}
	mm := MemoryMap(d, 0x00000000, 0x20000000)

	if mm.RAM.Base != 0x20000000 || mm.RAM.Size != 0x2000 {
		t.Fatalf("got RAM %+v", mm.RAM)
	}
	wantStackBase := uintptr(0x20000000 + 0x2000 - 0x400)
	if mm.Stack.Base != wantStackBase {
		t.Fatalf("got stack base %#x want %#x", mm.Stack.Base, wantStackBase)
	}
	if mm.Grant.Base != mm.RAM.Base {
		t.Fatalf("expected grant region to start at RAM base")
	}
	if mm.Heap.Base != mm.Grant.Base+mm.Grant.Size {
		t.Fatalf("expected heap to start after grant")
	}
}
