package process

// allowKey identifies one (driver, sub) slot a process may have an
// outstanding allow buffer installed for.
type allowKey struct {
	driver uint32
	sub    uint32
}

// AllowedBuffer is a memory range a process has temporarily handed to a
// driver.
type AllowedBuffer struct {
	Address uint32
	Length  uint32
}

// AllowTable tracks, per process, the single outstanding allow buffer
// for each (driver, sub) pair. A process may hold at most one per pair;
// Swap enforces that by construction — there is nowhere to store a
// second one.
type AllowTable struct {
	slots map[allowKey]AllowedBuffer
}

func NewAllowTable() *AllowTable {
	return &AllowTable{slots: make(map[allowKey]AllowedBuffer)}
}

// Swap installs (newAddr, newLen) for (driver, sub) and returns
// whatever was previously installed there (the zero value if nothing
// was).
func (t *AllowTable) Swap(driver, sub uint32, newAddr, newLen uint32) AllowedBuffer {
	k := allowKey{driver, sub}
	old := t.slots[k]
	t.slots[k] = AllowedBuffer{Address: newAddr, Length: newLen}
	return old
}

// Current returns what is currently installed for (driver, sub)
// without modifying it.
func (t *AllowTable) Current(driver, sub uint32) AllowedBuffer {
	return t.slots[allowKey{driver, sub}]
}

// AllowEntry is one outstanding (driver, sub) -> buffer binding, as
// returned by Entries for a caller that needs to walk every slot a
// process currently has installed.
type AllowEntry struct {
	Driver uint32
	Sub    uint32
	Buffer AllowedBuffer
}

// Entries returns every outstanding allow slot. Used on process
// termination to notify each holding driver it must relinquish its
// buffer.
func (t *AllowTable) Entries() []AllowEntry {
	entries := make([]AllowEntry, 0, len(t.slots))
	for k, v := range t.slots {
		entries = append(entries, AllowEntry{Driver: k.driver, Sub: k.sub, Buffer: v})
	}
	return entries
}

// Clear drops every outstanding allow slot, the way a terminated
// process's allow state does not survive it.
func (t *AllowTable) Clear() {
	t.slots = make(map[allowKey]AllowedBuffer)
}
