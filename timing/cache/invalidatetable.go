package cache

// invalidateEntry tracks one in-flight invalidation broadcast: how many
// ACKs are still outstanding, and what should happen once they all arrive
// (spec §3, "Invalidation record"; §4.5).
type invalidateEntry struct {
	BaseAddr uint64
	Row      int
	Col      int
	HasBlock bool

	NewStatus Status

	PendingACKs int

	// CanCancel reports whether an incoming invalidate for the same block
	// may preempt this one (spec §4.5).
	CanCancel bool

	// BusTicket is the in-flight snoop-bus invalidate request, if the
	// cache has a snoop link.
	BusTicket *busTicket

	// Completion is invoked once PendingACKs reaches zero.
	Completion func()
}

// InvalidateTable counts outstanding invalidation ACKs per address.
type InvalidateTable struct {
	entries map[uint64]*invalidateEntry
}

// NewInvalidateTable returns an empty InvalidateTable.
func NewInvalidateTable() *InvalidateTable {
	return &InvalidateTable{entries: make(map[uint64]*invalidateEntry)}
}

// Begin opens a new invalidation record for baseAddr, with zero ACKs
// expected so far. The caller calls ExpectACK once per egress it
// broadcasts on, then Settle once broadcasting is complete.
func (t *InvalidateTable) Begin(baseAddr uint64, row, col int, hasBlock bool, newStatus Status, cancelable bool, completion func()) *invalidateEntry {
	e := &invalidateEntry{
		BaseAddr:  baseAddr,
		Row:       row,
		Col:       col,
		HasBlock:  hasBlock,
		NewStatus: newStatus,
		CanCancel: cancelable,
		Completion: completion,
	}
	t.entries[baseAddr] = e
	return e
}

// ExpectACK records that one more ACK is expected before e settles.
func (e *invalidateEntry) ExpectACK() {
	e.PendingACKs++
}

// Settle runs e's completion immediately if no ACK is outstanding (the
// case where the broadcast reached nobody), matching cache.cc's
// "inv.waitingACKs == 0 ... finishIssueInvalidate" check.
func (t *InvalidateTable) Settle(baseAddr uint64) {
	e, ok := t.entries[baseAddr]
	if !ok || e.PendingACKs > 0 {
		return
	}
	delete(t.entries, baseAddr)
	e.Completion()
}

// ACK records one received invalidation ACK. When the last expected ACK
// arrives, the entry's completion runs and it is removed. Returns whether
// an entry for baseAddr was found at all.
func (t *InvalidateTable) ACK(baseAddr uint64) bool {
	entry, ok := t.entries[baseAddr]
	if !ok {
		return false
	}
	entry.PendingACKs--
	if entry.PendingACKs <= 0 {
		delete(t.entries, baseAddr)
		entry.Completion()
	}
	return true
}

// Get returns the in-flight invalidation for baseAddr, if any.
func (t *InvalidateTable) Get(baseAddr uint64) (*invalidateEntry, bool) {
	e, ok := t.entries[baseAddr]
	return e, ok
}

// InProgress reports whether an invalidation is outstanding for baseAddr.
func (t *InvalidateTable) InProgress(baseAddr uint64) bool {
	_, ok := t.entries[baseAddr]
	return ok
}

// Cancel removes and returns the invalidation for baseAddr if it is
// cancelable. ok is false if there is no entry, or it cannot be canceled.
func (t *InvalidateTable) Cancel(baseAddr uint64) (*invalidateEntry, bool) {
	e, ok := t.entries[baseAddr]
	if !ok || !e.CanCancel {
		return nil, false
	}
	delete(t.entries, baseAddr)
	return e, true
}

// Drop unconditionally removes the invalidation for baseAddr (used when a
// NACK cancels it regardless of CanCancel, per spec §4.11).
func (t *InvalidateTable) Drop(baseAddr uint64) (*invalidateEntry, bool) {
	e, ok := t.entries[baseAddr]
	if !ok {
		return nil, false
	}
	delete(t.entries, baseAddr)
	return e, true
}
