package cache

// supplyKey identifies one in-progress snoop supply by the address being
// supplied and the peer it is being supplied to (spec §3, "Supply-in-
// progress record").
type supplyKey struct {
	Addr uint64
	Peer string
}

// supplyEntry tracks one in-flight supply: the bus ticket (if it went
// through snoop arbitration) and whether it has since been canceled, in
// which case its deferred dispatch must drop the send when it fires
// (spec §4.6).
type supplyEntry struct {
	BusTicket *busTicket
	Canceled  bool
}

// SupplyTable tracks snoop-initiated data supplies that are underway, so a
// second RequestData for the same (addr, peer) pair is recognized as a
// duplicate rather than issued twice (spec §4.6).
type SupplyTable struct {
	inProgress map[supplyKey]*supplyEntry
}

// NewSupplyTable returns an empty SupplyTable.
func NewSupplyTable() *SupplyTable {
	return &SupplyTable{inProgress: make(map[supplyKey]*supplyEntry)}
}

// Start marks a supply as underway. It reports false (and does not
// overwrite the existing entry) if one was already in progress, and
// uncanceled, for this (addr, peer) pair.
func (t *SupplyTable) Start(addr uint64, peer string) (*supplyEntry, bool) {
	key := supplyKey{Addr: addr, Peer: peer}
	if e, ok := t.inProgress[key]; ok && !e.Canceled {
		return e, false
	}
	e := &supplyEntry{}
	t.inProgress[key] = e
	return e, true
}

// Get returns the in-progress supply entry for (addr, peer), if any.
func (t *SupplyTable) Get(addr uint64, peer string) (*supplyEntry, bool) {
	e, ok := t.inProgress[supplyKey{Addr: addr, Peer: peer}]
	return e, ok
}

// Finish clears the in-progress marker for (addr, peer).
func (t *SupplyTable) Finish(addr uint64, peer string) {
	delete(t.inProgress, supplyKey{Addr: addr, Peer: peer})
}

// InProgress reports whether an uncanceled supply is underway for
// (addr, peer).
func (t *SupplyTable) InProgress(addr uint64, peer string) bool {
	e, ok := t.inProgress[supplyKey{Addr: addr, Peer: peer}]
	return ok && !e.Canceled
}

// CancelAllForAddr marks every in-progress supply of addr (to any peer) as
// canceled and cancels its bus ticket, if any. Used when a snoop observes
// someone else's SupplyData or Invalidate for the same address racing our
// own attempt to supply it (spec §4.6, §4.5).
func (t *SupplyTable) CancelAllForAddr(addr uint64, cancelBus func(*busTicket)) {
	for key, e := range t.inProgress {
		if key.Addr != addr || e.Canceled {
			continue
		}
		e.Canceled = true
		if e.BusTicket != nil {
			cancelBus(e.BusTicket)
			e.BusTicket = nil
		}
	}
}
