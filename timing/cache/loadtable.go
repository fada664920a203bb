package cache

// LoadInfo records one outstanding load so that concurrent requests for the
// same block can coalesce onto it instead of issuing duplicate downstream
// traffic (spec §3, "LoadInfo").
type LoadInfo struct {
	BaseAddr uint64
	Row      int
	Col      int

	// Dir is the direction the fill is expected from.
	Dir Direction

	// Requesters are the links (and, for Upstream, the link index) waiting
	// on this load to complete, in arrival order.
	Requesters []loadRequester

	// BusTicket is the in-flight snoop-bus request fetching this block, if
	// any; canceled when the fill arrives by some other channel first.
	BusTicket *busTicket
}

type loadRequester struct {
	Source LinkKind
	LinkID int
	Msg    *CacheMsg
}

// LoadTable coalesces outstanding loads keyed by block-aligned address.
type LoadTable struct {
	entries map[uint64]*LoadInfo
}

// NewLoadTable returns an empty LoadTable.
func NewLoadTable() *LoadTable {
	return &LoadTable{entries: make(map[uint64]*LoadInfo)}
}

// Lookup returns the in-flight load for baseAddr, if any.
func (t *LoadTable) Lookup(baseAddr uint64) (*LoadInfo, bool) {
	info, ok := t.entries[baseAddr]
	return info, ok
}

// Start records a new outstanding load. It panics if one is already
// outstanding for baseAddr, since the caller must check Lookup first
// (spec §4.7 treats a duplicate load as coalescing, never re-issuing).
func (t *LoadTable) Start(baseAddr uint64, row, col int, dir Direction) *LoadInfo {
	if _, exists := t.entries[baseAddr]; exists {
		panic("cache: duplicate load started for an address already loading")
	}
	info := &LoadInfo{BaseAddr: baseAddr, Row: row, Col: col, Dir: dir}
	t.entries[baseAddr] = info
	return info
}

// AddRequester appends a coalescing requester to an existing load.
func (t *LoadTable) AddRequester(baseAddr uint64, source LinkKind, linkID int, msg *CacheMsg) {
	info, ok := t.entries[baseAddr]
	if !ok {
		panic("cache: add requester to a load that is not outstanding")
	}
	info.Requesters = append(info.Requesters, loadRequester{Source: source, LinkID: linkID, Msg: msg})
}

// Finish removes and returns the load for baseAddr.
func (t *LoadTable) Finish(baseAddr uint64) (*LoadInfo, bool) {
	info, ok := t.entries[baseAddr]
	if ok {
		delete(t.entries, baseAddr)
	}
	return info, ok
}
