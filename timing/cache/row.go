package cache

// waitEntry is a message parked on a row's per-address waiting queue while
// a block is locked or a load is in flight for that address (spec §4.3,
// "queued behind the existing load").
type waitEntry struct {
	Msg    *CacheMsg
	Source LinkKind
	LinkID int
}

// Row is one set of a set-associative cache: a fixed number of blocks plus
// the bookkeeping needed to pick an LRU-unlocked victim and to hold
// requests that arrive while the set is busy (spec §3, "Row").
type Row struct {
	Index  int
	Blocks []Block

	// lru holds block column indices ordered from least to most recently
	// touched. The front is the next eviction candidate.
	lru []int

	// waiting holds, per block-aligned address, the FIFO of messages
	// parked behind an in-progress operation on that address.
	waiting map[uint64][]waitEntry
}

// NewRow allocates a Row with assoc blocks of blockSize bytes each, all
// initially Invalid.
func NewRow(index, assoc, blockSize int) *Row {
	row := &Row{
		Index:   index,
		Blocks:  make([]Block, assoc),
		lru:     make([]int, assoc),
		waiting: make(map[uint64][]waitEntry),
	}
	for i := range row.Blocks {
		row.Blocks[i] = Block{
			Row:    index,
			Col:    i,
			Status: Invalid,
			Data:   make([]byte, blockSize),
		}
		row.lru[i] = i
	}
	return row
}

// FindBlock returns the column holding a block with the given tag, or -1
// if the row does not currently hold that tag in a non-Invalid state.
func (r *Row) FindBlock(tag uint64) int {
	for i := range r.Blocks {
		if r.Blocks[i].Status != Invalid && r.Blocks[i].Tag == tag {
			return i
		}
	}
	return -1
}

// FindInvalid returns the column of the first Invalid block, or -1 if the
// row is full.
func (r *Row) FindInvalid() int {
	for i := range r.Blocks {
		if r.Blocks[i].Status == Invalid {
			return i
		}
	}
	return -1
}

// Touch moves col to the most-recently-used end of the LRU queue.
func (r *Row) Touch(col int) {
	for i, c := range r.lru {
		if c == col {
			r.lru = append(r.lru[:i], r.lru[i+1:]...)
			break
		}
	}
	r.lru = append(r.lru, col)
}

// VictimUnlocked returns the column of the least-recently-used block that
// is not protocol-locked, or -1 if every block in the row is locked
// (spec §4.7, "there is no lockable victim").
func (r *Row) VictimUnlocked() int {
	for _, c := range r.lru {
		if !r.Blocks[c].IsLocked() {
			return c
		}
	}
	return -1
}

// EnqueueWaiting parks a message behind the given address.
func (r *Row) EnqueueWaiting(baseAddr uint64, entry waitEntry) {
	r.waiting[baseAddr] = append(r.waiting[baseAddr], entry)
}

// DequeueWaiting pops the oldest message parked behind baseAddr, returning
// ok=false if none are waiting.
func (r *Row) DequeueWaiting(baseAddr uint64) (waitEntry, bool) {
	q := r.waiting[baseAddr]
	if len(q) == 0 {
		return waitEntry{}, false
	}
	entry := q[0]
	if len(q) == 1 {
		delete(r.waiting, baseAddr)
	} else {
		r.waiting[baseAddr] = q[1:]
	}
	return entry, true
}

// HasWaiting reports whether any message is parked behind baseAddr.
func (r *Row) HasWaiting(baseAddr uint64) bool {
	return len(r.waiting[baseAddr]) > 0
}
