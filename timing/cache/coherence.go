package cache

// startMiss reserves a victim block for baseAddr and issues the downstream
// RequestData that begins the fill (spec §4.7).
func (c *Comp) startMiss(msg *CacheMsg, source LinkKind, linkID int, rowIdx int, tag, baseAddr uint64) {
	row := c.rows[rowIdx]

	col := row.FindInvalid()
	if col < 0 {
		col = row.VictimUnlocked()
		if col < 0 {
			// Every block in the row is locked; park the request and
			// retry once a lock is released (spec §7, transient
			// conflict: "block locked as victim").
			row.EnqueueWaiting(baseAddr, waitEntry{Msg: msg, Source: source, LinkID: linkID})
			return
		}

		victim := &row.Blocks[col]
		if victim.Status == Dirty {
			// The victim needs a writeback before its slot is reusable.
			// Park this request behind the victim's own address and
			// re-enter once handleWritebackSent drains it, rather than
			// reusing the slot while the writeback is still in flight
			// (spec §4.7: "enqueue a writeback...and queue the current
			// event; the writeback completion will re-drive the row").
			row.EnqueueWaiting(victim.BaseAddr, waitEntry{Msg: msg, Source: source, LinkID: linkID})
			c.issueWriteback(rowIdx, col)
			return
		}

		c.evict(rowIdx, col)
	}

	block := &row.Blocks[col]
	block.BaseAddr = baseAddr
	block.Tag = tag
	block.Status = Assigned
	block.Loading = true
	block.Lock()
	row.Touch(col)

	if msg.Cmd == WriteReq {
		c.stats.WriteMiss++
	} else {
		c.stats.ReadMiss++
	}

	c.loads.Start(baseAddr, rowIdx, col, Down)
	c.loads.AddRequester(baseAddr, source, linkID, msg)

	c.issueFill(rowIdx, col, baseAddr)
}

// startUpgrade handles a write hitting a Shared block: the block must be
// invalidated everywhere else before the write can proceed (spec §4.4,
// §8 scenario 2).
func (c *Comp) startUpgrade(msg *CacheMsg, source LinkKind, linkID int, rowIdx, col int) {
	row := c.rows[rowIdx]
	block := &row.Blocks[col]
	block.Lock()

	row.EnqueueWaiting(block.BaseAddr, waitEntry{Msg: msg, Source: source, LinkID: linkID})

	c.broadcastInvalidate(block.BaseAddr, rowIdx, col, source, linkID, func() {
		block.Status = Exclusive
		block.Unlock()
		c.redispatchRow(rowIdx, block.BaseAddr)
	})
}

// evict removes whatever block currently occupies (row, col). A Dirty
// victim must be parked on a writeback before its slot is reused (spec
// §4.7) — callers are required to route that case through issueWriteback
// themselves rather than calling evict, so a Dirty block reaching here is
// a protocol violation.
func (c *Comp) evict(rowIdx, col int) {
	row := c.rows[rowIdx]
	block := &row.Blocks[col]

	if block.Status == Invalid {
		return
	}
	if block.IsLocked() {
		panicProtocol("evict", block.BaseAddr, "attempted to evict a locked block")
	}
	if block.Status == Dirty {
		panicProtocol("evict", block.BaseAddr, "dirty victim must be parked on a writeback, not evicted synchronously")
	}

	block.Status = Invalid
	block.Loading = false
}

// drainRowWaiting re-dispatches the oldest message parked behind baseAddr,
// if any, now that the block is free again.
func (c *Comp) drainRowWaiting(rowIdx int, baseAddr uint64) {
	c.redispatchRow(rowIdx, baseAddr)
}

func (c *Comp) redispatchRow(rowIdx int, baseAddr uint64) {
	row := c.rows[rowIdx]
	entry, ok := row.DequeueWaiting(baseAddr)
	if !ok {
		return
	}
	c.dispatch(entry.Msg, entry.Source, entry.LinkID)
}

// installFromMemory fills a reserved block directly, used when no
// downstream link is configured and the cache behaves as the last level
// before main memory.
func (c *Comp) installFromMemory(rowIdx, col int) {
	row := c.rows[rowIdx]
	block := &row.Blocks[col]

	evt := c.scheduleSelf(selfFillArrived, c.config.AccessTime)
	evt.row = rowIdx
	evt.col = col
	evt.addr = block.BaseAddr
}
