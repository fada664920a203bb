package cache

import "github.com/sarchlab/akita/v4/sim"

// handleCPURequest is the entry point for a ReadReq or WriteReq arriving on
// an upstream, snoop or prefetcher link (spec §4.3).
func (c *Comp) handleCPURequest(msg *CacheMsg, source LinkKind, linkID int) {
	c.sawCPURequest = true

	if msg.Size <= 0 || msg.Addr+uint64(msg.Size) > c.layout.base(msg.Addr)+c.layout.blockSize {
		panicProtocol("handleCPURequest", msg.Addr, "access spans a block boundary")
	}

	baseAddr := c.layout.base(msg.Addr)
	tag, rowIdx := c.layout.decompose(baseAddr)
	row := c.rows[rowIdx]

	col := row.FindBlock(tag)
	if col >= 0 {
		block := &row.Blocks[col]
		if block.Loading {
			c.loads.AddRequester(baseAddr, source, linkID, msg)
			return
		}
		c.handleHit(msg, source, linkID, rowIdx, col)
		return
	}

	if _, loading := c.loads.Lookup(baseAddr); loading {
		c.loads.AddRequester(baseAddr, source, linkID, msg)
		return
	}

	c.startMiss(msg, source, linkID, rowIdx, tag, baseAddr)
}

// handleHit services a request against an already-resident, non-loading
// block, applying the coherence transition table of spec §4.4.
func (c *Comp) handleHit(msg *CacheMsg, source LinkKind, linkID int, rowIdx, col int) {
	row := c.rows[rowIdx]
	block := &row.Blocks[col]
	isWrite := msg.Cmd == WriteReq
	locked := msg.Flags.Has(FlagLocked)

	if _, invalidating := c.invalidates.Get(block.BaseAddr); invalidating {
		row.EnqueueWaiting(block.BaseAddr, waitEntry{Msg: msg, Source: source, LinkID: linkID})
		return
	}

	row.Touch(col)

	if !isWrite && locked {
		c.handleLockedRead(msg, source, linkID, rowIdx, col)
		return
	}

	switch block.Status {
	case Shared:
		if isWrite {
			c.stats.UpgradeMiss++
			c.startUpgrade(msg, source, linkID, rowIdx, col)
			return
		}
		c.stats.ReadHit++
	case Exclusive, Dirty:
		if isWrite {
			c.stats.WriteHit++
		} else {
			c.stats.ReadHit++
		}
	case Assigned:
		c.stats.ReadHit++
	default:
		panicProtocol("handleHit", block.BaseAddr, "hit resolved against an Invalid block")
	}

	if isWrite {
		c.applyWrite(block, msg)
		if locked && block.UserLockedCount > 0 {
			block.UserLockedCount--
			if block.UserLockedCount == 0 && block.UserLockNeedsWB {
				block.UserLockNeedsWB = false
				c.issueWriteback(rowIdx, col)
			}
		}
	}

	c.listener.OnAccess(msg.Addr, isWrite, true)

	block.Lock()
	evt := c.scheduleSelf(selfAccessDone, c.config.AccessTime)
	evt.msg = msg
	evt.source = source
	evt.linkID = linkID
	evt.row = rowIdx
	evt.col = col
}

// handleLockedRead services a CPU-atomic-locked read (spec §4.3). A
// non-Exclusive block is first upgraded; an Exclusive block with a
// writeback in flight is deferred until that settles; otherwise the read
// is answered and the block's user-lock count is taken.
func (c *Comp) handleLockedRead(msg *CacheMsg, source LinkKind, linkID int, rowIdx, col int) {
	row := c.rows[rowIdx]
	block := &row.Blocks[col]

	if block.Status != Exclusive && block.Status != Dirty {
		row.EnqueueWaiting(block.BaseAddr, waitEntry{Msg: msg, Source: source, LinkID: linkID})
		block.Lock()
		c.broadcastInvalidate(block.BaseAddr, rowIdx, col, source, linkID, func() {
			block.Status = Exclusive
			block.Unlock()
			c.redispatchRow(rowIdx, block.BaseAddr)
		})
		return
	}

	if block.WBInProgress {
		row.EnqueueWaiting(block.BaseAddr, waitEntry{Msg: msg, Source: source, LinkID: linkID})
		return
	}

	block.UserLockedCount++
	block.UserLockNeedsWB = false
	c.stats.ReadHit++

	block.Lock()
	evt := c.scheduleSelf(selfAccessDone, c.config.AccessTime)
	evt.msg = msg
	evt.source = source
	evt.linkID = linkID
	evt.row = rowIdx
	evt.col = col
}

// applyWrite merges a write's payload into a block. A write hit never
// changes status on its own — Dirty is set only when a writeback from an
// upstream holder arrives (handleWritebackReceived) — so an Exclusive or
// Assigned block stays exactly that after the write.
func (c *Comp) applyWrite(block *Block, msg *CacheMsg) {
	offset := msg.Addr - block.BaseAddr
	block.WriteAt(offset, msg.Payload)
}

// handleAccessDone responds to the CPU request once the configured access
// latency has elapsed and releases the protocol lock taken to hold the
// block steady while the response was in flight.
func (c *Comp) handleAccessDone(evt *selfEvent) error {
	row := c.rows[evt.row]
	block := &row.Blocks[evt.col]
	msg := evt.msg

	var payload []byte
	if msg.Cmd == ReadReq {
		offset := msg.Addr - block.BaseAddr
		payload = block.ReadAt(offset, msg.Size)
	}

	block.Unlock()

	rsp := CacheMsgBuilder{}.
		WithSrc(msg.Dst).
		WithDst(msg.Src).
		WithCmd(msg.Cmd).
		WithRspTo(msg.ID).
		WithAddr(msg.Addr).
		WithBaseAddr(block.BaseAddr).
		WithSize(msg.Size).
		WithPayload(payload).
		WithUpstreamLinkIdx(evt.linkID).
		Build()

	c.send(c.portForLink(evt.source, evt.linkID), rsp)
	traceComplete(msg, c)

	c.drainRowWaiting(evt.row, block.BaseAddr)
	return nil
}

// portForLink resolves the sim.Port a given logical link/index pair sends
// through (spec §5's five logical link surfaces).
func (c *Comp) portForLink(kind LinkKind, linkID int) sim.Port {
	switch kind {
	case Upstream:
		for _, l := range c.upstream {
			if l.ID == linkID {
				return l.Port
			}
		}
		panicProtocol("portForLink", 0, "unknown upstream link id")
	case Downstream:
		if c.downstream == nil {
			panicProtocol("portForLink", 0, "no downstream link configured")
		}
		return c.downstream.Port
	case Snoop:
		if c.snoop == nil {
			panicProtocol("portForLink", 0, "no snoop link configured")
		}
		return c.snoop.Port
	case DirectoryLink:
		if c.directoryLk == nil {
			panicProtocol("portForLink", 0, "no directory link configured")
		}
		return c.directoryLk.Port
	case Prefetcher:
		if c.prefetcher == nil {
			panicProtocol("portForLink", 0, "no prefetcher link configured")
		}
		return c.prefetcher.Port
	default:
		panicProtocol("portForLink", 0, "unroutable link kind")
	}
	return nil
}
