package cache

// handleRequestData answers a peer's RequestData: if we hold the block
// clean, we supply it after access latency; a miss either discards (a
// likely race) or begins a fresh load, per the peer that asked (spec
// §4.6).
func (c *Comp) handleRequestData(msg *CacheMsg, source LinkKind, linkID int) {
	if c.isSelfSnoop(msg, source) {
		return
	}
	if msg.Size != c.config.BlockSize {
		panicProtocol("handleRequestData", msg.Addr, "split-size request unsupported")
	}

	baseAddr := msg.BaseAddr
	tag, rowIdx := c.layout.decompose(baseAddr)
	row := c.rows[rowIdx]
	col := row.FindBlock(tag)

	if col < 0 {
		switch source {
		case Downstream:
			logPeerRace("handleRequestData", baseAddr, "miss on a downstream request, assuming a recent writeback race")
			return
		case Snoop:
			if msg.Dst != c.snoop.Port.AsRemote() {
				logPeerRace("handleRequestData", baseAddr, "snoop request not addressed to us")
				return
			}
		}

		if _, loading := c.loads.Lookup(baseAddr); loading {
			c.loads.AddRequester(baseAddr, source, linkID, msg)
			return
		}
		c.startMiss(msg, source, linkID, rowIdx, tag, baseAddr)
		return
	}

	block := &row.Blocks[col]

	if block.Loading {
		row.EnqueueWaiting(baseAddr, waitEntry{Msg: msg, Source: source, LinkID: linkID})
		return
	}

	if block.Status == Dirty {
		if source != Snoop {
			logPeerRace("handleRequestData", baseAddr, "dirty block, not answering off the bus")
		}
		return
	}

	if _, invalidating := c.invalidates.Get(baseAddr); invalidating {
		row.EnqueueWaiting(baseAddr, waitEntry{Msg: msg, Source: source, LinkID: linkID})
		return
	}

	peer := string(msg.Src)
	if _, started := c.supplies.Start(baseAddr, peer); !started {
		return // already supplying this peer
	}

	block.Lock()
	evt := c.scheduleSelf(selfSupplySent, c.config.AccessTime)
	evt.msg = msg
	evt.source = source
	evt.linkID = linkID
	evt.row = rowIdx
	evt.col = col
}

// handleSupplySent fires once a supply's simulated transfer time has
// elapsed: it drops the response if the supply was canceled meanwhile,
// answers with a Delayed placeholder if the block is mid atomic-lock, or
// otherwise sends the real payload and demotes Exclusive to Shared for a
// snoop or directory peer (spec §4.6).
func (c *Comp) handleSupplySent(evt *selfEvent) error {
	msg := evt.msg
	baseAddr := msg.BaseAddr
	peer := string(msg.Src)

	entry, ok := c.supplies.Get(baseAddr, peer)
	if !ok {
		return nil
	}
	c.supplies.Finish(baseAddr, peer)

	row := c.rows[evt.row]
	block := &row.Blocks[evt.col]
	block.Unlock()

	if entry.Canceled {
		return nil
	}

	if block.UserLockedCount > 0 {
		rsp := CacheMsgBuilder{}.
			WithSrc(msg.Dst).
			WithDst(msg.Src).
			WithCmd(SupplyData).
			WithRspTo(msg.ID).
			WithBaseAddr(baseAddr).
			WithSize(c.config.BlockSize).
			WithFlags(FlagDelayed).
			Build()
		block.UserLockNeedsWB = true
		c.send(c.portForLink(evt.source, evt.linkID), rsp)
		c.stats.SupplyMiss++
		c.drainRowWaiting(evt.row, baseAddr)
		return nil
	}

	rsp := CacheMsgBuilder{}.
		WithSrc(msg.Dst).
		WithDst(msg.Src).
		WithCmd(SupplyData).
		WithRspTo(msg.ID).
		WithBaseAddr(baseAddr).
		WithSize(c.config.BlockSize).
		WithPayload(block.ReadAt(0, c.config.BlockSize)).
		Build()
	c.send(c.portForLink(evt.source, evt.linkID), rsp)
	c.stats.SupplyHit++

	if (evt.source == Snoop || evt.source == DirectoryLink) && block.Status == Exclusive {
		block.Status = Shared
	}

	c.drainRowWaiting(evt.row, baseAddr)
	return nil
}

// handleSupplyData receives an answer to our own RequestData: a
// Writeback-flagged supply updates a block we still hold, otherwise it
// feeds the outstanding load for this address (spec §4.6, §4.7).
func (c *Comp) handleSupplyData(msg *CacheMsg, source LinkKind, linkID int) {
	if c.isSelfSnoop(msg, source) {
		return
	}

	baseAddr := msg.BaseAddr

	if msg.Flags.Has(FlagWriteback) {
		c.handleWritebackReceived(msg, source, linkID)
		return
	}

	if _, loading := c.loads.Lookup(baseAddr); !loading {
		logPeerRace("handleSupplyData", baseAddr, "unmatched supply, no outstanding load")
		return
	}

	evt := c.scheduleSelf(selfFillArrived, 0)
	evt.addr = baseAddr
	evt.msg = msg
}
