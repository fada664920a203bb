package cache

// handleFetch answers a directory Fetch or FetchInvalidate. A
// FetchInvalidate first invalidates upstream, if any holder exists, and
// responds through respondToFetch once those ACKs are in; a Dirty block is first refreshed from
// an upstream holder before either response is sent (spec §4.10).
func (c *Comp) handleFetch(msg *CacheMsg, source LinkKind, linkID int) {
	baseAddr := msg.BaseAddr
	tag, rowIdx := c.layout.decompose(baseAddr)
	row := c.rows[rowIdx]
	col := row.FindBlock(tag)

	if col < 0 {
		logPeerRace("handleFetch", baseAddr, "fetch for a block we do not hold")
		return
	}

	invalidate := msg.Cmd == FetchInvalidate

	if invalidate && len(c.upstream) > 0 {
		if _, inProgress := c.invalidates.Get(baseAddr); !inProgress {
			c.issueInvalidate(baseAddr, rowIdx, col, Invalid, Up, Self, 0, true, func() {
				c.respondToFetch(msg, source, linkID)
			})
			return
		}
	}

	c.respondToFetch(msg, source, linkID)
}

// respondToFetch answers a Fetch or FetchInvalidate once any upstream
// invalidation it needed has completed.
func (c *Comp) respondToFetch(msg *CacheMsg, source LinkKind, linkID int) {
	baseAddr := msg.BaseAddr
	tag, rowIdx := c.layout.decompose(baseAddr)
	row := c.rows[rowIdx]
	col := row.FindBlock(tag)
	if col < 0 {
		logPeerRace("handleFetch", baseAddr, "fetch for a block we do not hold")
		return
	}
	invalidate := msg.Cmd == FetchInvalidate

	block := &row.Blocks[col]

	switch block.Status {
	case Shared:
		c.sendFetchResponse(msg, source, linkID, block)
		if invalidate {
			block.Status = Invalid
			block.Loading = false
			c.drainRowWaiting(rowIdx, baseAddr)
		}
	case Dirty:
		c.fetchBlock(rowIdx, col, baseAddr, func() {
			c.sendFetchResponse(msg, source, linkID, block)
			if invalidate {
				block.Status = Invalid
				block.Loading = false
				c.drainRowWaiting(rowIdx, baseAddr)
			}
		})
	default:
		panicProtocol("handleFetch", baseAddr, "fetch against a block in a state other than Shared or Dirty")
	}
}

// sendFetchResponse answers a Fetch/FetchInvalidate with block's current
// payload.
func (c *Comp) sendFetchResponse(msg *CacheMsg, source LinkKind, linkID int, block *Block) {
	rsp := CacheMsgBuilder{}.
		WithSrc(msg.Dst).
		WithDst(msg.Src).
		WithCmd(SupplyData).
		WithRspTo(msg.ID).
		WithBaseAddr(block.BaseAddr).
		WithSize(c.config.BlockSize).
		WithPayload(block.ReadAt(0, c.config.BlockSize)).
		Build()
	c.send(c.portForLink(source, linkID), rsp)
}
