package cache

import "github.com/sarchlab/akita/v4/sim"

// isSelfSnoop reports whether msg is our own send looping back on the
// snoop bus: every participant observes every transaction, including its
// own (spec §4.2, "whose origin is our own name").
func (c *Comp) isSelfSnoop(msg *CacheMsg, source LinkKind) bool {
	return source == Snoop && c.snoop != nil && msg.Src == c.snoop.Port.AsRemote()
}

// sendInvalidate transmits a bare Invalidate for baseAddr over port.
func (c *Comp) sendInvalidate(port sim.Port, dst sim.RemotePort, baseAddr uint64) {
	msg := CacheMsgBuilder{}.
		WithSrc(port.AsRemote()).
		WithDst(dst).
		WithCmd(Invalidate).
		WithBaseAddr(baseAddr).
		Build()
	c.send(port, msg)
}

// issueInvalidate creates an invalidation record and broadcasts Invalidate
// on every enabled egress matching direction, counting the ACKs it
// expects. The snoop link, when present, always participates: the issuer
// self-ACKs once its own send clears the bus (spec §4.5).
func (c *Comp) issueInvalidate(
	baseAddr uint64, rowIdx, col int,
	newStatus Status, direction Direction,
	excludeLink LinkKind, excludeLinkID int,
	cancelable bool, completion func(),
) *invalidateEntry {
	hasBlock := col >= 0
	entry := c.invalidates.Begin(baseAddr, rowIdx, col, hasBlock, newStatus, cancelable, completion)

	if direction == Up || direction == Both {
		for _, l := range c.upstream {
			if excludeLink == Upstream && l.ID == excludeLinkID {
				continue
			}
			entry.ExpectACK()
			c.sendInvalidate(l.Port, l.Remote, baseAddr)
		}
	}

	if c.snoop != nil {
		entry.ExpectACK()
		entry.BusTicket = c.requestBus(
			func() { c.sendInvalidate(c.snoop.Port, c.snoop.Remote, baseAddr) },
			func() { c.invalidates.ACK(baseAddr) },
		)
	}

	c.invalidates.Settle(baseAddr)
	return entry
}

// broadcastInvalidate is the common case of issueInvalidate: an upgrade or
// eviction invalidate that targets every egress except the link that
// delivered the triggering event, and may be preempted by a later
// incoming invalidate for the same block.
func (c *Comp) broadcastInvalidate(baseAddr uint64, rowIdx, col int, excludeLink LinkKind, excludeLinkID int, completion func()) *invalidateEntry {
	return c.issueInvalidate(baseAddr, rowIdx, col, Exclusive, Both, excludeLink, excludeLinkID, true, completion)
}

// handleInvalidate answers an incoming Invalidate: a Dirty block must be
// written back before the ACK can be sent, everything else invalidates
// immediately (spec §4.4, §4.5).
func (c *Comp) handleInvalidate(msg *CacheMsg, source LinkKind, linkID int) {
	if c.isSelfSnoop(msg, source) {
		return
	}

	baseAddr := msg.BaseAddr
	tag, rowIdx := c.layout.decompose(baseAddr)
	row := c.rows[rowIdx]
	col := row.FindBlock(tag)

	if col < 0 {
		// Already Invalid: idempotent, still ACK (spec §8 property 5).
		c.sendInvalidateACK(msg, source, linkID)
		return
	}

	block := &row.Blocks[col]

	if block.Loading {
		row.EnqueueWaiting(baseAddr, waitEntry{Msg: msg, Source: source, LinkID: linkID})
		return
	}

	if existing, ok := c.invalidates.Get(baseAddr); ok {
		if existing.CanCancel {
			c.cancelBus(existing.BusTicket)
			c.invalidates.Cancel(baseAddr)
		} else {
			row.EnqueueWaiting(baseAddr, waitEntry{Msg: msg, Source: source, LinkID: linkID})
			return
		}
	}

	if block.Status == Dirty {
		row.EnqueueWaiting(baseAddr, waitEntry{Msg: msg, Source: source, LinkID: linkID})
		c.issueWriteback(rowIdx, col)
		return
	}

	block.Status = Invalid
	block.Loading = false
	c.sendInvalidateACK(msg, source, linkID)
	c.drainRowWaiting(rowIdx, baseAddr)
}

// sendInvalidateACK replies to an Invalidate over the link it arrived on.
func (c *Comp) sendInvalidateACK(msg *CacheMsg, source LinkKind, linkID int) {
	port := c.portForLink(source, linkID)
	ack := CacheMsgBuilder{}.
		WithSrc(msg.Dst).
		WithDst(msg.Src).
		WithCmd(ACK).
		WithRspTo(msg.ID).
		WithBaseAddr(msg.BaseAddr).
		Build()
	c.send(port, ack)
}

// handleACK collects an invalidation ACK, running the invalidation's
// completion once the last one arrives (spec §4.5).
func (c *Comp) handleACK(msg *CacheMsg, source LinkKind, linkID int) {
	if c.isSelfSnoop(msg, source) {
		return
	}

	baseAddr := msg.BaseAddr
	if c.invalidates.ACK(baseAddr) {
		return
	}

	logPeerRace("handleACK", baseAddr, "no outstanding invalidation for response_to "+msg.RspTo)
}
