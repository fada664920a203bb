package cache

// handleNACK cancels whichever outstanding invalidation or load the NACK
// answers. Queued invalidation replays are retried locally if we are L1,
// or forwarded as a NACK otherwise; a NACKed load reissues its channel
// selection for every coalesced requester (spec §4.11).
func (c *Comp) handleNACK(msg *CacheMsg, source LinkKind, linkID int) {
	if c.isSelfSnoop(msg, source) {
		return
	}

	baseAddr := msg.BaseAddr

	if entry, ok := c.invalidates.Drop(baseAddr); ok {
		c.cancelBus(entry.BusTicket)
		row := c.rows[entry.Row]
		if entry.HasBlock {
			row.Blocks[entry.Col].Unlock()
		}

		for {
			waiting, ok := row.DequeueWaiting(baseAddr)
			if !ok {
				break
			}
			if c.IsL1() {
				c.dispatch(waiting.Msg, waiting.Source, waiting.LinkID)
				continue
			}
			nack := CacheMsgBuilder{}.
				WithSrc(waiting.Msg.Dst).
				WithDst(waiting.Msg.Src).
				WithCmd(NACK).
				WithRspTo(waiting.Msg.ID).
				WithBaseAddr(baseAddr).
				Build()
			c.send(c.portForLink(waiting.Source, waiting.LinkID), nack)
		}
		return
	}

	if info, ok := c.loads.Finish(baseAddr); ok {
		c.cancelBus(info.BusTicket)
		row := c.rows[info.Row]
		block := &row.Blocks[info.Col]
		block.Status = Invalid
		block.Loading = false
		block.Unlock()

		for _, r := range info.Requesters {
			c.dispatch(r.Msg, r.Source, r.LinkID)
		}
		return
	}

	logPeerRace("handleNACK", baseAddr, "NACK for an unknown request")
}
