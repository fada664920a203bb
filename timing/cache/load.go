package cache

import "github.com/sarchlab/akita/v4/sim"

// canFinishLoad applies the intended precedence for completing a fetch:
// proceed only if the block is Assigned, or it is Dirty and being fetched
// upward. The source this cache is modeled on mixes these two conditions
// with an operator-precedence bug; this is the corrected rule (spec §9).
func canFinishLoad(status Status, dir Direction) bool {
	return status == Assigned || (status == Dirty && dir == Up)
}

// issueFill sends the RequestData that begins a load for an already
// Assigned block, picking the first available channel: downstream
// point-to-point, directory, then the snoop bus (spec §4.7).
func (c *Comp) issueFill(rowIdx, col int, baseAddr uint64) {
	switch {
	case c.downstream != nil:
		req := CacheMsgBuilder{}.
			WithSrc(c.downstream.Port.AsRemote()).
			WithDst(c.downstream.Remote).
			WithCmd(RequestData).
			WithAddr(baseAddr).
			WithBaseAddr(baseAddr).
			WithSize(c.config.BlockSize).
			Build()
		c.send(c.downstream.Port, req)

	case c.directoryLk != nil:
		peer, ok := c.directory.Target(baseAddr)
		if !ok {
			panicProtocol("issueFill", baseAddr, "no directory peer covers this address")
		}
		req := CacheMsgBuilder{}.
			WithSrc(c.directoryLk.Port.AsRemote()).
			WithDst(peer.Port).
			WithCmd(RequestData).
			WithAddr(baseAddr).
			WithBaseAddr(baseAddr).
			WithSize(c.config.BlockSize).
			Build()
		c.send(c.directoryLk.Port, req)

	case c.snoop != nil:
		info, ok := c.loads.Lookup(baseAddr)
		if !ok {
			panicProtocol("issueFill", baseAddr, "no outstanding load to attach a snoop fill to")
		}
		target := c.snoop.Remote
		if c.config.NextLevel != "" && c.config.NextLevel != "NONE" {
			target = sim.RemotePort(c.config.NextLevel)
		}
		info.BusTicket = c.requestBus(func() {
			req := CacheMsgBuilder{}.
				WithSrc(c.snoop.Port.AsRemote()).
				WithDst(target).
				WithCmd(RequestData).
				WithAddr(baseAddr).
				WithBaseAddr(baseAddr).
				WithSize(c.config.BlockSize).
				Build()
			c.send(c.snoop.Port, req)
		}, nil)

	default:
		logPeerRace("issueFill", baseAddr, "no downstream, directory, or snoop link configured; treating as main memory fill")
		c.installFromMemory(rowIdx, col)
	}
}

// fetchBlock begins an Up-direction load to pull fresher data from an
// upstream holder, used to answer a directory Fetch/FetchInvalidate for a
// block this cache holds Dirty but suspects is stale beneath an upstream
// holder (spec §4.10).
func (c *Comp) fetchBlock(rowIdx, col int, baseAddr uint64, completion func()) {
	if _, loading := c.loads.Lookup(baseAddr); loading {
		return
	}

	row := c.rows[rowIdx]
	block := &row.Blocks[col]
	block.Lock()

	c.loads.Start(baseAddr, rowIdx, col, Up)

	if c.fetchCallbacks == nil {
		c.fetchCallbacks = make(map[uint64]func())
	}
	c.fetchCallbacks[baseAddr] = completion

	for _, l := range c.upstream {
		req := CacheMsgBuilder{}.
			WithSrc(l.Port.AsRemote()).
			WithDst(l.Remote).
			WithCmd(Fetch).
			WithAddr(baseAddr).
			WithBaseAddr(baseAddr).
			WithSize(c.config.BlockSize).
			Build()
		c.send(l.Port, req)
	}
}

// handleFillArrived runs once a requested fill's simulated transfer time
// has elapsed: it installs the data (or, for a Delayed supply, purges
// snoop-sourced waiters) and replays every requester coalesced onto the
// load (spec §4.7).
func (c *Comp) handleFillArrived(evt *selfEvent) error {
	baseAddr := evt.addr
	info, ok := c.loads.Lookup(baseAddr)
	if !ok {
		return nil
	}

	c.cancelBus(info.BusTicket)
	info.BusTicket = nil

	row := c.rows[info.Row]
	block := &row.Blocks[info.Col]

	if evt.msg != nil && evt.msg.Flags.Has(FlagDelayed) {
		kept := info.Requesters[:0]
		for _, r := range info.Requesters {
			if r.Source != Snoop {
				kept = append(kept, r)
			}
		}
		info.Requesters = kept

		if len(info.Requesters) == 0 {
			c.loads.Finish(baseAddr)
			block.Status = Invalid
			block.Loading = false
			block.Unlock()
			c.drainRowWaiting(info.Row, baseAddr)
		}
		return nil
	}

	c.loads.Finish(baseAddr)

	if evt.msg != nil {
		block.WriteAt(0, evt.msg.Payload)
	}

	if !canFinishLoad(block.Status, info.Dir) {
		panicProtocol("handleFillArrived", baseAddr, "fill arrived for a block in an unexpected state")
	}

	block.Status = Shared
	block.Loading = false
	block.Unlock()
	c.listener.OnFill(baseAddr)

	for _, r := range info.Requesters {
		if r.Source == Snoop {
			continue // already served by the same bus transaction
		}
		c.dispatch(r.Msg, r.Source, r.LinkID)
	}

	if cb, ok := c.fetchCallbacks[baseAddr]; ok {
		delete(c.fetchCallbacks, baseAddr)
		cb()
	}

	c.drainRowWaiting(info.Row, baseAddr)
	return nil
}
