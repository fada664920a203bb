package cache

import "github.com/sarchlab/akita/v4/sim"

// issueWriteback propagates a Dirty block's payload toward the next
// level, idempotent per the block's WBInProgress flag (spec §4.8). The
// block is locked for the duration and settles to Invalid, ready for
// reuse, once the simulated transfer completes.
func (c *Comp) issueWriteback(rowIdx, col int) {
	row := c.rows[rowIdx]
	block := &row.Blocks[col]

	if block.WBInProgress {
		return
	}
	block.WBInProgress = true
	block.Lock()

	evt := c.scheduleSelf(selfWritebackSent, c.config.AccessTime)
	evt.row = rowIdx
	evt.col = col
	evt.addr = block.BaseAddr

	if c.snoop != nil {
		c.requestBus(func() {
			c.sendWritebackOn(c.snoop.Port, c.snoop.Remote, block)
		}, nil)
	}
	if c.downstream != nil {
		c.sendWritebackOn(c.downstream.Port, c.downstream.Remote, block)
	}
	if c.directoryLk != nil {
		if peer, ok := c.directory.Target(block.BaseAddr); ok {
			c.sendWritebackOn(c.directoryLk.Port, peer.Port, block)
		}
	}
}

// sendWritebackOn sends block's payload as a Writeback-flagged SupplyData
// over port, which carries no response.
func (c *Comp) sendWritebackOn(port sim.Port, dst sim.RemotePort, block *Block) {
	msg := CacheMsgBuilder{}.
		WithSrc(port.AsRemote()).
		WithDst(dst).
		WithCmd(SupplyData).
		WithBaseAddr(block.BaseAddr).
		WithSize(c.config.BlockSize).
		WithFlags(FlagWriteback).
		WithPayload(block.ReadAt(0, c.config.BlockSize)).
		Build()
	c.send(port, msg)
}

// handleWritebackReceived applies a Writeback-flagged SupplyData arriving
// from an upstream holder into a block we still track (spec §4.4's Dirty
// row, "Writeback received from above").
func (c *Comp) handleWritebackReceived(msg *CacheMsg, source LinkKind, linkID int) {
	baseAddr := msg.BaseAddr
	tag, rowIdx := c.layout.decompose(baseAddr)
	row := c.rows[rowIdx]
	col := row.FindBlock(tag)
	if col < 0 {
		logPeerRace("handleWritebackReceived", baseAddr, "writeback for a block we no longer hold")
		return
	}

	block := &row.Blocks[col]
	block.WriteAt(0, msg.Payload)
	block.Status = Dirty
}

// handleWritebackSent fires once a writeback's simulated transfer time has
// elapsed: the block settles to Invalid and unlocks, letting anything
// parked behind it (an eviction retry, an invalidate awaiting the
// writeback) replay.
func (c *Comp) handleWritebackSent(evt *selfEvent) error {
	row := c.rows[evt.row]
	block := &row.Blocks[evt.col]

	block.WBInProgress = false
	block.Status = Invalid
	block.Loading = false
	block.Unlock()

	c.drainRowWaiting(evt.row, evt.addr)
	return nil
}
