package cache

import (
	"github.com/sarchlab/akita/v4/sim"
)

// Command identifies the operation a CacheMsg carries, per spec §6's event
// payload schema.
type Command int

// The command set a cache controller must dispatch on.
const (
	ReadReq Command = iota
	WriteReq
	RequestData
	SupplyData
	Invalidate
	ACK
	NACK
	Fetch
	FetchInvalidate
	BusClearToSend
)

func (c Command) String() string {
	switch c {
	case ReadReq:
		return "ReadReq"
	case WriteReq:
		return "WriteReq"
	case RequestData:
		return "RequestData"
	case SupplyData:
		return "SupplyData"
	case Invalidate:
		return "Invalidate"
	case ACK:
		return "ACK"
	case NACK:
		return "NACK"
	case Fetch:
		return "Fetch"
	case FetchInvalidate:
		return "FetchInvalidate"
	case BusClearToSend:
		return "BusClearToSend"
	default:
		return "Unknown"
	}
}

// Flags is a bitmask carried on a CacheMsg.
type Flags uint8

// The three flags the spec's event schema defines.
const (
	FlagWriteback Flags = 1 << iota
	FlagLocked
	FlagDelayed
)

// Has reports whether f contains all bits in mask.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// LinkKind identifies which of the five logical link surfaces an event
// arrived on or should be sent over (spec §4.2, §6).
type LinkKind int

// The five logical link surfaces plus the virtual Self source used for
// deferred re-entry.
const (
	Upstream LinkKind = iota
	Downstream
	Snoop
	DirectoryLink
	Prefetcher
	Self
)

func (k LinkKind) String() string {
	switch k {
	case Upstream:
		return "Upstream"
	case Downstream:
		return "Downstream"
	case Snoop:
		return "Snoop"
	case DirectoryLink:
		return "Directory"
	case Prefetcher:
		return "Prefetcher"
	case Self:
		return "Self"
	default:
		return "Unknown"
	}
}

// Direction is the load/fetch direction used by LoadInfo and by invalidate
// broadcasts.
type Direction int

// Down targets the next lower level; Up targets upstream requesters; Both
// targets every egress an invalidate can use.
const (
	Down Direction = iota
	Up
	Both
)

// CacheMsg is the single message structure that carries every command the
// controller exchanges across its links, matching spec §6's abstract event
// payload schema.
type CacheMsg struct {
	sim.MsgMeta

	RspTo string // response_to: the ID of the request this replies to

	Cmd      Command
	Addr     uint64
	BaseAddr uint64
	Size     int
	Flags    Flags
	Payload  []byte
	LinkID   int

	// UpstreamLinkIdx records which upstream link (0..N) this request
	// arrived on or should be forwarded to, for caches with more than one
	// upstream.
	UpstreamLinkIdx int
}

// Meta returns the message metadata.
func (m *CacheMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns a shallow-payload copy of the message with a fresh ID.
func (m *CacheMsg) Clone() sim.Msg {
	clone := *m
	clone.ID = sim.GetIDGenerator().Generate()
	return &clone
}

// GetRspTo returns the ID of the request this message answers, satisfying
// the tracing/response-matching convention used across the pack's mem
// protocols (see mem/mem/protocol.go's Rsp interface).
func (m *CacheMsg) GetRspTo() string {
	return m.RspTo
}

// CacheMsgBuilder is a fluent builder for CacheMsg, in the idiom of
// mem/mem's ReadReqBuilder/WriteReqBuilder.
type CacheMsgBuilder struct {
	src, dst sim.RemotePort
	cmd      Command
	rspTo    string
	addr     uint64
	baseAddr uint64
	size     int
	flags    Flags
	payload  []byte
	linkID   int
	upLink   int
}

// WithSrc sets the source port of the message to build.
func (b CacheMsgBuilder) WithSrc(src sim.RemotePort) CacheMsgBuilder {
	b.src = src
	return b
}

// WithDst sets the destination port of the message to build.
func (b CacheMsgBuilder) WithDst(dst sim.RemotePort) CacheMsgBuilder {
	b.dst = dst
	return b
}

// WithCmd sets the command of the message to build.
func (b CacheMsgBuilder) WithCmd(cmd Command) CacheMsgBuilder {
	b.cmd = cmd
	return b
}

// WithRspTo marks the message to build as a response to id.
func (b CacheMsgBuilder) WithRspTo(id string) CacheMsgBuilder {
	b.rspTo = id
	return b
}

// WithAddr sets the byte address of the message to build.
func (b CacheMsgBuilder) WithAddr(addr uint64) CacheMsgBuilder {
	b.addr = addr
	return b
}

// WithBaseAddr sets the block-aligned address of the message to build.
func (b CacheMsgBuilder) WithBaseAddr(addr uint64) CacheMsgBuilder {
	b.baseAddr = addr
	return b
}

// WithSize sets the access size, in bytes, of the message to build.
func (b CacheMsgBuilder) WithSize(size int) CacheMsgBuilder {
	b.size = size
	return b
}

// WithFlags sets the flags of the message to build.
func (b CacheMsgBuilder) WithFlags(flags Flags) CacheMsgBuilder {
	b.flags = flags
	return b
}

// WithPayload sets the data payload of the message to build.
func (b CacheMsgBuilder) WithPayload(payload []byte) CacheMsgBuilder {
	b.payload = payload
	return b
}

// WithLinkID sets the link_id of the message to build.
func (b CacheMsgBuilder) WithLinkID(id int) CacheMsgBuilder {
	b.linkID = id
	return b
}

// WithUpstreamLinkIdx records which upstream link the message to build is
// tied to.
func (b CacheMsgBuilder) WithUpstreamLinkIdx(idx int) CacheMsgBuilder {
	b.upLink = idx
	return b
}

// Build creates the CacheMsg.
func (b CacheMsgBuilder) Build() *CacheMsg {
	m := &CacheMsg{}
	m.ID = sim.GetIDGenerator().Generate()
	m.Src = b.src
	m.Dst = b.dst
	m.Cmd = b.cmd
	m.RspTo = b.rspTo
	m.Addr = b.addr
	m.BaseAddr = b.baseAddr
	m.Size = b.size
	m.Flags = b.flags
	m.Payload = b.payload
	m.LinkID = b.linkID
	m.UpstreamLinkIdx = b.upLink
	return m
}
