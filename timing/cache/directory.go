package cache

import (
	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"
)

// Peer is one directory-tracked sibling or lower-level cache that
// directory traffic (Fetch, FetchInvalidate) can be targeted at, per
// spec §4.9.
type Peer struct {
	// ID uniquely identifies this peer in trace and diagnostic output. It
	// is assigned automatically by SetPeers when left blank.
	ID   string
	Name string
	Port sim.RemotePort

	// LowAddress and HighAddress bound the interval this peer is
	// responsible for. A zero HighAddress means unbounded.
	LowAddress  uint64
	HighAddress uint64

	// InterleavingSize and InterleavingStep, when InterleavingSize is
	// non-zero, restrict this peer to the addresses within its interval
	// whose offset from LowAddress lands in the interleaved stripe: the
	// peer matches addr only if (addr-LowAddress) mod InterleavingStep is
	// strictly less than InterleavingSize.
	InterleavingSize uint64
	InterleavingStep uint64
}

func (p Peer) contains(addr uint64) bool {
	if p.HighAddress == 0 {
		return addr >= p.LowAddress
	}
	return addr >= p.LowAddress && addr < p.HighAddress
}

// matches reports whether p is responsible for addr: addr must fall in
// p's interval and, if p is interleaved, land within its stripe of the
// interleave period.
func (p Peer) matches(addr uint64) bool {
	if !p.contains(addr) {
		return false
	}
	if p.InterleavingSize == 0 {
		return true
	}
	return (addr-p.LowAddress)%p.InterleavingStep < p.InterleavingSize
}

// Directory resolves which peer owns a given address, per spec §4.9's
// "interval and interleave" targeting rule.
type Directory struct {
	peers []Peer
}

// NewDirectory returns a Directory with no peers configured.
func NewDirectory() *Directory {
	return &Directory{}
}

// SetPeers replaces the directory's peer snapshot (spec's SUPPLEMENTED
// FEATURES: Comp.SetDirectoryPeers). A peer left with a blank ID is
// assigned a fresh one.
func (d *Directory) SetPeers(peers []Peer) {
	for i := range peers {
		if peers[i].ID == "" {
			peers[i].ID = xid.New().String()
		}
	}
	d.peers = peers
}

// Peers returns the directory's current peer snapshot.
func (d *Directory) Peers() []Peer {
	return d.peers
}

// Target scans the peer list in order and returns the first peer whose
// interval contains addr and, if interleaved, whose stripe matches. A peer
// whose interval contains addr but whose stripe does not is skipped rather
// than rejected outright, so a later peer covering the same interval can
// still match (spec §4.9).
func (d *Directory) Target(addr uint64) (Peer, bool) {
	for _, p := range d.peers {
		if p.matches(addr) {
			return p, true
		}
	}
	return Peer{}, false
}

// Broadcast returns every configured peer, for invalidation fan-out
// (spec §4.5).
func (d *Directory) Broadcast() []Peer {
	return d.peers
}
