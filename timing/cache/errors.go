package cache

import (
	"fmt"
	"log"
)

// ProtocolError reports a protocol violation: a bug in the surrounding
// coherence design rather than a runtime condition (spec §7). Handlers
// that detect one must abort the simulation with context, never attempt
// partial repair.
type ProtocolError struct {
	Op      string
	Addr    uint64
	Reason  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("cache: protocol violation in %s at 0x%x: %s", e.Op, e.Addr, e.Reason)
}

// panicProtocol logs the violation with context and aborts, matching the
// "fflush logs before aborting" requirement.
func panicProtocol(op string, addr uint64, reason string) {
	err := &ProtocolError{Op: op, Addr: addr, Reason: reason}
	log.Panic(err)
}

// TransientConflict reports a condition that is resolved locally by
// rescheduling a self-event, never surfaced as an error to a caller (spec
// §7, "Transient coherence conflicts").
type TransientConflict struct {
	Op     string
	Addr   uint64
	Reason string
}

func (e *TransientConflict) Error() string {
	return fmt.Sprintf("cache: transient conflict in %s at 0x%x: %s", e.Op, e.Addr, e.Reason)
}

// logPeerRace records a race with a peer that is handled by discarding the
// message and trusting the peer to reissue (spec §7, "Races with peers").
func logPeerRace(op string, addr uint64, reason string) {
	log.Printf("cache: discarding %s at 0x%x: %s", op, addr, reason)
}
