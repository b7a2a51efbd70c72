package amqp

import "sync/atomic"

// Stats counts connection traffic. The connection updates it from its own
// goroutine; Snapshot may be called from any goroutine.
type Stats struct {
	framesIn           atomic.Uint64
	framesOut          atomic.Uint64
	bytesIn            atomic.Uint64
	bytesOut           atomic.Uint64
	heartbeatsSent     atomic.Uint64
	heartbeatsReceived atomic.Uint64
	framesQueued       atomic.Uint64
	pendingFrames      atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	FramesIn           uint64
	FramesOut          uint64
	BytesIn            uint64
	BytesOut           uint64
	HeartbeatsSent     uint64
	HeartbeatsReceived uint64
	// FramesQueued counts frames ever put on the pending queue.
	FramesQueued uint64
	// PendingFrames is the current length of the pending queue.
	PendingFrames int64
}

// Snapshot reads every counter once. The values are not taken atomically
// as a group.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		FramesIn:           s.framesIn.Load(),
		FramesOut:          s.framesOut.Load(),
		BytesIn:            s.bytesIn.Load(),
		BytesOut:           s.bytesOut.Load(),
		HeartbeatsSent:     s.heartbeatsSent.Load(),
		HeartbeatsReceived: s.heartbeatsReceived.Load(),
		FramesQueued:       s.framesQueued.Load(),
		PendingFrames:      s.pendingFrames.Load(),
	}
}
