package compressor

import "time"

// Stats is a point-in-time snapshot of worker counters.
type Stats struct {
	ID       string
	State    State
	QueueLen int
	QueueCap int

	Enqueued   uint64 // Frames accepted by PutData/TryPutData
	Compressed uint64 // Frames the compressor accepted
	Failed     uint64 // Frames rejected by validation or the compressor
	Dropped    uint64 // Frames discarded by a forced stop

	LastFrameCost time.Duration
	TotalCost     time.Duration
}

// AverageCost returns the mean compression time per compressed frame.
func (s Stats) AverageCost() time.Duration {
	if s.Compressed == 0 {
		return 0
	}
	return s.TotalCost / time.Duration(s.Compressed)
}

// StopResult describes how a Stop call ended.
type StopResult struct {
	Drained   bool // The consumer finished all queued work before the timeout
	Forced    bool // The timeout elapsed and the worker was cancelled
	Abandoned bool // The consumer did not exit within the force grace period
	Dropped   int  // Frames discarded without compression
	Elapsed   time.Duration
}
