package logging

// ProgressSampler thins byte-progress updates down to the ones worth a log
// line: one per percent bucket while the total is known, one per ByteStep
// bytes otherwise. It is not safe for concurrent use.
type ProgressSampler struct {
	bucket float64
	mark   int64
}

// ByteStep is the logging interval for transfers of unknown size.
const ByteStep int64 = 64 << 20

// NewProgressSampler returns a sampler emitting every bucketPercent percent
// (5 when bucketPercent is not positive).
func NewProgressSampler(bucketPercent float64) *ProgressSampler {
	if bucketPercent <= 0 {
		bucketPercent = 5
	}
	return &ProgressSampler{bucket: bucketPercent, mark: -1}
}

// ShouldLog reports whether done of total bytes crosses into a new bucket.
// A total of zero or less means the size is unknown.
func (s *ProgressSampler) ShouldLog(done, total int64) bool {
	if s == nil {
		return true
	}
	var mark int64
	if total > 0 {
		pct := float64(done) * 100 / float64(total)
		mark = int64(min(pct, 100) / s.bucket)
	} else {
		mark = done / ByteStep
	}
	if mark <= s.mark {
		return false
	}
	s.mark = mark
	return true
}

// Reset starts over, e.g. when a download restarts from zero.
func (s *ProgressSampler) Reset() {
	if s != nil {
		s.mark = -1
	}
}
