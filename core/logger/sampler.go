package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// sampler lets num out of every den events through. A zero ratio lets
// everything through.
type sampler struct {
	ratio atomic.Uint64 // num<<32 | den
	seq   atomic.Uint64
}

func (s *sampler) set(num, den int) {
	if num <= 0 || den <= 0 {
		s.ratio.Store(0)
		return
	}
	if num > den {
		num = den
	}
	s.ratio.Store(uint64(num)<<32 | uint64(den))
	s.seq.Store(0)
}

func (s *sampler) allow() bool {
	r := s.ratio.Load()
	if r == 0 {
		return true
	}
	num, den := r>>32, r&0xffffffff
	return (s.seq.Add(1)-1)%den < num
}

// parseRatio reads "n/d" or "d" (meaning 1/d). Invalid specs return 0, 0.
func parseRatio(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if n, d, ok := strings.Cut(spec, "/"); ok {
		num, err1 := strconv.Atoi(strings.TrimSpace(n))
		den, err2 := strconv.Atoi(strings.TrimSpace(d))
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return num, den
	}
	den, err := strconv.Atoi(spec)
	if err != nil || den <= 0 {
		return 0, 0
	}
	return 1, den
}
