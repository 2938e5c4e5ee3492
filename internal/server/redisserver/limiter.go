package redisserver

import (
	"golang.org/x/time/rate"

	"github.com/yndnr/redikv/pkg/cmap"
)

// pruneThreshold is the number of tracked IPs above which idle limiters
// are dropped.
const pruneThreshold = 10_000

// ipLimiter holds one token bucket per client IP.
type ipLimiter struct {
	limiters *cmap.Map[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func newIPLimiter(perSecond int) *ipLimiter {
	return &ipLimiter{
		limiters: cmap.New[string, *rate.Limiter](),
		limit:    rate.Limit(perSecond),
		burst:    perSecond,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	lim, existed := l.limiters.GetOrCreate(ip, func() *rate.Limiter {
		return rate.NewLimiter(l.limit, l.burst)
	})
	if !existed && l.limiters.Count() > pruneThreshold {
		l.prune(ip)
	}
	return lim.Allow()
}

// prune drops limiters whose bucket has refilled, i.e. IPs that have been
// quiet long enough to start from scratch anyway. keep is never dropped.
func (l *ipLimiter) prune(keep string) int {
	return l.limiters.DeleteIf(func(ip string, lim *rate.Limiter) bool {
		return ip != keep && lim.Tokens() >= float64(l.burst)
	})
}

func (l *ipLimiter) size() int {
	return l.limiters.Count()
}
