// Package cmap provides a sharded concurrent map.
//
// Each shard has its own RWMutex, so goroutines working on different keys
// rarely contend. Count and DeleteIf lock one shard at a time and therefore
// do not see a consistent snapshot of the whole map.
//
//	m := cmap.New[string, *rate.Limiter]()
//	lim, _ := m.GetOrCreate(ip, newLimiter)
package cmap
