package domain

// CacheStats reports decision cache counters for one instance.
// All fields are best-effort snapshots and may be updated concurrently.
type CacheStats struct {
	Capacity  int    `json:"capacity"` // configured capacity (0 for disabled cache)
	Size      int    `json:"size"`     // current number of entries
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// InstanceStats is a point-in-time view of one named instance.
type InstanceStats struct {
	Name        string     `json:"name"`
	Capacity    uint64     `json:"capacity"`
	ErrorRate   float64    `json:"error_rate"`
	Generation  uint64     `json:"generation"`   // incremented on init and every reinit
	Ops         uint64     `json:"ops"`          // mutating operations processed
	UpdatedUnix int64      `json:"updated_unix"` // last publish time, seconds since epoch
	Decisions   CacheStats `json:"decisions"`
}
