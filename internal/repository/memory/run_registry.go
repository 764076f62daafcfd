package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// RunRegistry tracks sessions with an execution currently in flight in this
// process. It guards against double execution when a run message is
// redelivered while the previous attempt is still working. Entries expire so
// a crashed goroutine cannot wedge a session forever.
type RunRegistry struct {
	cache *cache.Cache
}

func NewRunRegistry() *RunRegistry {
	// Expiration well above any stage timeout; purge sweep every 5 minutes.
	c := cache.New(30*time.Minute, 5*time.Minute)
	return &RunRegistry{
		cache: c,
	}
}

// TryAcquire returns false if the session already has an in-flight
// execution.
func (r *RunRegistry) TryAcquire(sessionId string) bool {
	err := r.cache.Add(sessionId, struct{}{}, cache.DefaultExpiration)
	return err == nil
}

func (r *RunRegistry) Release(sessionId string) {
	r.cache.Delete(sessionId)
}
