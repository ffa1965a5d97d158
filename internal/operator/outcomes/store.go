// Package outcomes keeps recently processed task outcomes in memory.
package outcomes

import (
	"sort"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/trigg3rX/irs-avs/internal/operator/dispatcher"
)

// Store is a size and age bounded map from task index to outcome. Nothing
// survives a restart.
type Store struct {
	cache *ttlcache.Cache[uint32, dispatcher.TaskOutcome]
}

var _ dispatcher.OutcomeStore = (*Store)(nil)

func New(ttl time.Duration, capacity uint64) *Store {
	return &Store{
		cache: ttlcache.New(
			ttlcache.WithTTL[uint32, dispatcher.TaskOutcome](ttl),
			ttlcache.WithCapacity[uint32, dispatcher.TaskOutcome](capacity),
			ttlcache.WithDisableTouchOnHit[uint32, dispatcher.TaskOutcome](),
		),
	}
}

// Start runs expiry cleanup until Stop is called.
func (s *Store) Start() {
	go s.cache.Start()
}

func (s *Store) Stop() {
	s.cache.Stop()
}

func (s *Store) Seen(taskIndex uint32) bool {
	return s.cache.Has(taskIndex)
}

func (s *Store) Record(outcome dispatcher.TaskOutcome) {
	s.cache.Set(outcome.TaskIndex, outcome, ttlcache.DefaultTTL)
}

func (s *Store) Get(taskIndex uint32) (dispatcher.TaskOutcome, bool) {
	item := s.cache.Get(taskIndex)
	if item == nil {
		return dispatcher.TaskOutcome{}, false
	}
	return item.Value(), true
}

// List returns live outcomes ordered by task index.
func (s *Store) List() []dispatcher.TaskOutcome {
	items := s.cache.Items()
	list := make([]dispatcher.TaskOutcome, 0, len(items))
	for _, item := range items {
		if item.IsExpired() {
			continue
		}
		list = append(list, item.Value())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].TaskIndex < list[j].TaskIndex })
	return list
}

// Counts tallies live outcomes by status.
func (s *Store) Counts() map[dispatcher.Status]int {
	counts := make(map[dispatcher.Status]int)
	for _, o := range s.List() {
		counts[o.Status]++
	}
	return counts
}

func (s *Store) Len() int {
	return s.cache.Len()
}
