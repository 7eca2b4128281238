package devbackend

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// recordStore keeps records in creation order so listings are stable between pages.
type recordStore[R any] struct {
	lock    *sync.RWMutex
	nextID  int64
	records *orderedmap.OrderedMap[int64, R]
}

func newRecordStore[R any]() *recordStore[R] {
	return &recordStore[R]{
		lock:    &sync.RWMutex{},
		nextID:  1,
		records: orderedmap.New[int64, R](),
	}
}

// create stores the record built by build with the next free ID.
func (s *recordStore[R]) create(build func(id int64) R) R {
	s.lock.Lock()
	defer s.lock.Unlock()
	id := s.nextID
	s.nextID++
	record := build(id)
	s.records.Set(id, record)
	return record
}

func (s *recordStore[R]) get(id int64) (R, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.records.Get(id)
}

// update applies change to the stored record and saves the result.
func (s *recordStore[R]) update(id int64, change func(R) R) (R, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	record, found := s.records.Get(id)
	if !found {
		return record, false
	}
	record = change(record)
	s.records.Set(id, record)
	return record, true
}

func (s *recordStore[R]) delete(id int64) (R, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.records.Delete(id)
}

// page returns the records of the 1-based page and the total number of records.
func (s *recordStore[R]) page(page, limit int) ([]R, int) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	total := s.records.Len()
	output := []R{}
	skip := (page - 1) * limit
	index := 0
	for pair := s.records.Oldest(); pair != nil && len(output) < limit; pair = pair.Next() {
		if index >= skip {
			output = append(output, pair.Value)
		}
		index++
	}
	return output, total
}
