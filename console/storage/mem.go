package storage

import (
	"sync"
	"time"
)

var memStore = &MemStore{}

// MemStore keeps the audit log in process memory
type MemStore struct {
	mu      sync.Mutex
	lastID  uint64
	records []ActionRecord
}

// PopulateData clears the records
func (s *MemStore) PopulateData(skipDrop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !skipDrop {
		s.records = nil
	}
}

// SaveActionRecord appends rec, assigning its id and times
func (s *MemStore) SaveActionRecord(rec *ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastID++
	rec.ID = s.lastID
	rec.CreateTime = &now
	rec.UpdateTime = &now
	s.records = append(s.records, *rec)
	return nil
}

// ListActionRecords returns the newest records of xid first, all xids if xid is empty
func (s *MemStore) ListActionRecords(xid string, limit int) ([]ActionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := []ActionRecord{}
	for i := len(s.records) - 1; i >= 0; i-- {
		if limit > 0 && len(recs) >= limit {
			break
		}
		if xid == "" || s.records[i].Xid == xid {
			recs = append(recs, s.records[i])
		}
	}
	return recs, nil
}

// LastActionRecord returns the newest record of xid
func (s *MemStore) LastActionRecord(xid string) (*ActionRecord, error) {
	recs, _ := s.ListActionRecords(xid, 1)
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return &recs[0], nil
}
