package storage

import (
	"github.com/slievrly/seata/common"
	"gorm.io/gorm"
)

// SqlStore keeps the audit log in mysql or postgres
type SqlStore struct {
}

// PopulateData creates the audit table, dropping it first unless skipDrop
func (s *SqlStore) PopulateData(skipDrop bool) {
	m := dbGet().Migrator()
	if !skipDrop && m.HasTable(&ActionRecord{}) {
		common.E2P(m.DropTable(&ActionRecord{}))
	}
	common.E2P(dbGet().AutoMigrate(&ActionRecord{}))
}

// SaveActionRecord inserts rec
func (s *SqlStore) SaveActionRecord(rec *ActionRecord) (rerr error) {
	defer common.P2E(&rerr)
	return dbGet().Transaction(func(tx *gorm.DB) error {
		dbr := tx.Create(rec)
		if dbr.Error != nil {
			return dbr.Error
		}
		checkAffected(dbr)
		return nil
	})
}

// ListActionRecords returns the newest records of xid first, all xids if xid is empty
func (s *SqlStore) ListActionRecords(xid string, limit int) (recs []ActionRecord, rerr error) {
	defer common.P2E(&rerr)
	recs = []ActionRecord{}
	q := dbGet().Model(&ActionRecord{}).Order("id desc")
	if xid != "" {
		q = q.Where("xid=?", xid)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	dbr := q.Find(&recs)
	return recs, wrapError(dbr.Error)
}

// LastActionRecord returns the newest record of xid
func (s *SqlStore) LastActionRecord(xid string) (rec *ActionRecord, rerr error) {
	defer common.P2E(&rerr)
	rec = &ActionRecord{}
	dbr := dbGet().Model(rec).Where("xid=?", xid).Order("id desc").First(rec)
	if dbr.Error != nil {
		return nil, wrapError(dbr.Error)
	}
	return rec, nil
}
