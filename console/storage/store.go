package storage

import (
	"errors"

	"github.com/go-redis/redis/v8"
	"github.com/slievrly/seata/common"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no record matches
var ErrNotFound = errors.New("storage: NotFound")

// Store keeps the audit log of control actions
type Store interface {
	PopulateData(skipDrop bool)
	SaveActionRecord(rec *ActionRecord) error
	ListActionRecords(xid string, limit int) ([]ActionRecord, error)
	LastActionRecord(xid string) (*ActionRecord, error)
}

// GetStore returns the store selected by the Store.driver config, nil when auditing is disabled
func GetStore() Store {
	switch config.Store["driver"] {
	case common.StoreDriverNone:
		return nil
	case common.StoreDriverRedis:
		return &RedisStore{}
	case common.StoreDriverMysql, common.StoreDriverPostgres:
		return &SqlStore{}
	}
	return memStore
}

func wrapError(err error) error {
	if err == gorm.ErrRecordNotFound || err == redis.Nil {
		return ErrNotFound
	}
	return err
}
