package storage

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/slievrly/seata/common"
)

const prefix = "txc"

var ctx context.Context = context.Background()

// RedisStore keeps the audit log in redis: one list per xid and one list of all records
type RedisStore struct {
}

func xidKey(xid string) string {
	if xid == "" {
		return prefix + "_all"
	}
	return prefix + "_x_" + xid
}

// PopulateData removes every audit key
func (s *RedisStore) PopulateData(skipDrop bool) {
	if skipDrop {
		return
	}
	iter := redisGet().Scan(ctx, 0, prefix+"_*", 100).Iterator()
	for iter.Next(ctx) {
		common.E2P(redisGet().Del(ctx, iter.Val()).Err())
	}
	common.E2P(iter.Err())
}

// SaveActionRecord appends rec to its xid list and to the list of all records
func (s *RedisStore) SaveActionRecord(rec *ActionRecord) error {
	id, err := redisGet().Incr(ctx, prefix+"_id").Result()
	if err != nil {
		return err
	}
	now := time.Now()
	rec.ID = uint64(id)
	rec.CreateTime = &now
	rec.UpdateTime = &now
	js := common.MustMarshalString(rec)
	common.Debugf("save action record %d for %s to redis", id, rec.Xid)
	_, err = redisGet().TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, k := range []string{xidKey(rec.Xid), xidKey("")} {
			p.LPush(ctx, k, js)
			p.LTrim(ctx, k, 0, maxRecordsPerXid-1)
		}
		return nil
	})
	return err
}

// ListActionRecords returns the newest records of xid first, all xids if xid is empty
func (s *RedisStore) ListActionRecords(xid string, limit int) (recs []ActionRecord, rerr error) {
	defer common.P2E(&rerr)
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	sa, err := redisGet().LRange(ctx, xidKey(xid), 0, stop).Result()
	if err != nil {
		return nil, wrapError(err)
	}
	recs = make([]ActionRecord, len(sa))
	for k, v := range sa {
		common.MustUnmarshalString(v, &recs[k])
	}
	return recs, nil
}

// LastActionRecord returns the newest record of xid
func (s *RedisStore) LastActionRecord(xid string) (rec *ActionRecord, rerr error) {
	defer common.P2E(&rerr)
	r, err := redisGet().LIndex(ctx, xidKey(xid), 0).Result()
	if err != nil {
		return nil, wrapError(err)
	}
	rec = &ActionRecord{}
	common.MustUnmarshalString(r, rec)
	return rec, nil
}

func (s *RedisStore) String() string {
	return "redis://" + config.Store["host"] + ":" + common.OrString(config.Store["port"], "6379")
}
