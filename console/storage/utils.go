package storage

import (
	"fmt"
	"net"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/go-sql-driver/mysql"
	"github.com/slievrly/seata/common"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var config = &common.Config

// maximum records kept per xid by the redis store
const maxRecordsPerXid = 200

var db *gorm.DB
var dbMu sync.Mutex

func dsn(conf map[string]string) string {
	if conf["driver"] == common.StoreDriverPostgres {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			conf["host"], conf["user"], conf["password"], common.OrString(conf["db"], "txconsole"), common.OrString(conf["port"], "5432"))
	}
	mc := mysql.NewConfig()
	mc.User = conf["user"]
	mc.Passwd = conf["password"]
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(conf["host"], common.OrString(conf["port"], "3306"))
	mc.DBName = common.OrString(conf["db"], "txconsole")
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// dbGet opens the audit database on first use. A failed open panics and is retried by the next call.
func dbGet() *gorm.DB {
	dbMu.Lock()
	defer dbMu.Unlock()
	if db != nil {
		return db
	}
	var dialector gorm.Dialector
	if config.Store["driver"] == common.StoreDriverPostgres {
		dialector = postgres.Open(dsn(config.Store))
	} else {
		dialector = gormmysql.Open(dsn(config.Store))
	}
	db1, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	common.E2P(err)
	db = db1
	return db
}

func checkAffected(db1 *gorm.DB) {
	common.PanicIf(db1.RowsAffected == 0, fmt.Errorf("rows affected 0, please check the audit store"))
}

var rdb *redis.Client
var once sync.Once

func redisGet() *redis.Client {
	once.Do(func() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", config.Store["host"], common.OrString(config.Store["port"], "6379")),
			Password: config.Store["password"],
		})
	})
	return rdb
}
