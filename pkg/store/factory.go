package store

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// New picks a backend by driver name. The redis and postgres drivers need
// their client to be non-nil.
func New(driver, keyPrefix string, rdb *redis.Client, db *gorm.DB) (Store, error) {
	switch driver {
	case DriverRedis:
		if rdb == nil {
			return nil, fmt.Errorf("store driver %q: redis client not configured", driver)
		}
		return NewRedisStore(rdb, keyPrefix), nil
	case DriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("store driver %q: database not configured", driver)
		}
		return NewGormStore(db), nil
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
