package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmfurniture/store_backend/config"
)

var mutex sync.Mutex

// sequenceMaxAttempts bounds the collision-retry loop in GetSequence.
const sequenceMaxAttempts = 100

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

// get type name of struct
func GetType(i interface{}) string {
	return reflect.TypeOf(i).Name()
}

/* Redis */

// check if model has expiration date
func typeHasExpiration(typeName string) bool {
	expirableTypes := map[string]bool{
		"Product": true,
	}
	return expirableTypes[typeName]
}

// store instance, obj should be a pointer
func StoreRedis[T any](obj any, id int) error {
	typeName := GetTypeName[T]()
	key := typeName + ":" + fmt.Sprint(id)

	var duration time.Duration
	if typeHasExpiration(typeName) {
		duration = GetCacheLifespan()
	}
	return config.SetRedisObject(key, &obj, duration)
}

// store object
func StoreRedisList[T any](obj any, storeId string) error {
	var key string
	typeName := GetTypeName[T]()
	if storeId == "" {
		key = typeName + "List"
	} else {
		key = typeName + "List:" + storeId
	}

	var duration time.Duration
	if typeHasExpiration(typeName) {
		duration = GetCacheLifespan()
	}
	return config.SetRedisObject(key, &obj, duration)
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id int) (*T, error) {
	var result *T
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// retrieve a list.
// storeId can be empty
func RetrieveRedisList[T any](storeId string) ([]*T, error) {
	var key string
	if storeId == "" {
		key = GetTypeName[T]() + "List"
	} else {
		key = GetTypeName[T]() + "List:" + storeId
	}

	var result []*T
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// clear list, TypeList:$store_id
func RemoveRedisList[T any](storeId string) error {
	var key string = GetTypeName[T]() + "List:" + storeId
	return config.RemoveRedisKey(key)
}

// remove an instance, Type:$id
func RemoveRedisItem[T any](id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.RemoveRedisKey(key)
}

// obtainSequenceLock serializes sequence allocation across processes sharing
// the same redis; falls back to the in-process mutex when redis is absent.
func obtainSequenceLock(ctx context.Context, key string) (func(), error) {
	locker := config.GetRedisLock()
	if locker == nil {
		mutex.Lock()
		return func() { mutex.Unlock() }, nil
	}
	lock, err := locker.Obtain(ctx, "lock:"+key, 10*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = lock.Release(ctx) }, nil
}

// GetSequence allocates the next per-store sequence number for T, using redis
// as the fast path and max(sequence_no) in db as the source of truth.
func GetSequence[T any](ctx context.Context, storeId string) (int64, error) {
	var model T
	cacheKey := storeId + "-" + strings.ToLower(GetTypeName[T]()) + "_seq"

	release, err := obtainSequenceLock(ctx, cacheKey)
	if err != nil {
		return 0, err
	}
	defer release()

	var seqNo int64
	var lastTried int64
	db := config.GetDB()

	for attempt := 0; ; attempt++ {
		if attempt >= sequenceMaxAttempts {
			return 0, fmt.Errorf("no free sequence_no for %s after %d attempts", cacheKey, sequenceMaxAttempts)
		}
		seqNo, err = config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return 0, err
		}
		// if not found in redis, get from db
		if seqNo <= 1 {
			// get max seq no from db
			var dbSeq *int64
			if err := db.WithContext(ctx).Model(&model).Select("max(sequence_no)").
				Where("store_id = ?", storeId).
				Scan(&dbSeq).Error; err != nil {
				return 0, err
			}
			if dbSeq == nil {
				seqNo = 0
			} else {
				seqNo = *dbSeq
			}
			seqNo++
			// without redis the recomputed max never moves past a colliding
			// row, so step over the last miss ourselves
			if seqNo <= lastTried {
				seqNo = lastTried + 1
			}
			if err := config.SetRedisObject(cacheKey, &seqNo, 0); err != nil {
				return 0, err
			}
		}
		// check if sequence number exists in db
		err = ValidateUnique[T](ctx, storeId, "sequence_no", seqNo, 0)
		if err == nil {
			break
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}
		lastTried = seqNo
	}
	return seqNo, nil
}
