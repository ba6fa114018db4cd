// cmd/historian/main.go is an asynchronous sync worker that pops
// physical-input action records from the Redis sync queue and persists them
// to PostgreSQL, marking long-idle tables as abandoned.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"github.com/unomirror/server/internal/cache"
	"github.com/unomirror/server/internal/database"
)

// SyncHistorian encapsulates the Redis + DB logic for capturing physical
// actions and marking tables abandoned after an inactivity threshold.
type SyncHistorian struct {
	redisClient  *redis.Client
	batchSize    int
	flushDelay   time.Duration
	inactivity   time.Duration
	lastActivity sync.Map // map[uuid.UUID]time.Time per game

	batchMu  sync.Mutex
	batch    []cache.SyncActionRecord
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewSyncHistorian constructs the worker from environment variables or defaults.
func NewSyncHistorian() *SyncHistorian {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	flushMs := getEnvInt("HISTORIAN_FLUSH_MS", 500)
	inactivitySec := getEnvInt("GAME_INACTIVITY_TIMEOUT_SEC", 600)

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &SyncHistorian{
		redisClient: rdb,
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		inactivity:  time.Duration(inactivitySec) * time.Second,
		batch:       make([]cache.SyncActionRecord, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run starts the queue reader and the inactivity sweeper and blocks until
// the context is cancelled.
func (h *SyncHistorian) Run() {
	database.ConnectDB()

	go h.readRedisLoop()
	go h.inactivityLoop()

	log.Println("uno-sync-historian service started.")
	<-h.ctx.Done()
	h.flushBatchToDB()
	log.Println("uno-sync-historian shutting down.")
}

// readRedisLoop continuously BLPops action records off the sync queue.
func (h *SyncHistorian) readRedisLoop() {
	ticker := time.NewTicker(h.flushDelay)
	defer ticker.Stop()

	queueName := getEnv("SYNC_QUEUE_NAME", cache.DefaultQueueName)

	for {
		select {
		case <-h.ctx.Done():
			return

		case <-ticker.C:
			h.flushBatchToDB()

		default:
			// BLPop with a short timeout so context cancellation is handled.
			res, err := h.redisClient.BLPop(h.ctx, 3*time.Second, queueName).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				log.Printf("[ERROR] BLPop: %v\n", err)
				continue
			}
			if len(res) < 2 {
				continue
			}

			// res[0] is the queue name and res[1] the payload.
			var record cache.SyncActionRecord
			if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
				log.Printf("invalid sync action record: %v\n", err)
				continue
			}

			h.lastActivity.Store(record.GameID, time.Now())
			h.appendToBatch(record)
		}
	}
}

// appendToBatch adds a record and flushes when the threshold is reached.
func (h *SyncHistorian) appendToBatch(record cache.SyncActionRecord) {
	h.batchMu.Lock()
	flush := false
	h.batch = append(h.batch, record)
	if len(h.batch) >= h.batchSize {
		flush = true
	}
	h.batchMu.Unlock()
	if flush {
		h.flushBatchToDB()
	}
}

// flushBatchToDB persists the current batch in one transaction.
func (h *SyncHistorian) flushBatchToDB() {
	h.batchMu.Lock()
	if len(h.batch) == 0 {
		h.batchMu.Unlock()
		return
	}
	batchCopy := make([]cache.SyncActionRecord, len(h.batch))
	copy(batchCopy, h.batch)
	h.batch = h.batch[:0]
	h.batchMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.InsertSyncActions(ctx, batchCopy); err != nil {
		log.Printf("[ERROR] flushBatchToDB: %v\n", err)
	}
}

// inactivityLoop periodically marks tables with no recent physical input as
// abandoned.
func (h *SyncHistorian) inactivityLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()
			h.lastActivity.Range(func(key, val interface{}) bool {
				gameID, ok1 := key.(uuid.UUID)
				last, ok2 := val.(time.Time)
				if ok1 && ok2 && now.Sub(last) > h.inactivity {
					h.markGameAbandoned(gameID)
					h.lastActivity.Delete(gameID)
				}
				return true
			})
		}
	}
}

// markGameAbandoned flags a stale table in the database if it never finished.
func (h *SyncHistorian) markGameAbandoned(gameID uuid.UUID) {
	ctx := context.Background()
	err := pgx.BeginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE games
			SET status = 'abandoned', updated_at = NOW()
			WHERE id = $1 AND status IN ('waiting', 'active')
		`
		_, e := tx.Exec(ctx, q, gameID)
		return e
	})
	if err != nil {
		log.Printf("failed to mark game %v abandoned: %v", gameID, err)
	} else {
		log.Printf("Marked game %v as 'abandoned' due to inactivity.", gameID)
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func main() {
	h := NewSyncHistorian()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		h.cancelFn()
	}()

	h.Run()
}
