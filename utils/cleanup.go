package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"delivery-ledger-backend/config"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Retry configuration
const maxRetries = 3
const retryDelay = 2 * time.Minute

// NightlySweeper enqueues the nightly recompute sweep; the jobs package
// implements it.
type NightlySweeper interface {
	EnqueueNightlySweep() error
}

// CleanupExpiredFiles removes a file once it is older than the TTL
func CleanupExpiredFiles(filePath string, ttl time.Duration) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("error checking file: %v", err)
	}

	if time.Since(info.ModTime()) > ttl {
		if err := os.Remove(filePath); err != nil {
			return fmt.Errorf("error deleting expired file: %v", err)
		}
		config.Logger.Info("Expired file deleted", zap.String("path", filePath))
	}
	return nil
}

// CleanupExpiredCache drops the cached import-progress keys. They only matter
// while a batch is running; a day-old key is stale by definition.
func CleanupExpiredCache(redisClient *redis.Client) error {
	ctx := context.Background()
	iter := redisClient.Scan(ctx, 0, "import:progress:*", 100).Iterator()
	var deleted int
	for iter.Next(ctx) {
		if err := redisClient.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("error deleting cache key from Redis: %v", err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning Redis keys: %v", err)
	}
	if deleted > 0 {
		config.Logger.Info("Stale progress keys deleted", zap.Int("count", deleted))
	}
	return nil
}

// CleanupAllExpired removes expired generated reports and stored workbooks,
// then clears stale Redis keys.
func CleanupAllExpired(fileTTL time.Duration, redisClient *redis.Client) error {
	for _, dir := range []string{"./public/files", "./uploads"} {
		files, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("error reading %s directory: %v", dir, err)
		}

		for _, file := range files {
			if file.IsDir() {
				continue
			}
			if err := CleanupExpiredFiles(filepath.Join(dir, file.Name()), fileTTL); err != nil {
				config.Logger.Warn("Error cleaning up file", zap.Error(err))
			}
		}
	}

	if err := CleanupExpiredCache(redisClient); err != nil {
		return fmt.Errorf("error cleaning up cache: %v", err)
	}
	return nil
}

// RunScheduledCleanup runs cleanup daily at 1 AM with retries, and kicks off
// the nightly recompute sweep right after a successful cleanup.
func RunScheduledCleanup(redisClient *redis.Client, sweeper NightlySweeper) {
	c := cron.New()

	c.AddFunc("0 1 * * *", func() {
		config.Logger.Info("Running scheduled cleanup task")

		var retries int
		var cleanupSuccess bool

		for retries < maxRetries {
			err := CleanupAllExpired(24*time.Hour, redisClient)
			if err == nil {
				cleanupSuccess = true
				break
			}
			config.Logger.Warn("Cleanup attempt failed",
				zap.Int("attempt", retries+1),
				zap.Error(err),
			)
			retries++
			time.Sleep(retryDelay)
		}

		if !cleanupSuccess {
			config.Logger.Error("Cleanup task failed after retries", zap.Int("retries", retries))
			SendEmail(
				os.Getenv("ADMIN_EMAIL"),
				"The scheduled cleanup task failed after multiple attempts.",
				"Cleanup Task Failed",
				"",
			)
			return
		}

		if sweeper != nil {
			if err := sweeper.EnqueueNightlySweep(); err != nil {
				config.Logger.Error("Failed to enqueue nightly recompute sweep", zap.Error(err))
			}
		}
	})

	// Weekly database dump, Sunday 2 AM
	c.AddFunc("0 2 * * 0", func() {
		if err := config.BackupDatabase(); err != nil {
			config.Logger.Error("Scheduled database backup failed", zap.Error(err))
		}
	})

	c.Start()

	// Keep the goroutine alive so the cron jobs execute
	select {}
}
