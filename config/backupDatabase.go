package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// BackupDatabase runs pg_dump inside the database container and writes the
// dump to BACKUP_DIR. Called from the weekly cron job.
func BackupDatabase() error {
	password := GetEnv("POSTGRES_PASSWORD")
	container := GetEnvOrDefault("DB_CONTAINER", "backend-db_ledger-1")
	cmd := fmt.Sprintf("PGPASSWORD=%s docker exec -i %s pg_dump -U %s %s",
		password, container, GetEnv("POSTGRES_USER"), GetEnv("POSTGRES_DB"))

	output, err := exec.Command("bash", "-c", cmd).CombinedOutput()
	if err != nil {
		Logger.Error("Database backup failed",
			zap.Error(err),
			zap.ByteString("output", output),
		)
		return err
	}

	backupDir := GetEnvOrDefault("BACKUP_DIR", ".")
	if err := os.MkdirAll(backupDir, os.ModePerm); err != nil {
		return err
	}

	fileName := filepath.Join(backupDir, fmt.Sprintf("db_backup_%s.sql", time.Now().Format("2006-01-02_15-04-05")))
	if err := os.WriteFile(fileName, output, 0644); err != nil {
		Logger.Error("Failed to write database backup", zap.Error(err))
		return err
	}

	Logger.Info("Database backup written", zap.String("file", fileName))
	return nil
}
