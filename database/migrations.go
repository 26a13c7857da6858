package database

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"inverpulse/logging"
	"inverpulse/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table the service owns, in creation order.
func Models() []interface{} {
	return []interface{}{
		&models.Admin{},
		&models.User{},
		&models.RefreshToken{},
		&models.Investor{},
		&models.Deposit{},
		&models.TradingSignal{},
	}
}

// BackupDatabase writes a mysqldump of the configured database to outPath.
// Extra flags come from DB_BACKUP_FLAGS.
func BackupDatabase(ctx context.Context, outPath string) error {
	if _, err := exec.LookPath("mysqldump"); err != nil {
		return fmt.Errorf("mysqldump not found in PATH: %w", err)
	}

	args := strings.Fields(os.Getenv("DB_BACKUP_FLAGS"))
	args = append(args, getenv("DB_NAME", "inverpulse"))
	cmd := exec.CommandContext(ctx, "mysqldump", args...)
	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()
	cmd.Stdout = outFile
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mysqldump failed: %w", err)
	}
	return nil
}

// RunMigrations auto-migrates Models. When DB_BACKUP_PATH is set a dump is
// taken first and a failed dump aborts the migration.
func RunMigrations(db *gorm.DB) error {
	log := logging.Named("database")
	if backupPath := os.Getenv("DB_BACKUP_PATH"); backupPath != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := BackupDatabase(ctx, backupPath); err != nil {
			return fmt.Errorf("pre-migration backup: %w", err)
		}
		log.Info("pre-migration backup written", zap.String("path", backupPath))
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Info("auto-migration completed")
	return nil
}
