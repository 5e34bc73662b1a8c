package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/technofair/registration-backend/internal/config"
	"github.com/technofair/registration-backend/internal/database"
	"github.com/technofair/registration-backend/internal/services"
)

// Removes expired attempt records, dead refresh tokens, delivered outbox
// events, and old audit logs. Intended to run from a scheduler once a day.
func main() {
	var dbURLFlag string
	var auditRetentionDays int
	var outboxRetentionDays int
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.IntVar(&auditRetentionDays, "audit-retention-days", 90, "Delete audit logs older than this many days")
	flag.IntVar(&outboxRetentionDays, "outbox-retention-days", 30, "Delete sent outbox events older than this many days")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	// Build minimal database config without loading full app config
	dbCfg := config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("Connected to database. Running cleanup...")

	rateLimitService := services.NewRateLimitService(db, services.DefaultAttemptLimitConfig())
	auditService := services.NewAuditService(db)
	refreshTokenRepo := database.NewRefreshTokenRepository(db)
	outboxRepo := database.NewOutboxRepository(db)

	attempts, err := rateLimitService.CleanupExpiredAttempts()
	if err != nil {
		log.Printf("attempt limits: %v", err)
	} else {
		fmt.Printf("  attempt_limits: removed %d expired rows\n", attempts)
	}

	tokens, err := refreshTokenRepo.CleanupExpiredTokens()
	if err != nil {
		log.Printf("refresh tokens: %v", err)
	} else {
		fmt.Printf("  refresh_tokens: removed %d expired or revoked rows\n", tokens)
	}

	events, err := outboxRepo.CleanupSent(time.Duration(outboxRetentionDays) * 24 * time.Hour)
	if err != nil {
		log.Printf("outbox: %v", err)
	} else {
		fmt.Printf("  notification_outbox: removed %d delivered events\n", events)
	}

	logs, err := auditService.CleanupOldAuditLogs(time.Duration(auditRetentionDays) * 24 * time.Hour)
	if err != nil {
		log.Printf("audit logs: %v", err)
	} else {
		fmt.Printf("  audit_logs: removed %d rows older than %d days\n", logs, auditRetentionDays)
	}

	fmt.Println("Cleanup finished.")
}
