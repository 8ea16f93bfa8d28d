package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/trekhive/trek-booking-backend/internal/config"
	"github.com/trekhive/trek-booking-backend/internal/database"
	"github.com/trekhive/trek-booking-backend/internal/services"
)

func main() {
	var dbURLFlag string
	var rateLimitsOnly bool
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&rateLimitsOnly, "rate-limits-only", false, "only delete expired login rate limit rows")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	// This avoids having to pass secrets on the command line.
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
		// ConnMaxLifetime left as zero (driver default)
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if rateLimitsOnly {
		deleted, err := services.NewRateLimitService(db).CleanupExpiredRateLimits()
		if err != nil {
			log.Fatalf("failed to clean up rate limits: %v", err)
		}
		fmt.Printf("Deleted %d expired login rate limit rows.\n", deleted)
		return
	}

	fmt.Println("Connected to database. Truncating tables...")

	truncateSQL := `
TRUNCATE TABLE
    booking_audit_logs,
    payment_logs,
    booking_travelers,
    bookings,
    travelers,
    batches,
    treks,
    coupons,
    customers,
    vendors,
    login_rate_limits
RESTART IDENTITY CASCADE;`

	if _, err := db.Exec(truncateSQL); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	fmt.Println("All data cleared successfully (tables truncated, identities reset).")

	// Verify by printing row counts for each table
	tables := []string{
		"booking_audit_logs",
		"payment_logs",
		"booking_travelers",
		"bookings",
		"travelers",
		"batches",
		"treks",
		"coupons",
		"customers",
		"vendors",
		"login_rate_limits",
	}

	fmt.Println("Post-clear row counts:")
	for _, t := range tables {
		var count int
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&count); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}
