package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/facebookgo/clock"

	"tearound/internal/config"
	"tearound/internal/database"
	"tearound/internal/notify"
	"tearound/internal/repository"
	"tearound/internal/security"
	"tearound/internal/service"
)

func main() {
	// Define subcommands
	historyCmd := flag.NewFlagSet("history", flag.ExitOnError)
	expireCmd := flag.NewFlagSet("expire", flag.ExitOnError)
	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)

	// History flags
	historyTeam := historyCmd.String("team", "", "Only export rounds of this team")
	historyLimit := historyCmd.Int("limit", 100, "Maximum number of rounds to export")
	historyOutput := historyCmd.String("output", "", "Output file path (default: stdout)")

	// Token flags
	tokenUser := tokenCmd.String("user", "", "User ID the token identifies (required)")
	tokenTTL := tokenCmd.Duration("ttl", 24*time.Hour, "Token lifetime")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()
	clk := clock.New()
	ctx := context.Background()

	// token needs no database
	if os.Args[1] == "token" {
		tokenCmd.Parse(os.Args[2:])
		if *tokenUser == "" {
			fmt.Println("Error: -user flag is required")
			tokenCmd.PrintDefaults()
			os.Exit(1)
		}
		handleToken(cfg, clk, *tokenUser, *tokenTTL)
		return
	}

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Notifications from expiry land in the inbox like they do on the server
	inbox := notify.NewInboxSink(repository.NewNotificationRepository(db), clk)
	roundService := service.NewRoundService(repository.NewRoundRepository(db), inbox, clk, nil, cfg.RoundTimeout)
	roundService.SetDebug(cfg.Debug)

	switch os.Args[1] {
	case "history":
		historyCmd.Parse(os.Args[2:])
		handleHistory(ctx, roundService, *historyTeam, *historyLimit, *historyOutput)

	case "expire":
		expireCmd.Parse(os.Args[2:])
		handleExpire(ctx, roundService)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleHistory(ctx context.Context, roundService *service.RoundService, team string, limit int, outputPath string) {
	var out io.Writer = os.Stdout
	if outputPath != "" {
		// Ensure directory exists
		dir := filepath.Dir(outputPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				log.Fatalf("Failed to create output directory: %v", err)
			}
		}

		file, err := os.Create(outputPath)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer file.Close()
		out = file
	}

	n, err := roundService.ExportHistory(ctx, out, team, limit)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	if outputPath != "" {
		log.Printf("Exported %d rounds to %s", n, outputPath)
	}
}

func handleExpire(ctx context.Context, roundService *service.RoundService) {
	canceled, err := roundService.SweepExpired(ctx)
	if err != nil {
		log.Fatalf("Expire failed: %v", err)
	}
	log.Printf("Canceled %d rounds older than %s", canceled, roundService.Timeout())
}

func handleToken(cfg *config.Config, clk clock.Clock, userID string, ttl time.Duration) {
	tokens, err := security.NewTokenVerifier(cfg.JWTSecret, clk)
	if err != nil {
		log.Fatalf("Failed to initialize token signing: %v", err)
	}

	token, err := tokens.Issue(userID, ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}

func printUsage() {
	fmt.Println("Tea Round Admin Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  admin history [options]    Export finalized rounds as JSON")
	fmt.Println("  admin expire               Cancel pending rounds past the timeout")
	fmt.Println("  admin token [options]      Issue a bearer token for the API")
	fmt.Println()
	fmt.Println("History Options:")
	fmt.Println("  -team <name>      Only export rounds of this team")
	fmt.Println("  -limit <n>        Maximum number of rounds (default: 100)")
	fmt.Println("  -output <file>    Output file path (default: stdout)")
	fmt.Println()
	fmt.Println("Token Options:")
	fmt.Println("  -user <id>        User ID the token identifies (required)")
	fmt.Println("  -ttl <duration>   Token lifetime (default: 24h)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./tearound.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
	fmt.Println("  ROUND_TIMEOUT    Initiation timeout (default: 25m)")
	fmt.Println("  JWT_SECRET       Secret used to sign bearer tokens")
}
