package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"unicode/utf8"

	"github.com/joho/godotenv"

	"github.com/tailored-agentic-units/procure/core/domain"
	"github.com/tailored-agentic-units/procure/engine"
)

// inventoryFile is the expected shape of the -inventory input.
type inventoryFile struct {
	Items []domain.InventoryItem `json:"items"`
	Sales []domain.SalesRecord   `json:"sales"`
}

func main() {
	var (
		configFile    = flag.String("config", "", "Path to engine config JSON file")
		inventoryPath = flag.String("inventory", "", "Path to inventory JSON file (required)")
		storagePath   = flag.String("storage", "", "Path to sqlite database (overrides config)")
		natsURL       = flag.String("nats", "", "NATS server URL for notifications (overrides config)")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	if *inventoryPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: procure -inventory <file> [-config <file>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Loads PROCURE_API_KEY and friends when a .env is present.
	_ = godotenv.Load()

	cfg := engine.DefaultConfig()
	if *configFile != "" {
		loaded, err := engine.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}

	if key := os.Getenv("PROCURE_API_KEY"); key != "" {
		cfg.TextGen.APIKey = key
	}
	if *storagePath != "" {
		cfg.Storage.Path = *storagePath
	}
	if *natsURL != "" {
		cfg.Notify.URL = *natsURL
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	data, err := os.ReadFile(*inventoryPath)
	if err != nil {
		log.Fatalf("Failed to read inventory file: %v", err)
	}
	var inv inventoryFile
	if err := json.Unmarshal(data, &inv); err != nil {
		log.Fatalf("Failed to parse inventory file: %v", err)
	}

	runtime, err := engine.New(&cfg)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer runtime.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	analysis, err := runtime.AnalyzeInventory(ctx, inv.Items, inv.Sales)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	fmt.Printf("Run %s: %d items classified, %d decisions, %d dispatched\n",
		analysis.RunID, len(analysis.Assessments), len(analysis.Decisions), analysis.Dispatched)

	for _, d := range analysis.Decisions {
		fmt.Printf("  [%s] %s %s (confidence %.2f)\n", d.Priority, d.Action, d.SKU, d.Confidence)
		if d.Reasoning != "" {
			fmt.Printf("    %s\n", excerpt(d.Reasoning, 200))
		}
	}
}

// excerpt cuts s to at most limit bytes on a rune boundary.
func excerpt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}
