package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dvloznov/finance-analytics/internal/app"
	"github.com/dvloznov/finance-analytics/internal/config"
	"github.com/dvloznov/finance-analytics/internal/domain"
	infraBQ "github.com/dvloznov/finance-analytics/internal/infra/bigquery"
	"github.com/dvloznov/finance-analytics/internal/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()
	log := logger.NewWithLevel(cfg.LogLevel)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "health":
		runHealth(cfg, log)
	case "cashflow":
		runCashFlow(cfg, log)
	case "taxrisk":
		runTaxRisk(cfg, log)
	case "monitor":
		runMonitor(cfg, log)
	case "insights":
		runInsights(cfg, log)
	case "optimize":
		runOptimize(cfg, log)
	case "upload-doc":
		runUploadDoc(cfg, log)
	case "import":
		runImport(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Analytics CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  health      Compute a user's financial health score")
	fmt.Println("  cashflow    Project a user's balance forward")
	fmt.Println("  taxrisk     Assess tax risk for one year")
	fmt.Println("  monitor     Run compliance monitoring and append alerts")
	fmt.Println("  insights    List stored insights or generate new ones")
	fmt.Println("  optimize    Recommend a budget allocation")
	fmt.Println("  upload-doc  Upload a tax document to GCS")
	fmt.Println("  import      Import transactions from a JSON file into BigQuery")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// setup parses the common flags, validates configuration and builds the
// engine. The returned cleanup closes every component.
func setup(name string, cfg *config.Config, log zerolog.Logger, offline bool, define func(fs *flag.FlagSet)) (context.Context, *app.App, string, func()) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	userID := fs.String("user", "", "User ID (required)")
	if define != nil {
		define(fs)
	}
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, log, app.Options{Offline: offline})
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to initialize engine")
	}

	return ctx, a, *userID, func() {
		a.Close()
		cancel()
	}
}

func printJSON(log zerolog.Logger, v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode result")
	}
}

func runHealth(cfg *config.Config, log zerolog.Logger) {
	ctx, a, userID, cleanup := setup("health", cfg, log, true, nil)
	defer cleanup()

	score, err := a.Engine.HealthScore(ctx, userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Health score failed")
	}

	fmt.Printf("\n=== Financial Health: %d/100 ===\n", score.Overall)
	fmt.Printf("Savings:   %d\n", score.Categories.Savings)
	fmt.Printf("Debt:      %d\n", score.Categories.Debt)
	fmt.Printf("Spending:  %d\n", score.Categories.Spending)
	fmt.Printf("Budget:    %d\n", score.Categories.Budget)
	fmt.Printf("Emergency: %d\n", score.Categories.Emergency)
	for _, s := range score.Insights {
		fmt.Printf("  * %s\n", s)
	}
	for _, s := range score.Recommendations {
		fmt.Printf("  -> %s\n", s)
	}
	fmt.Println()
}

func runCashFlow(cfg *config.Config, log zerolog.Logger) {
	var days *int
	ctx, a, userID, cleanup := setup("cashflow", cfg, log, true, func(fs *flag.FlagSet) {
		days = fs.Int("days", 30, "Days to project (1-365)")
	})
	defer cleanup()

	predictions, err := a.Engine.PredictCashFlow(ctx, userID, *days)
	if err != nil {
		log.Fatal().Err(err).Msg("Cash flow prediction failed")
	}

	for _, p := range predictions {
		fmt.Printf("%s  %12.2f  (confidence %.2f)\n", p.Date.Format("2006-01-02"), p.PredictedBalance, p.Confidence)
	}
	if n := len(predictions); n > 0 {
		for _, r := range predictions[n-1].Recommendations {
			fmt.Printf("  -> %s\n", r)
		}
	}
}

func runTaxRisk(cfg *config.Config, log zerolog.Logger) {
	var year *int
	var asJSON *bool
	ctx, a, userID, cleanup := setup("taxrisk", cfg, log, true, func(fs *flag.FlagSet) {
		year = fs.Int("year", time.Now().Year(), "Tax year to assess")
		asJSON = fs.Bool("json", false, "Print the assessment as JSON")
	})
	defer cleanup()

	assessment, err := a.Engine.AssessTaxRisk(ctx, userID, *year)
	if err != nil {
		log.Fatal().Err(err).Msg("Tax risk assessment failed")
	}
	if *asJSON {
		printJSON(log, assessment)
		return
	}

	fmt.Printf("\n=== Tax Risk %d: %d (%s) ===\n", assessment.Year, assessment.RiskScore, assessment.RiskLevel)
	for i, f := range assessment.Factors {
		fmt.Printf("\n%d. [%s] %s\n", i+1, f.Severity, f.Description)
		fmt.Printf("   Action: %s\n", f.SuggestedAction)
		if len(f.RelatedTransactionIDs) > 0 {
			fmt.Printf("   Transactions: %s\n", strings.Join(f.RelatedTransactionIDs, ", "))
		}
	}
	if len(assessment.Deadlines) > 0 {
		fmt.Println("\nUpcoming deadlines:")
		for _, d := range assessment.Deadlines {
			fmt.Printf("  %s  %-8s %s\n", d.Date.Format("2006-01-02"), d.Priority, d.Description)
		}
	}
	if len(assessment.OpenAlerts) > 0 {
		fmt.Printf("\nOpen alerts: %d\n", len(assessment.OpenAlerts))
	}
	fmt.Println()
}

func runMonitor(cfg *config.Config, log zerolog.Logger) {
	ctx, a, userID, cleanup := setup("monitor", cfg, log, false, nil)
	defer cleanup()

	alerts, err := a.Engine.MonitorCompliance(ctx, userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Compliance monitoring failed")
	}

	fmt.Printf("Created %d alert(s)\n", len(alerts))
	for _, al := range alerts {
		fmt.Printf("  [%s] %s (%s)\n", al.Severity, al.Title, al.ID)
	}
}

func runInsights(cfg *config.Config, log zerolog.Logger) {
	var generate, unread *bool
	ctx, a, userID, cleanup := setup("insights", cfg, log, false, func(fs *flag.FlagSet) {
		generate = fs.Bool("generate", false, "Generate and store new insights")
		unread = fs.Bool("unread", false, "List unread insights only")
	})
	defer cleanup()

	var insights []domain.Insight
	var err error
	if *generate {
		insights, err = a.Engine.PersonalizedInsights(ctx, userID)
	} else {
		insights, err = a.Engine.ListInsights(ctx, userID, *unread)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Insights failed")
	}

	for i, in := range insights {
		fmt.Printf("\n%d. [%s] %s\n", i+1, in.Priority, in.Title)
		if in.Description != "" {
			fmt.Printf("   %s\n", in.Description)
		}
	}
	fmt.Println()
}

func runOptimize(cfg *config.Config, log zerolog.Logger) {
	ctx, a, userID, cleanup := setup("optimize", cfg, log, false, nil)
	defer cleanup()

	strategy, err := a.Engine.OptimizeBudget(ctx, userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Budget optimization failed")
	}
	printJSON(log, strategy)
}

func runUploadDoc(cfg *config.Config, log zerolog.Logger) {
	var year *int
	var filePath, docType, txIDs *string
	ctx, a, userID, cleanup := setup("upload-doc", cfg, log, true, func(fs *flag.FlagSet) {
		year = fs.Int("year", time.Now().Year(), "Tax year the document belongs to")
		filePath = fs.String("file", "", "Path to the local document (required)")
		docType = fs.String("type", "receipt", "Document type")
		txIDs = fs.String("transactions", "", "Comma-separated transaction IDs the document covers")
	})
	defer cleanup()

	if *filePath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	var ids []string
	for _, id := range strings.Split(*txIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	uri, err := a.Docs.UploadTaxDocument(ctx, userID, *year, *filePath, *docType, ids)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}
	fmt.Printf("Uploaded %s to %s\n", *filePath, uri)
}

// importRecord is one transaction in an import file.
type importRecord struct {
	ID           string   `json:"id"`
	Date         string   `json:"date"`
	Amount       float64  `json:"amount"`
	Type         string   `json:"type"`
	Category     string   `json:"category"`
	MerchantName string   `json:"merchant_name"`
	Description  string   `json:"description"`
	ReceiptURL   string   `json:"receipt_url"`
	Tags         []string `json:"tags"`
}

func (r importRecord) toDomain(userID string) (domain.Transaction, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %q: invalid date %q", r.ID, r.Date)
	}
	id := r.ID
	if id == "" {
		id = uuid.New().String()
	}
	return domain.Transaction{
		ID:           id,
		UserID:       userID,
		Date:         date,
		Amount:       r.Amount,
		Type:         domain.TransactionType(r.Type),
		Category:     r.Category,
		MerchantName: r.MerchantName,
		Description:  r.Description,
		ReceiptURL:   r.ReceiptURL,
		Tags:         r.Tags,
	}, nil
}

func runImport(cfg *config.Config, log zerolog.Logger) {
	var filePath *string
	ctx, a, userID, cleanup := setup("import", cfg, log, true, func(fs *flag.FlagSet) {
		filePath = fs.String("file", "", "JSON array of transactions (required)")
	})
	defer cleanup()

	if *filePath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read import file")
	}
	var records []importRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Fatal().Err(err).Msg("Failed to decode import file")
	}

	rows := make([]*infraBQ.TransactionRow, 0, len(records))
	for _, rec := range records {
		t, err := rec.toDomain(userID)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid transaction")
		}
		rows = append(rows, infraBQ.NewTransactionRow(t))
	}

	if err := a.Repo.InsertTransactions(ctx, rows); err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}
	fmt.Printf("Imported %d transaction(s) for %s\n", len(rows), userID)
}
