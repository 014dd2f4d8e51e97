package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"snapvault/internal/history"
	"snapvault/internal/ingest"
	"snapvault/pkg/database"
)

const defaultBaseURL = "http://localhost:8080"

func main() {
	_ = godotenv.Load()

	global := flag.NewFlagSet("snapvault", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	auth := global.String("auth", os.Getenv("SNAPVAULT_UPLOAD_AUTH"), "upload credential (user:pass)")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch args[0] {
	case "run":
		handleRun(ctx, *baseURL, *auth, args[1:])
	case "history":
		handleHistory(ctx, args[1:])
	case "watch":
		handleWatch(*baseURL, args[1:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleRun(ctx context.Context, baseURL, auth string, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	kind := fs.String("type", "photo", "record type: photo or screenshot")
	source := fs.String("source", "", "provenance label (device or app)")
	_ = fs.Parse(args)

	files := fs.Args()
	if len(files) == 0 {
		log.Fatal("usage: ingest run [-type photo|screenshot] [-source label] <file> [file...]")
	}

	orch := ingest.NewOrchestrator(ingest.NewClient(baseURL, auth))
	orch.Status = func(msg string) { log.Printf("[ingest] %s", msg) }

	if err := orch.Select(ctx, files, *kind, *source); err != nil {
		log.Fatalf("select failed: %v", err)
	}

	report, runErr := orch.Run(ctx)
	if report != nil {
		recordRun(ctx, report)
		printReport(report)
	}
	if runErr != nil {
		os.Exit(1)
	}
}

// recordRun stores the batch outcome in the local ledger. Ledger problems
// never mask the ingest result.
func recordRun(ctx context.Context, report *ingest.Report) {
	db, err := database.Open(database.DefaultConfig())
	if err != nil {
		log.Printf("[ingest] history unavailable: %v", err)
		return
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Printf("[ingest] history migrate failed: %v", err)
		return
	}

	run := history.Run{
		ID:         uuid.NewString(),
		Kind:       report.Kind,
		Source:     report.Source,
		Selected:   report.Selected,
		Published:  len(report.Published),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	}
	if report.Halted {
		run.HaltReason = fmt.Sprintf("%s %s: %s", report.HaltStage, report.HaltFile, report.HaltReason)
	}

	items := make([]history.Item, 0, len(report.Published))
	for _, rec := range report.Published {
		items = append(items, history.Item{
			RunID:    run.ID,
			RecordID: rec.ID,
			Title:    rec.Title,
			Date:     rec.Date,
			Src:      rec.Src,
		})
	}

	if err := history.NewRepo(db).Insert(ctx, run, items); err != nil {
		log.Printf("[ingest] history write failed: %v", err)
	}
}

func printReport(report *ingest.Report) {
	if report.Halted {
		fmt.Printf("halted at %s (%s): %s\n", report.HaltFile, report.HaltStage, report.HaltReason)
		fmt.Printf("published %d of %d before halt (already-published items remain in the catalog)\n",
			len(report.Published), report.Selected)
		return
	}
	fmt.Printf("published %d items\n", len(report.Published))
	for _, rec := range report.Published {
		fmt.Printf("  %s  %s  %s\n", rec.ID, rec.Date, rec.Src)
	}
}

func handleHistory(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	runID := fs.String("run", "", "show published items of one run")
	_ = fs.Parse(args)

	db, err := database.Open(database.DefaultConfig())
	if err != nil {
		log.Fatalf("open history: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("history migrate failed: %v", err)
	}
	repo := history.NewRepo(db)

	if *runID != "" {
		items, err := repo.ItemsForRun(ctx, *runID)
		if err != nil {
			log.Fatalf("list items: %v", err)
		}
		printJSON(items)
		return
	}

	runs, err := repo.ListRuns(ctx, *limit)
	if err != nil {
		log.Fatalf("list runs: %v", err)
	}
	printJSON(runs)
}

// handleWatch tails the catalog event feed over WebSocket and prints one
// event per line until interrupted.
func handleWatch(baseURL string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	pretty := fs.Bool("pretty", true, "pretty print JSON events")
	_ = fs.Parse(args)

	wsURL, err := websocketURL(baseURL)
	if err != nil {
		log.Fatalf("invalid base url: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", wsURL, err)
	}
	defer conn.Close()

	log.Printf("[watch] connected to %s", wsURL)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[watch] disconnected: %v", err)
			return
		}

		if !*pretty {
			fmt.Println(strings.TrimSpace(string(msg)))
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal(msg, &obj); err != nil {
			fmt.Println(strings.TrimSpace(string(msg)))
			continue
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
}

func websocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String(), nil
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}
	fmt.Println(string(b))
}

func printUsage() {
	fmt.Println(`usage: ingest [-api URL] [-auth user:pass] <command>

commands:
  run      -type photo|screenshot -source label <file> [file...]
  history  [-limit N] [-run ID]
  watch    [-pretty=false]`)
}
