package main

import (
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"syncoracle/internal/api"
	"syncoracle/internal/engine"
	"syncoracle/internal/harness"
	"syncoracle/internal/journal"
	"syncoracle/internal/lsp"
	"syncoracle/internal/validator"
)

func main() {
	var (
		fuzz        = flag.Int("fuzz", 0, "run this many random fuzz sessions instead of serving")
		seed        = flag.Int64("seed", 1, "base seed for fuzz session generation")
		docs        = flag.Int("docs", 2, "documents per fuzz session")
		edits       = flag.Int("edits", 25, "change events per document in fuzz sessions")
		journalPath = flag.String("journal", "", "record events and findings to this SQLite file")
		apiAddr     = flag.String("api", "", "serve the journal inspection API on this TCP address")
		fault       = flag.Bool("fault", false, "inject an engine fault so fuzz sessions produce findings")
	)
	flag.Parse()

	// Set up logging
	commonlog.Configure(1, nil)

	// Create logs directory if it doesn't exist
	logsDir := filepath.Join(os.TempDir(), "syncoracle")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		log.Fatalf("Failed to create logs directory: %v", err)
	}

	// Open log file
	logFile, err := os.OpenFile(
		filepath.Join(logsDir, "syncoracle.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()

	// Set up multi-writer for logging
	multiWriter := io.MultiWriter(os.Stderr, logFile)
	log.SetOutput(multiWriter)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)

	var jnl *journal.Journal
	if *journalPath != "" {
		jnl, err = journal.Open(*journalPath)
		if err != nil {
			log.Fatalf("Failed to open journal: %v", err)
		}
		defer jnl.Close()
	}

	if *apiAddr != "" {
		if jnl == nil {
			log.Fatalf("-api requires -journal")
		}
		go func() {
			if err := api.StartServer(*apiAddr, jnl); err != nil {
				log.Printf("Inspection API stopped: %v", err)
			}
		}()
	}

	if *fuzz > 0 {
		runFuzz(jnl, *fuzz, *seed, *docs, *edits, *fault)
		return
	}

	log.Println("Starting syncoracle LSP server...")

	v := validator.New(engine.New())
	server := lsp.NewServer(v, jnl)
	if err := server.RunStdio(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func runFuzz(jnl *journal.Journal, sessions int, seed int64, docs, edits int, fault bool) {
	campaign := &harness.Campaign{
		Seed:     seed,
		Sessions: sessions,
		Docs:     docs,
		Changes:  edits,
		Journal:  jnl,
	}
	if fault {
		// Corrupt every seventh-length text so some sessions diverge.
		campaign.Fault = func(uri string, text string) string {
			if len(text)%7 == 0 {
				return text + "\x00"
			}
			return text
		}
	}

	log.Printf("Running %d fuzz sessions (seed %d, %d docs, %d edits)...", sessions, seed, docs, edits)
	findings, err := campaign.Run()
	log.Printf("Fuzz campaign done: %d/%d sessions produced findings", findings, sessions)
	if err != nil {
		log.Printf("First finding: %v", err)
		os.Exit(1)
	}
}
