package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"slideflow/internal/auth"
	"slideflow/internal/config"
	"slideflow/internal/db"
	"slideflow/internal/errlog"
	"slideflow/internal/handler"
	"slideflow/internal/importer"
	"slideflow/internal/model"
	"slideflow/internal/outline"
	"slideflow/internal/preview"
	"slideflow/internal/router"
)

func main() {
	// Ensure data directory exists
	if err := os.MkdirAll("./data", 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// 1. Initialize ConfigManager and load config
	cm := config.NewConfigManager("./data/config.json")
	if err := cm.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := cm.Get()

	// Check for CLI subcommands (conversion needs no database)
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "import":
			runImport(os.Args[2:], cfg)
			return
		case "help", "-h", "--help":
			printUsage()
			return
		}
	}

	if err := errlog.Init(""); err != nil {
		log.Printf("Warning: error log unavailable: %v", err)
	}
	defer errlog.Close()

	// 2. Initialize database
	database, err := db.InitDB(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// 3. Create service instances
	store := db.NewPresentationStore(database)
	sm := auth.NewSessionManager(database, auth.DefaultSessionExpiry)
	renderer := preview.NewRenderer(cfg.Import.ThumbnailWidth)

	// 4. Create App and register HTTP API handlers
	app := handler.NewApp(database, store, sm, cm, renderer)
	cleanup := router.Register(app)
	defer cleanup()

	// 5. Serve frontend with SPA fallback (non-API routes serve index.html)
	http.Handle("/", spaHandler("frontend/dist"))

	// 6. Start HTTP server with graceful shutdown
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Periodic session cleanup
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := sm.CleanExpired(); err == nil && n > 0 {
				log.Printf("Cleaned %d expired sessions", n)
			}
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Graceful shutdown error: %v", err)
		}
	}()

	fmt.Printf("Slideflow starting on http://%s\n", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
	log.Println("Server stopped")
}

// printUsage prints CLI usage information.
func printUsage() {
	fmt.Println(`Usage:
  slideflow                              start the HTTP server (default port 8080)
  slideflow import [--out <dir>] <file> [...]
                                         convert presentations or documents to editor JSON
  slideflow help                         show this help

import command:
  Converts each file to the editor's slide JSON. A single file with no
  --out flag prints the JSON to stdout; otherwise each result is written
  next to its source (or into the --out directory) as <name>.json.

  Supported file formats: .pptx .ppt .docx .pdf .xlsx .xls

  Examples:
    slideflow import deck.pptx > deck.json
    slideflow import --out ./converted deck.pptx notes.docx report.pdf`)
}

// runImport converts files from the command line without starting the server.
func runImport(args []string, cfg *config.Config) {
	var outDir string
	var files []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--out" {
			if i+1 >= len(args) {
				fmt.Println("error: --out requires a directory")
				os.Exit(1)
			}
			outDir = args[i+1]
			i++
			continue
		}
		files = append(files, args[i])
	}
	if len(files) == 0 {
		fmt.Println("error: no input files")
		printUsage()
		os.Exit(1)
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			fmt.Printf("error: create output directory: %v\n", err)
			os.Exit(1)
		}
	}

	opts := importer.Options{
		ImportImages:  cfg.Import.ImportImages,
		DefaultCanvas: importer.WidescreenMetadata(),
	}
	if cfg.Import.DefaultAspect == "4:3" {
		opts.DefaultCanvas = importer.ClassicMetadata()
	}
	toStdout := len(files) == 1 && outDir == ""

	failed := 0
	for _, path := range files {
		pres, err := convertFile(path, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed: %s: %v\n", path, err)
			failed++
			continue
		}
		data, err := json.MarshalIndent(pres, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed: %s: %v\n", path, err)
			failed++
			continue
		}
		if toStdout {
			os.Stdout.Write(append(data, '\n'))
			continue
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".json"
		target := filepath.Join(filepath.Dir(path), base)
		if outDir != "" {
			target = filepath.Join(outDir, base)
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "failed: %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("converted: %s -> %s (%d slides)\n", path, target, pres.SlideCount)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// convertFile dispatches one file to the matching converter.
func convertFile(path string, opts importer.Options) (*model.Presentation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	onProgress := func(p importer.Progress) {
		fmt.Fprintf(os.Stderr, "  %s %d%% %s\n", p.Stage, p.Progress, p.Message)
	}

	switch fileType := handler.DetectFileType(path); fileType {
	case "pptx":
		return importer.Import(context.Background(), data, name, opts, onProgress)
	case "ppt_legacy":
		return importer.ImportLegacy(context.Background(), data, name, opts, onProgress)
	case "word", "pdf", "excel", "excel_legacy":
		return outline.BuildDeck(data, fileType, name)
	default:
		return nil, fmt.Errorf("unsupported file format")
	}
}

// spaHandler serves static frontend files with an index.html fallback
// for client-side routes.
func spaHandler(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	indexPath := filepath.Join(dir, "index.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cleanPath := filepath.Clean(r.URL.Path)
		if strings.Contains(cleanPath, "..") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		p := filepath.Join(dir, cleanPath)
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, indexPath)
	})
}
