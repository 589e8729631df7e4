// Package main is the Clipseek CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clipseek/clipseek/internal/config"
	"github.com/clipseek/clipseek/internal/models"
	"github.com/clipseek/clipseek/internal/server"
	"github.com/clipseek/clipseek/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/clipseek/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "add":
		runAdd()
	case "search":
		runSearch()
	case "hints":
		runHints()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("clipseek version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components.Hints.Start(rootCtx)
	if err := components.Hints.WarmUp(rootCtx); err != nil {
		logger.Warn("hint warm-up failed", zap.Error(err))
	}

	go func() {
		if err := components.Scheduler.Run(rootCtx); err != nil && err != context.Canceled {
			logger.Error("scheduler stopped", zap.Error(err))
		}
	}()

	srv := server.NewServer(components.Engine, components.Hints, components.Storage, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	ctx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = srv.Stop(ctx)
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fmt.Println("Usage: clipseek add [flags] <video-url>")
		os.Exit(1)
	}

	body, _ := json.Marshal(models.VideoInput{URL: fs.Arg(0)})
	resp, err := http.Post(*serverURL+"/api/v1/videos", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		fmt.Fprintf(os.Stderr, "Add failed (%d): %s\n", resp.StatusCode, strings.TrimSpace(string(data)))
		os.Exit(1)
	}
	fmt.Println(strings.TrimSpace(string(data)))
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	bm25 := fs.Bool("bm25", false, "rank with BM25 instead of TF-IDF")
	semantic := fs.Bool("semantic", false, "expand the query with similar words")
	vector := fs.Bool("vector", false, "also run vector retrieval")
	limit := fs.Int("limit", 10, "number of results")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fmt.Println("Usage: clipseek search [flags] <query>")
		os.Exit(1)
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))

	params := url.Values{}
	params.Set("text", query)
	params.Set("limit", fmt.Sprintf("%d", *limit))
	if *bm25 {
		params.Set("bm25", "true")
	}
	if *semantic {
		params.Set("semantic", "true")
	}
	if *vector {
		params.Set("vector", "true")
	}
	var response models.SearchResponse
	if err := getJSON(*serverURL+"/api/v1/search?"+params.Encode(), &response); err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if len(response.Results) == 0 {
		fmt.Println("No results.")
		return
	}
	for _, r := range response.Results {
		fmt.Printf("%2d. %s  score=%.4f", r.Rank, r.Video.URL, r.Score)
		if len(r.Video.CentroidWords) > 0 {
			fmt.Printf("  [%s]", strings.Join(r.Video.CentroidWords, " "))
		}
		fmt.Println()
	}
	fmt.Printf("%d results in %dms\n", response.Total, response.QueryTime)
}

func runHints() {
	fs := flag.NewFlagSet("hints", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fmt.Println("Usage: clipseek hints [flags] <partial-query>")
		os.Exit(1)
	}
	params := url.Values{}
	params.Set("text", strings.Join(fs.Args(), " "))
	var response struct {
		Hints []string `json:"hints"`
	}
	if err := getJSON(*serverURL+"/api/v1/hints?"+params.Encode(), &response); err != nil {
		fmt.Fprintf(os.Stderr, "Hints failed: %v\n", err)
		os.Exit(1)
	}
	for _, h := range response.Hints {
		fmt.Println(h)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])
	var response map[string]interface{}
	if err := getJSON(*serverURL+"/api/v1/status", &response); err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(response, "", "  ")
	fmt.Println(string(out))
}

func getJSON(url string, out interface{}) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, out)
}

func printUsage() {
	fmt.Println(`Clipseek - video search engine

Usage:
  clipseek server [-config path] [-debug]   start the API server and indexer
  clipseek add <video-url>                  queue a video for indexing
  clipseek search [flags] <query>           search indexed videos
  clipseek hints <partial-query>            autocomplete keywords
  clipseek status                           indexing counters
  clipseek version                          print version`)
}
