// Command urlwardend evaluates URLs against the configured reputation
// policy and prints one JSON decision per line. URLs come from the command
// line, or from stdin when no arguments are given. The exit status is 0 when
// everything was allowed and 2 when at least one URL was blocked, so the
// binary doubles as a scriptable gate.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urlwarden/urlwarden/internal/rep/common/log"
	"github.com/urlwarden/urlwarden/internal/rep/config"
	"github.com/urlwarden/urlwarden/internal/rep/engine"
	"github.com/urlwarden/urlwarden/internal/rep/plugin"
)

const (
	version = "0.1.0-dev"
	appName = "urlwardend"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	policy, err := cfg.Policy()
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Invalid reputation policy")
	}

	gate, err := plugin.New(policy, engine.Options{
		Mode:      engine.Mode(cfg.Engine),
		CacheSize: cfg.CacheSize,
	})
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build plugin")
	}

	log.Debug(map[string]any{
		"version":     version,
		"app":         appName,
		"engine":      cfg.Engine,
		"accelerated": gate.Accelerated(),
		"heuristics":  cfg.UseHeuristicCheck,
	}, "urlwarden ready")

	blocked, err := run(gate, os.Args[1:], os.Stdout)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Evaluation failed")
	}
	if blocked {
		os.Exit(2)
	}
}

// run evaluates each URL and writes NDJSON decisions to out. It reports
// whether any URL was blocked.
func run(gate *plugin.URLReputation, args []string, out *os.File) (bool, error) {
	ctx := context.Background()
	enc := json.NewEncoder(out)
	blocked := false

	emit := func(uri string) error {
		dec := gate.ResourcePreFetch(ctx, uri)
		if !dec.Allowed() {
			blocked = true
		}
		return enc.Encode(struct {
			URL      string `json:"url"`
			Decision any    `json:"decision"`
		}{URL: uri, Decision: dec})
	}

	if len(args) > 0 {
		for _, uri := range args {
			if err := emit(uri); err != nil {
				return blocked, err
			}
		}
		return blocked, nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		uri := scanner.Text()
		if uri == "" {
			continue
		}
		if err := emit(uri); err != nil {
			return blocked, err
		}
	}
	return blocked, scanner.Err()
}
