package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tableside/internal/deploy"
)

// Exit codes: 0 smoke ok (and hash unchanged when checked), 2 hash changed,
// 1 any failure. The pipeline keys its ConfigMap patch and rolling restart
// on code 2.
func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "base URL of the web container")
		menuPath = flag.String("menu", "", "path to the menu file for the content hash check")
		prevHash = flag.String("prev-hash", "", "previously deployed menu content hash")
		timeout  = flag.Duration("timeout", 30*time.Second, "overall timeout")
		skipHTTP = flag.Bool("skip-http", false, "only run the hash check")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if !*skipHTTP {
		if err := deploy.Smoke(ctx, *baseURL, nil); err != nil {
			fmt.Fprintf(os.Stderr, "smoke test failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("smoke test passed")
	}

	if *menuPath == "" {
		return
	}

	changed, current, err := deploy.HashChanged(*prevHash, *menuPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("menu hash: %s\n", current)
	if changed {
		fmt.Println("menu content changed, restart required")
		os.Exit(2)
	}
	fmt.Println("menu content unchanged")
}
