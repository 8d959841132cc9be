package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"shophub/internal/apiclient"
	"shophub/internal/catalog"

	"github.com/rs/zerolog"
)

func main() {
	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5001"
	}

	api, err := apiclient.New(baseURL, 10*time.Second, zerolog.Nop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid backend URL: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	products, err := catalog.NewClient(api, zerolog.Nop()).FetchCatalog(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Catalogue fetch failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully reached backend at %s: %d products\n", baseURL, len(products))
	for _, p := range products {
		fmt.Printf("  %-24s %-30s %10s  %s\n", p.ID, p.Name, p.Price.StringFixed(2), p.Category)
	}
}
