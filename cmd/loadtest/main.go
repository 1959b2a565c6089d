package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Result records one HTTP outcome for aggregation.
type Result struct {
	Status int
	Body   string
	Err    error
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	itemID := flag.String("item", "", "item id to bid on (required)")
	nBidders := flag.Int("bidders", 100, "distinct bidders")
	concurrency := flag.Int("c", 25, "max concurrency")
	startAmount := flag.Float64("start", 10, "starting bid amount")
	flag.Parse()

	if *itemID == "" {
		panic("missing -item: pass an item id from GET /api/items")
	}

	client := &http.Client{Timeout: 5 * time.Second}

	fmt.Printf("start bid test: item=%s bidders=%d concurrency=%d\n", *itemID, *nBidders, *concurrency)
	results := runBids(client, *baseURL, *itemID, *nBidders, *concurrency, *startAmount)
	printSummary("bids", results)

	// Same bidder hammering the endpoint; with rate limiting enabled
	// this is the path that should start returning 429s.
	fmt.Println("\nstart rate limit test: same bidder, 50 requests")
	results2 := runSameBidder(client, *baseURL, *itemID, "loadtest-bidder", 50, 50, *startAmount)
	printSummary("rate_limit", results2)
}

type bidReq struct {
	Amount float64 `json:"amount"`
	Bidder string  `json:"bidder"`
	Time   string  `json:"time"`
}

func runBids(client *http.Client, baseURL, itemID string, n, concurrency int, start float64) []Result {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]Result, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = postBid(client, baseURL, itemID, bidReq{
				Amount: start + float64(i),
				Bidder: fmt.Sprintf("bidder-%d", i+1),
				Time:   time.Now().UTC().Format(time.RFC3339),
			})
		}(i)
	}
	wg.Wait()
	return results
}

func runSameBidder(client *http.Client, baseURL, itemID, bidder string, n, concurrency int, start float64) []Result {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]Result, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = postBid(client, baseURL, itemID, bidReq{
				Amount: start + float64(i),
				Bidder: bidder,
				Time:   time.Now().UTC().Format(time.RFC3339),
			})
		}(i)
	}
	wg.Wait()
	return results
}

func postBid(client *http.Client, baseURL, itemID string, req bidReq) Result {
	b, err := json.Marshal(req)
	if err != nil {
		return Result{Err: err}
	}
	resp, err := client.Post(
		fmt.Sprintf("%s/api/items/%s/bid", baseURL, itemID),
		"application/json",
		bytes.NewReader(b),
	)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return Result{Status: resp.StatusCode, Body: string(body)}
}

func printSummary(name string, results []Result) {
	counts := map[int]int{}
	errs := 0
	for _, r := range results {
		if r.Err != nil {
			errs++
			continue
		}
		counts[r.Status]++
	}
	fmt.Printf("[%s] total=%d errors=%d\n", name, len(results), errs)
	for status, n := range counts {
		fmt.Printf("  %d: %d\n", status, n)
	}
}
