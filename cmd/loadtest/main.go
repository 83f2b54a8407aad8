package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type outcome int

const (
	accepted outcome = iota
	limited
	failed
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	numRequests := flag.Int("n", 200, "total quote submissions")
	concurrentWorkers := flag.Int("c", 20, "concurrent workers")
	track := flag.Bool("track", true, "look up every accepted quote on /track/:id")
	flag.Parse()

	var acceptedCount, limitedCount, errorCount, trackMisses int64
	var wg sync.WaitGroup

	startTime := time.Now()

	jobs := make(chan int, *numRequests)
	results := make(chan outcome, *numRequests)

	for w := 0; w < *concurrentWorkers; w++ {
		wg.Add(1)
		go worker(w, jobs, results, *baseURL, *track, &trackMisses, &wg)
	}

	for j := 0; j < *numRequests; j++ {
		jobs <- j
	}
	close(jobs)

	wg.Wait()
	close(results)

	for result := range results {
		switch result {
		case accepted:
			atomic.AddInt64(&acceptedCount, 1)
		case limited:
			atomic.AddInt64(&limitedCount, 1)
		default:
			atomic.AddInt64(&errorCount, 1)
		}
	}

	duration := time.Since(startTime)
	requestsPerSecond := float64(*numRequests) / duration.Seconds()

	fmt.Println("Load Test Results:")
	fmt.Println("==================")
	fmt.Printf("Total Requests: %d\n", *numRequests)
	fmt.Printf("Accepted: %d\n", acceptedCount)
	fmt.Printf("Rate limited (429): %d\n", limitedCount)
	fmt.Printf("Failed: %d\n", errorCount)
	if *track {
		fmt.Printf("Track lookups missing: %d\n", trackMisses)
	}
	fmt.Printf("Duration: %v\n", duration)
	fmt.Printf("Requests/sec: %.2f\n", requestsPerSecond)
}

func worker(
	id int,
	jobs <-chan int,
	results chan<- outcome,
	baseURL string,
	track bool,
	trackMisses *int64,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	for n := range jobs {
		payload := map[string]interface{}{
			"type": "quote",
			"contact": map[string]string{
				"name":  fmt.Sprintf("Load Test %d", n),
				"email": fmt.Sprintf("loadtest+%d@example.com", n),
			},
			"items": []map[string]interface{}{{
				"product":        map[string]string{"name": "Classic Tee"},
				"sizeQuantities": map[string]int{"M": 2, "L": 1},
				"unitPrice":      12.5,
				"selectedColor":  map[string]string{"name": "Black"},
			}},
		}

		jsonData, _ := json.Marshal(payload)

		resp, err := client.Post(baseURL+"/quotes", "application/json", bytes.NewBuffer(jsonData))
		if err != nil {
			log.Printf("Worker %d error: %v\n", id, err)
			results <- failed
			continue
		}

		var body struct {
			Success bool   `json:"success"`
			ID      string `json:"id"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			results <- limited
		case resp.StatusCode >= 200 && resp.StatusCode < 300 && body.Success:
			results <- accepted
			if track && !lookup(client, baseURL, body.ID) {
				atomic.AddInt64(trackMisses, 1)
			}
		default:
			results <- failed
		}

		time.Sleep(10 * time.Millisecond)
	}
}

func lookup(client *http.Client, baseURL, id string) bool {
	resp, err := client.Get(baseURL + "/track/" + id)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
