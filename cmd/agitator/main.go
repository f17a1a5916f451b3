// Package main - agitator
// Load generator for stress testing the faction action API.
// Simulates many concurrent players spamming raids, defends and influences
// while holding a WebSocket observer connection open.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Config for the agitator
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
}

// Stats tracks performance metrics
type Stats struct {
	RequestsSent   int64
	Rejections     int64
	EventsReceived int64
	Errors         int64
	Latencies      []time.Duration
	mu             sync.Mutex
}

var actionEndpoints = []string{
	"/api/perform-raid",
	"/api/perform-defend",
	"/api/perform-influence",
}

var factions = []string{"Red", "Blue", "Green"}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Server base URL")
	numClients := flag.Int("clients", 50, "Number of concurrent players")
	interval := flag.Duration("interval", 100*time.Millisecond, "Action interval per player")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
	}

	fmt.Println("=========================================")
	fmt.Println("🔥 THE AGITATOR - Stress Test Tool")
	fmt.Println("=========================================")
	fmt.Printf("Server: %s\n", config.ServerURL)
	fmt.Printf("Players: %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\n⚠️ Interrupt received, stopping...")
		cancel()
	}()

	stats := runStressTest(ctx, config)
	printResults(stats, config)
}

func runStressTest(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	var wg sync.WaitGroup

	fmt.Println("\n🚀 Starting players...")

	go runObserver(ctx, config, stats)

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(playerID int) {
			defer wg.Done()
			runPlayer(ctx, playerID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Printf("✅ All %d players started\n\n", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sent := atomic.LoadInt64(&stats.RequestsSent)
				rejected := atomic.LoadInt64(&stats.Rejections)
				recv := atomic.LoadInt64(&stats.EventsReceived)
				errs := atomic.LoadInt64(&stats.Errors)
				fmt.Printf("📊 Progress: Sent=%d Rejected=%d Events=%d Errors=%d\n", sent, rejected, recv, errs)
			}
		}
	}()

	wg.Wait()
	return stats
}

// runObserver holds one WebSocket connection and counts broadcast events.
func runObserver(ctx context.Context, config Config, stats *Stats) {
	wsURL := "ws" + config.ServerURL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		fmt.Printf("Observer: connection failed: %v\n", err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		atomic.AddInt64(&stats.EventsReceived, 1)
	}
}

func runPlayer(ctx context.Context, playerID int, config Config, stats *Stats) {
	id := fmt.Sprintf("agitator_%03d", playerID)
	client := &http.Client{Timeout: 10 * time.Second}

	// Each agitator joins a random faction first. Duplicates and unknown
	// players come back as success:false, which is fine for load purposes.
	joinBody, _ := json.Marshal(map[string]string{
		"playerId": id,
		"faction":  factions[rand.Intn(len(factions))],
	})
	client.Post(config.ServerURL+"/api/join-faction", "application/json", bytes.NewReader(joinBody))

	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			endpoint := actionEndpoints[rand.Intn(len(actionEndpoints))]
			body, _ := json.Marshal(map[string]interface{}{
				"playerId": id,
				"cost":     5 + rand.Intn(10),
			})

			start := time.Now()
			resp, err := client.Post(config.ServerURL+endpoint, "application/json", bytes.NewReader(body))
			latency := time.Since(start)

			if err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				continue
			}

			var result struct {
				Success bool `json:"success"`
			}
			json.NewDecoder(resp.Body).Decode(&result)
			resp.Body.Close()

			atomic.AddInt64(&stats.RequestsSent, 1)
			if resp.StatusCode != http.StatusOK {
				atomic.AddInt64(&stats.Errors, 1)
			} else if !result.Success {
				atomic.AddInt64(&stats.Rejections, 1)
			}

			stats.mu.Lock()
			stats.Latencies = append(stats.Latencies, latency)
			stats.mu.Unlock()
		}
	}
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("📊 STRESS TEST RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.RequestsSent)
	rejected := atomic.LoadInt64(&stats.Rejections)
	recv := atomic.LoadInt64(&stats.EventsReceived)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Requests Sent:   %d\n", sent)
	fmt.Printf("Rejections:      %d (out of energy / no faction)\n", rejected)
	fmt.Printf("Events Received: %d\n", recv)
	fmt.Printf("Errors:          %d\n", errs)
	fmt.Printf("Error Rate:      %.2f%%\n", float64(errs)/float64(sent+1)*100)

	throughput := float64(sent) / config.TestDuration.Seconds()
	fmt.Printf("Throughput:      %.2f req/sec\n", throughput)

	if len(stats.Latencies) > 0 {
		var total time.Duration
		var min, max time.Duration = stats.Latencies[0], stats.Latencies[0]

		for _, l := range stats.Latencies {
			total += l
			if l < min {
				min = l
			}
			if l > max {
				max = l
			}
		}

		avg := total / time.Duration(len(stats.Latencies))

		fmt.Printf("\nLatency:\n")
		fmt.Printf("  Min: %v\n", min)
		fmt.Printf("  Avg: %v\n", avg)
		fmt.Printf("  Max: %v\n", max)
	}

	fmt.Println("\n-----------------------------------------")
	if errs == 0 {
		fmt.Println("✅ TEST PASSED: System handled the load")
	} else if float64(errs)/float64(sent+1) < 0.05 {
		fmt.Println("⚠️ TEST WARNING: Some errors detected")
	} else {
		fmt.Println("❌ TEST FAILED: High error rate")
	}
	fmt.Println("=========================================")

	results := map[string]interface{}{
		"requests_sent":      sent,
		"rejections":         rejected,
		"events_received":    recv,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"config": map[string]interface{}{
			"clients":  config.NumClients,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}

	jsonData, _ := json.MarshalIndent(results, "", "  ")
	os.WriteFile("stress_test_results.json", jsonData, 0644)
	fmt.Println("\n📁 Results saved to stress_test_results.json")
}
