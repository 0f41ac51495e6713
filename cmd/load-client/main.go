package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/time/rate"
)

// Settings for a load run, read from LOAD_* environment variables
type Settings struct {
	Target    string        `env:"TARGET,default=http://localhost:8080"`
	Workers   int           `env:"WORKERS,default=50"`
	RPS       int           `env:"RPS,default=200"`
	Duration  time.Duration `env:"DURATION,default=30s"`
	Threshold int           `env:"THRESHOLD,default=5"`
	Racers    int           `env:"RACERS,default=20"`
}

// PerfResult gathers aggregated metrics for the test run.
// Atomic counters are used to avoid lock-contention on hot paths.
// LatencySum & P95Latency are in nanoseconds and cover whole journeys.
type PerfResult struct {
	TotalJourneys int64
	SuccessCount  int64
	ErrorCount    int64
	LatencySum    int64
	P95Latency    int64
}

const defaultTimeout = 30 * time.Second

func main() {
	var s Settings
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &s,
		Lookuper: envconfig.PrefixLookuper("LOAD_", envconfig.OsLookuper()),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid settings: %v\n", err)
		os.Exit(1)
	}

	// ─── HTTP Client & Transport ─────────────────────────────────
	transport := &http.Transport{
		MaxIdleConns:        s.Workers * 4,
		MaxIdleConnsPerHost: s.Workers * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   defaultTimeout,
	}
	c := newClients(httpClient, s.Target)

	// ─── Fixture ────────────────────────────────────────────────
	setupCtx, cancelSetup := context.WithTimeout(context.Background(), defaultTimeout)
	fx, err := createFixture(setupCtx, c, s.Threshold)
	cancelSetup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create fixture: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("==========================================")
	fmt.Println("Punchcard load client")
	fmt.Println("==========================================")
	fmt.Printf("Target    : %s\n", s.Target)
	fmt.Printf("Merchant  : %s\n", fx.merchantID)
	fmt.Printf("Program   : %s (threshold %d)\n", fx.programID, fx.threshold)
	fmt.Printf("Join link : %s\n", fx.joinLink)
	fmt.Printf("RPS       : %d\n", s.RPS)
	fmt.Printf("Duration  : %v\n", s.Duration)
	fmt.Println("==========================================")

	// ─── Rate limiter & context ─────────────────────────────────
	burst := s.RPS / s.Workers
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(s.RPS), burst)

	ctx, cancel := context.WithTimeout(context.Background(), s.Duration)
	defer cancel()

	var result PerfResult
	var wg sync.WaitGroup

	// latencyChan collects latencies for P95 estimation.
	latencyChan := make(chan time.Duration, 4096)
	trackerDone := make(chan struct{})
	go func() {
		trackP95(latencyChan, &result)
		close(trackerDone)
	}()

	// ─── Workers ────────────────────────────────────────────────
	var seq atomic.Int64
	for i := 0; i < s.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				doJourney(c, fx, seq.Add(1), &result, latencyChan)
			}
		}()
	}

	start := time.Now()
	<-ctx.Done()

	wg.Wait()
	close(latencyChan)
	<-trackerDone

	totalDur := time.Since(start)

	// ─── Report ─────────────────────────────────────────────────
	fmt.Println("==========================================")
	fmt.Println("Results")
	fmt.Println("==========================================")
	fmt.Printf("Elapsed          : %.2fs\n", totalDur.Seconds())
	fmt.Printf("Journeys         : %d\n", result.TotalJourneys)
	fmt.Printf("Succeeded        : %d\n", result.SuccessCount)
	fmt.Printf("Failed           : %d\n", result.ErrorCount)

	var avgLatency time.Duration
	if result.SuccessCount > 0 {
		avgLatency = time.Duration(result.LatencySum / result.SuccessCount)
	}
	var successRate float64
	if result.TotalJourneys > 0 {
		successRate = float64(result.SuccessCount) / float64(result.TotalJourneys) * 100
	}

	fmt.Printf("Journeys/s       : %.2f\n", float64(result.SuccessCount)/totalDur.Seconds())
	fmt.Printf("Success rate     : %.2f%%\n", successRate)
	fmt.Printf("Avg latency      : %v\n", avgLatency)
	fmt.Printf("P95 latency      : %v\n", time.Duration(result.P95Latency))
	fmt.Println("==========================================")

	// ─── Concurrent redemption check ────────────────────────────
	fmt.Println("Concurrent redemption check")
	fmt.Println("==========================================")

	checkCtx, cancelCheck := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancelCheck()
	if err := verifyRedeemOnce(checkCtx, c, fx, s.Racers); err != nil {
		fmt.Printf("FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK: reward granted exactly once")
	fmt.Println("==========================================")
}
