package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"moove/client"
	"moove/pkg/logger"
)

var (
	targetURL = flag.String("url", "http://localhost:8080", "Theme service base URL")
	themeName = flag.String("theme", "moove", "Theme name")
	contextID = flag.Int64("context", 1, "System context id")
	totalVUs  = flag.Int("c", 200, "Total Virtual Users (Concurrency)")
	rampUp    = flag.Duration("ramp", 30*time.Second, "Ramp up duration")
	duration  = flag.Duration("d", 2*time.Minute, "Test duration")
)

var (
	activeClients int64
	requests      int64
	requestErrors int64
	etagChanges   int64
	latencySum    int64 // microseconds
	latencyCount  int64
)

func main() {
	flag.Parse()
	logger.InitLogger("test")

	fmt.Printf("Starting H5P stylesheet load test\n")
	fmt.Printf("   Target: %s\n", *targetURL)
	fmt.Printf("   VUs: %d\n", *totalVUs)
	fmt.Printf("   Ramp: %v\n", *rampUp)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go report(ctx)

	var wg sync.WaitGroup
	step := time.Duration(0)
	if *totalVUs > 0 {
		step = *rampUp / time.Duration(*totalVUs)
	}

ramp:
	for i := 0; i < *totalVUs; i++ {
		select {
		case <-ctx.Done():
			break ramp
		case <-time.After(step):
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			runVU(ctx)
		}()
	}

	wg.Wait()
	fmt.Printf("Done. requests=%d errors=%d etag_changes=%d\n",
		atomic.LoadInt64(&requests), atomic.LoadInt64(&requestErrors), atomic.LoadInt64(&etagChanges))
}

func runVU(ctx context.Context) {
	atomic.AddInt64(&activeClients, 1)
	defer atomic.AddInt64(&activeClients, -1)

	c := client.NewThemeClient(*targetURL, *themeName, *contextID)
	first := true
	for ctx.Err() == nil {
		start := time.Now()
		sheet, err := c.FetchHVPCSS(ctx, "themehvp.css")
		atomic.AddInt64(&requests, 1)
		if err != nil {
			if ctx.Err() == nil {
				atomic.AddInt64(&requestErrors, 1)
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		atomic.AddInt64(&latencySum, time.Since(start).Microseconds())
		atomic.AddInt64(&latencyCount, 1)
		if sheet.Changed && !first {
			atomic.AddInt64(&etagChanges, 1)
		}
		first = false
	}
}

func report(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			latSum := atomic.SwapInt64(&latencySum, 0)
			latCnt := atomic.SwapInt64(&latencyCount, 0)
			avg := float64(0)
			if latCnt > 0 {
				avg = float64(latSum) / float64(latCnt) / 1000
			}
			fmt.Printf("[stats] active=%d total=%d errors=%d rps=%d avg_latency=%.2fms\n",
				atomic.LoadInt64(&activeClients),
				atomic.LoadInt64(&requests),
				atomic.LoadInt64(&requestErrors),
				latCnt,
				avg)
		}
	}
}
