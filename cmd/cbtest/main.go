// cbtest probes a running student service and reports how its guarded
// routes behave: normal answers, fallbacks, timeouts, concurrent delays and
// the resulting circuit breaker state.
//
// Usage:
//
//	go run ./cmd/cbtest -url http://localhost:8080
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

type record map[string]string

type breakerStatus struct {
	State  string `json:"state"`
	Counts struct {
		Calls        int     `json:"calls"`
		FailedCalls  int     `json:"failed_calls"`
		SlowCalls    int     `json:"slow_calls"`
		FailureRate  float64 `json:"failure_rate"`
		SlowCallRate float64 `json:"slow_call_rate"`
	} `json:"counts"`
}

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "Student service URL")
		requests    = flag.Int("requests", 10, "Requests per phase")
		concurrency = flag.Int("concurrency", 10, "Concurrent delayed lookups")
		skipSlow    = flag.Bool("skip-slow", false, "Skip the slow and timeout phase")
	)
	flag.Parse()

	client := resty.New().
		SetBaseURL(*baseURL).
		SetTimeout(15 * time.Second)

	banner("STUDENT SERVICE CIRCUIT BREAKER PROBE")

	// PHASE 1: normal operation
	phase("PHASE 1: Normal Operation")
	var students []record
	resp, err := client.R().SetResult(&students).Get("/students")
	if err != nil {
		fail("  ✗ Service unreachable: %v", err)
		os.Exit(1)
	}
	fmt.Printf("  GET /students → %d (%d students, %v)\n", resp.StatusCode(), len(students), resp.Time())

	ok := 0
	for i := 0; i < *requests; i++ {
		var rec record
		if _, err := client.R().SetResult(&rec).Get("/students/1"); err == nil && rec["name"] != "Unknown" {
			ok++
		}
	}
	report(ok == *requests, "  %d/%d lookups of id 1 returned the stored student", ok, *requests)
	fmt.Println()

	// PHASE 2: fallbacks
	phase("PHASE 2: Fallback On Missing Student")
	fallbacks := 0
	for i := 0; i < *requests; i++ {
		var rec record
		if _, err := client.R().SetResult(&rec).Get("/students/999"); err == nil && rec["name"] == "Unknown" {
			fallbacks++
		}
	}
	report(fallbacks == *requests, "  %d/%d lookups of id 999 returned the fallback", fallbacks, *requests)
	fmt.Println()

	// PHASE 3: slow and timed out listings
	if !*skipSlow {
		phase("PHASE 3: Slow And Timed Out Listings")
		for _, seconds := range []int{1, 4} {
			var list []record
			resp, err := client.R().SetResult(&list).Get(fmt.Sprintf("/students/delay/%d", seconds))
			if err != nil {
				fail("  GET /students/delay/%d failed: %v", seconds, err)
				continue
			}

			unavailable := len(list) == 1 && list[0]["error"] != ""
			fmt.Printf("  GET /students/delay/%d → %d records, unavailable=%t (%v)\n",
				seconds, len(list), unavailable, resp.Time())
		}
		fmt.Println()
	}

	// PHASE 4: delays must not serialize requests
	phase("PHASE 4: Concurrent Delayed Lookups")
	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client.R().Get("/students/2?delay=1")
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)
	report(elapsed < 2*time.Second, "  %d lookups with a 1s delay took %v", *concurrency, elapsed.Round(time.Millisecond))
	fmt.Println()

	// PHASE 5: breaker state
	phase("PHASE 5: Circuit Breaker Status")
	var breakers map[string]breakerStatus
	if _, err := client.R().SetResult(&breakers).Get("/circuitbreakers"); err != nil {
		fmt.Printf(colorYellow+"  Could not fetch breakers: %v\n"+colorReset, err)
	} else {
		names := make([]string, 0, len(breakers))
		for name := range breakers {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			b := breakers[name]
			color := colorGreen
			if b.State != "CLOSED" {
				color = colorRed
			}
			fmt.Printf("    %s → %s%s%s (calls: %d, failure rate: %.1f%%, slow rate: %.1f%%)\n",
				name, color, b.State, colorReset, b.Counts.Calls, b.Counts.FailureRate, b.Counts.SlowCallRate)
		}
	}
	fmt.Println()

	banner("PROBE COMPLETE")
	fmt.Println("Check the service logs for fallback warnings and state changes.")
}

func banner(title string) {
	fmt.Println(colorCyan + "╔════════════════════════════════════════════════════════════════╗" + colorReset)
	fmt.Printf(colorCyan+"║  %-62s║\n"+colorReset, title)
	fmt.Println(colorCyan + "╚════════════════════════════════════════════════════════════════╝" + colorReset)
	fmt.Println()
}

func phase(title string) {
	fmt.Println(colorBlue + "━━━ " + title + " ━━━" + colorReset)
}

func report(passed bool, format string, args ...any) {
	if passed {
		fmt.Printf(colorGreen+"✓"+format+"\n"+colorReset, args...)
		return
	}
	fmt.Printf(colorYellow+"⚠"+format+"\n"+colorReset, args...)
}

func fail(format string, args ...any) {
	fmt.Printf(colorRed+format+"\n"+colorReset, args...)
}
