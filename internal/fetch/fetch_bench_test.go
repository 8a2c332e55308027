package fetch

import (
    "context"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/hyperifyio/sheetlink/internal/cache"
)

// Benchmark the fetch.Client under different concurrency caps, with and
// without the conditional-GET cache.
func BenchmarkClient_FetchConcurrencyAndCache(b *testing.B) {
	mux := http.NewServeMux()
	mux.HandleFunc("/result.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("ETag", `"bench"`)
		if r.Header.Get("If-None-Match") == `"bench"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		_, _ = w.Write([]byte(findingsJSON))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	runScenario := func(name string, maxConc int, withCache bool) {
		b.Run(name, func(b *testing.B) {
			cli := &Client{
				HTTPClient:        ts.Client(),
				UserAgent:         "bench/1",
				MaxAttempts:       1,
				PerRequestTimeout: 2 * time.Second,
				MaxConcurrent:     maxConc,
			}
			if withCache {
				cli.Cache = &cache.HTTPCache{Dir: b.TempDir()}
			}
			url := ts.URL + "/result.json"
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					_, _, err := cli.Get(ctx, url)
					cancel()
					if err != nil {
						b.Fatalf("fetch failed: %v", err)
					}
				}
			})
		})
	}

	runScenario("conc=1,no-cache", 1, false)
	runScenario("conc=8,no-cache", 8, false)
	runScenario("conc=8,cache", 8, true)
}
