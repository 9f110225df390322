// Command bench runs a synthetic workload against SMap, Trie, and TCache
// and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	pmet "github.com/nsavostin/ccl/metrics/prom"
	"github.com/nsavostin/ccl/smap"
	"github.com/nsavostin/ccl/stack"
	"github.com/nsavostin/ccl/tcache"
	"github.com/nsavostin/ccl/trie"
)

func main() {
	var (
		target   = flag.String("target", "smap", "container to drive: smap | trie | stack | tcache")
		shards   = flag.Uint("shards", 0, "SMap/TCache shard log2 (0 = default() heuristic)")
		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")
		keys     = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS    = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV    = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload  = flag.Int("preload", 100_000, "preload entries")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	smapMetrics := pmet.NewSMapAdapter(nil, "ccl", "bench_smap", nil)
	trieMetrics := pmet.NewTrieAdapter(nil, "ccl", "bench_trie", nil)
	tcacheMetrics := pmet.NewTCacheAdapter(nil, "ccl", "bench_tcache", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	var reads, writes, hits, misses, total uint64
	report := func(elapsed time.Duration) {
		ops := atomic.LoadUint64(&total)
		readsN := atomic.LoadUint64(&reads)
		writesN := atomic.LoadUint64(&writes)
		hitsN := atomic.LoadUint64(&hits)
		missesN := atomic.LoadUint64(&misses)
		hitRate := 0.0
		if readsN > 0 {
			hitRate = float64(hitsN) / float64(readsN) * 100
		}
		fmt.Printf("target=%s workers=%d keys=%d dur=%v seed=%d\n", *target, *workers, *keys, elapsed, *seed)
		fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n", ops, float64(ops)/elapsed.Seconds(), readsN, writesN)
		fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, missesN, hitRate)
	}

	keysMax := uint64(*keys - 1)
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(context.Background())

	runWorker := func(id int, op func(key string, isRead bool, rng *rand.Rand)) {
		g.Go(func() error {
			localR := rand.New(rand.NewSource(*seed + int64(id)*9973))
			localZipf := rand.NewZipf(localR, *zipfS, *zipfV, keysMax)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-gctx.Done():
					return nil
				default:
				}
				atomic.AddUint64(&total, 1)
				key := strconv.FormatUint(localZipf.Uint64(), 10)
				isRead := int(localR.Int31n(100)) < *readPct
				if isRead {
					atomic.AddUint64(&reads, 1)
				} else {
					atomic.AddUint64(&writes, 1)
				}
				op(key, isRead, localR)
			}
		})
	}

	switch *target {
	case "smap":
		var m *smap.SMap[string, string]
		if *shards > 0 {
			m = smap.New[string, string](*shards, smap.WithMetrics[string, string](smapMetrics))
		} else {
			m = smap.Default[string, string](smap.WithMetrics[string, string](smapMetrics))
		}
		for i := 0; i < *preload; i++ {
			k := strconv.Itoa(i)
			m.Insert(k, "v"+k)
		}
		for w := 0; w < workersN; w++ {
			runWorker(w, func(key string, isRead bool, rng *rand.Rand) {
				if isRead {
					if ref, ok := m.Get(key); ok {
						atomic.AddUint64(&hits, 1)
						ref.Release()
					} else {
						atomic.AddUint64(&misses, 1)
					}
					return
				}
				m.Insert(key, "v"+strconv.Itoa(rng.Int()))
			})
		}
		g.Wait()
		fmt.Printf("Len()=%d\n", m.Len())

	case "trie":
		tr := trie.New[string, string](trie.WithMetrics[string, string](trieMetrics))
		for i := 0; i < *preload; i++ {
			k := strconv.Itoa(i)
			tr.Insert(k, "v"+k)
		}
		for w := 0; w < workersN; w++ {
			runWorker(w, func(key string, isRead bool, rng *rand.Rand) {
				if isRead {
					if ref, ok := tr.Get(key); ok {
						atomic.AddUint64(&hits, 1)
						ref.Release()
					} else {
						atomic.AddUint64(&misses, 1)
					}
					return
				}
				tr.Insert(key, "v"+strconv.Itoa(rng.Int()))
			})
		}
		g.Wait()

	case "stack":
		s := stack.New[string]()
		for i := 0; i < *preload; i++ {
			s.Push(strconv.Itoa(i))
		}
		for w := 0; w < workersN; w++ {
			runWorker(w, func(key string, isRead bool, _ *rand.Rand) {
				if isRead {
					if _, ok := s.Pop(); ok {
						atomic.AddUint64(&hits, 1)
					} else {
						atomic.AddUint64(&misses, 1)
					}
					return
				}
				s.Push(key)
			})
		}
		g.Wait()

	case "tcache":
		load := func(k string) (string, bool) { return "loaded-" + k, true }
		save := func(string, string) bool { return true }
		tcOpts := []tcache.Option[string, string]{tcache.WithMetrics[string, string](tcacheMetrics)}
		if *shards > 0 {
			tcOpts = append(tcOpts, tcache.WithShards[string, string](*shards))
		}
		tc := tcache.New[string, string](load, save, tcOpts...)
		for w := 0; w < workersN; w++ {
			runWorker(w, func(key string, isRead bool, _ *rand.Rand) {
				if isRead {
					tc.Map(key, func(string) { atomic.AddUint64(&hits, 1) })
					return
				}
				tc.MapMut(key, func(v *string) { *v = *v + "!" })
			})
		}
		go func() {
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					tc.DoCheck()
				}
			}
		}()
		g.Wait()
		fmt.Printf("Len()=%d\n", tc.Len())

	default:
		log.Fatalf("unknown target: %q (use smap, trie, stack, or tcache)", *target)
	}

	report(time.Since(start))
}
