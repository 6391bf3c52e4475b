package main

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/capsulemaker/internal/assets"
	"github.com/Faultbox/capsulemaker/internal/config"
	"github.com/Faultbox/capsulemaker/internal/logger"
	"github.com/Faultbox/capsulemaker/internal/scene"
)

// batch produces every preset with a pool of workers. Results and errors
// are indexed like presets. Objects instantiated on the way are collected
// into the returned scene.
func batch(cfg *config.Config, presets []config.Preset, workers int) (*scene.Scene, []*result, []error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(presets))

	start := time.Now()
	mgr := assets.NewManager()
	defer mgr.Close()

	results := make([]*result, len(presets))
	errs := make([]error, len(presets))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = produce(mgr, cfg, presets[i].Capsule, presets[i].Name)
			}
		}()
	}
	for i := range presets {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sc := scene.New()
	for _, res := range results {
		if res != nil && res.Object != nil {
			sc.Add(res.Object)
		}
	}

	hits, misses := mgr.Stats()
	logger.Info("batch finished",
		zap.Int("presets", len(presets)),
		zap.Int("workers", workers),
		zap.Int("objects", sc.Len()),
		zap.Int("cache_hits", hits),
		zap.Int("cache_misses", misses),
		logger.Elapsed(start))
	return sc, results, errs
}
