// Load generator that churns a fixed key universe through SET and DELETE so
// the server rotates through many datafiles.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/0xRadioAc7iv/caskdb/bitcask"
	"github.com/0xRadioAc7iv/caskdb/internal"
	"github.com/0xRadioAc7iv/caskdb/internal/logging"
)

type loadConfig struct {
	host        string
	port        int
	concurrency int
	keys        int
	values      int
	cycles      int
	writes      int
	deletes     int
	pause       time.Duration
}

func main() {
	var cfg loadConfig
	flag.StringVar(&cfg.host, "host", internal.DEFAULT_HOST, "server host")
	flag.IntVar(&cfg.port, "port", internal.DEFAULT_PORT, "server port")
	flag.IntVar(&cfg.concurrency, "workers", 6, "concurrent clients")
	flag.IntVar(&cfg.keys, "keys", 100, "size of the key universe")
	flag.IntVar(&cfg.values, "values", 100, "number of distinct values")
	flag.IntVar(&cfg.cycles, "cycles", 5000, "cycles per worker")
	flag.IntVar(&cfg.writes, "writes", 20, "SETs per cycle")
	flag.IntVar(&cfg.deletes, "deletes", 10, "DELETEs per cycle")
	flag.DurationVar(&cfg.pause, "pause", 10*time.Millisecond, "sleep between cycles")
	flag.Parse()

	logger := logging.New("data-gen", "info", os.Stderr)

	start := time.Now()
	logger.Info("starting churn-heavy load generator", "workers", cfg.concurrency, "cycles", cfg.cycles)

	keys := makeKeys(cfg.keys)
	values := makeValues(cfg.values)

	var (
		wg  sync.WaitGroup
		ops atomic.Int64
	)

	for i := 0; i < cfg.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(cfg, logger.With("worker", id), id, keys, values, &ops)
		}(i)
	}

	wg.Wait()
	logger.Info("load finished", "took", time.Since(start), "ops", ops.Load())
}

func runWorker(cfg loadConfig, logger hclog.Logger, id int, keys, values []string, ops *atomic.Int64) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	client, err := bitcask.Connect(bitcask.WithHost(cfg.host), bitcask.WithPort(cfg.port))
	if err != nil {
		logger.Error("connect error", "error", err)
		return
	}
	defer client.Close()

	for cycle := 1; cycle <= cfg.cycles; cycle++ {
		for i := 0; i < cfg.writes; i++ {
			if _, err := client.SET(keys[rng.Intn(len(keys))], values[rng.Intn(len(values))]); err != nil {
				logger.Error("SET error", "error", err)
				return
			}
			ops.Add(1)
		}

		for i := 0; i < cfg.deletes; i++ {
			if _, err := client.DELETE(keys[rng.Intn(len(keys))]); err != nil {
				logger.Error("DELETE error", "error", err)
				return
			}
			ops.Add(1)
		}

		// overwrite half again to leave stale records behind
		for i := 0; i < cfg.writes/2; i++ {
			if _, err := client.SET(keys[rng.Intn(len(keys))], values[rng.Intn(len(values))]); err != nil {
				logger.Error("rewrite error", "error", err)
				return
			}
			ops.Add(1)
		}

		if cycle%500 == 0 {
			logger.Info("progress", "cycles", cycle)
		}

		if cfg.pause > 0 {
			time.Sleep(cfg.pause)
		}
	}
}

func makeKeys(n int) []string {
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("key-%03d", i)
	}
	return keys
}

func makeValues(n int) []string {
	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = fmt.Sprintf("value-%03d-%s", i, uuid.NewString())
	}
	return values
}
