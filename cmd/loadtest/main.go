package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/grain-go/core/actor"
	"github.com/codewandler/grain-go/core/behavior"
	"github.com/codewandler/grain-go/core/dispatch"
	"github.com/codewandler/grain-go/core/host"
	"github.com/codewandler/grain-go/core/typecode"
)

// === Config ===

var (
	logLevel    = slog.LevelInfo
	N           = getEnvInt("N", 200_000)
	numActors   = getEnvInt("ACTORS", 1_000)
	concurrency = getEnvInt("C", runtime.NumCPU()*4)
	batchSize   = getEnvInt("B", 20_000)
	switchEvery = getEnvInt("SWITCH", 100)
	idleTimeout = getEnvDuration("IDLE", 0)
	verbose     = getEnvBool("VERBOSE", false)
)

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	return v == "1" || strings.ToLower(v) == "true"
}

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, fmt.Sprintf("%d", fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		return fallback
	}
	return v
}

// === Domain ===

type (
	Add    struct{ N int }
	Toggle struct{}
)

// Account adds while open and rejects adds while frozen. Every Toggle
// flips between the two behaviors.
type Account struct {
	*actor.Actor
	total int
}

func (*Account) TypeCode() string { return "account" }

func (a *Account) DefineBehaviors() []behavior.Behavior {
	return []behavior.Behavior{
		{Name: "open", OnReceive: a.receive},
		{
			Name: "frozen",
			OnReceive: func(ctx context.Context, msg any) (any, error) {
				if _, ok := msg.(Toggle); ok {
					return a.receive(ctx, msg)
				}
				return a.Unhandled(ctx, msg)
			},
		},
	}
}

func (a *Account) receive(ctx context.Context, msg any) (any, error) {
	return a.Dispatch(ctx, msg, nil)
}

func defineAccounts() *actor.Type[*Account] {
	return actor.MustDefine(typecode.NewRegistry(),
		func(a *actor.Actor) *Account { return &Account{Actor: a} },
		actor.Options{InitialBehavior: "open"},
		dispatch.Handle(func(ctx context.Context, a *Account, m Add) (any, error) {
			a.total += m.N
			return a.total, nil
		}),
		dispatch.HandleMsg(func(ctx context.Context, a *Account, _ Toggle) error {
			if a.Behavior().Name == "open" {
				return a.Become(ctx, "frozen")
			}
			return a.Become(ctx, "open")
		}),
	)
}

func main() {
	if verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	fmt.Printf("     Messages: %d\n", N)
	fmt.Printf("       Actors: %d\n", numActors)
	fmt.Printf("  Concurrency: %d\n", concurrency)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := host.DefaultConfig()
	if idleTimeout != 0 {
		cfg.IdleTimeout = idleTimeout
		cfg.CollectInterval = idleTimeout
	}
	silo := host.New(host.Options{Logger: log, Config: cfg})
	checkErr(silo.Register(defineAccounts()))
	silo.Start(ctx)

	ids := make([]actor.Identity, numActors)
	for i := range ids {
		ids[i] = actor.NewIdentity("account", gonanoid.Must(10))
	}

	// === START ===

	log.Info("==================================")
	log.Info("Starting ...")

	var (
		sent      atomic.Int64
		failed    atomic.Int64
		rejected  atomic.Int64
		startAt   = time.Now()
		lastTime  = startAt
		lastMu    sync.Mutex
		wg        sync.WaitGroup
		perWorker = N / concurrency
	)

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				id := ids[rand.IntN(len(ids))]

				var msg any = Add{N: 1}
				if switchEvery > 0 && rand.IntN(switchEvery) == 0 {
					msg = Toggle{}
				}

				_, err := silo.Ask(ctx, id, msg)
				switch {
				case errors.Is(err, dispatch.ErrUnhandledMessage):
					rejected.Add(1)
				case err != nil:
					failed.Add(1)
					log.Debug("ask failed", slog.String("actor", id.String()), slog.Any("error", err))
				}

				if n := sent.Add(1); n%int64(batchSize) == 0 {
					lastMu.Lock()
					now := time.Now()
					took := now.Sub(lastTime)
					lastTime = now
					lastMu.Unlock()

					mu := getMemUsage()
					fmt.Printf(" | %7d msgs | %6d ms | %8d msgs/s | %5d active | (%d / %d) MiB mem (sys) |\n",
						batchSize, took.Milliseconds(), int(float64(batchSize)/took.Seconds()),
						len(silo.Active()), mu.Alloc/1024/1024, mu.Sys/1024/1024)
				}
			}
		}()
	}
	wg.Wait()

	// === stats ===
	println("")
	println("==========================================")

	took := time.Since(startAt)
	active := len(silo.Active())
	checkErr(silo.Stop(context.Background()))
	runtime.GC()

	fmt.Printf("total runtime: %.3f seconds\n", took.Seconds())
	fmt.Printf("     messages: %d\n", sent.Load())
	fmt.Printf("     rejected: %d (frozen)\n", rejected.Load())
	fmt.Printf("       failed: %d\n", failed.Load())
	fmt.Printf("  activations: %d\n", active)
	fmt.Printf("  avg. msgs/s: %d\n", int(float64(sent.Load())/took.Seconds()))
}

// === stats helpers ===

type MemUsage struct {
	Alloc      uint64 // bytes allocated and not yet freed (heap)
	TotalAlloc uint64 // cumulative bytes allocated
	Sys        uint64 // total bytes obtained from OS
	NumGC      uint32 // gc cycles
}

func getMemUsage() MemUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemUsage{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// === Helpers ===

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}
