// Command agentbench drives deposits into bank-account agents from many
// concurrent clients and checks that every balance equals the fold of its
// deposits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"sort"
	"time"

	"facette.io/natsort"
	"github.com/amp-labs/amp-agents/agent"
	"github.com/amp-labs/amp-agents/bgworker"
	"github.com/amp-labs/amp-agents/build"
	"github.com/amp-labs/amp-agents/cli"
	"github.com/amp-labs/amp-agents/future"
	"github.com/amp-labs/amp-agents/lanes"
	"github.com/amp-labs/amp-agents/logger"
	"github.com/amp-labs/amp-agents/script"
	"github.com/amp-labs/amp-agents/shutdown"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readHeaderTimeout = 5 * time.Second

var (
	laneCount   = flag.Int("lanes", 0, "number of lanes (0 reads LANES_COUNT, default one per CPU)")
	accounts    = flag.Int("accounts", 100, "number of account agents")
	clients     = flag.Int("clients", 8, "number of concurrent clients")
	deposits    = flag.Int("deposits", 100, "deposits per client per account")
	amount      = flag.Int("amount", 10, "amount of each deposit")
	metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	linger      = flag.Duration("linger", 0, "keep the metrics server up this long after the run")
	envFile     = flag.String("env-file", "", "load variables from a .env, .json or .yaml file")
	version     = flag.Bool("version", false, "print the version and exit")
)

func main() {
	script.New("agentbench",
		script.WithEnvFileProvider(func() string { return *envFile }),
		script.WithTelemetry("bench"),
	).Run(run)
}

func run(ctx context.Context) error {
	if *version {
		fmt.Println("agentbench", build.Current().Short())

		return nil
	}

	log := logger.Get(ctx)

	cfg, err := lanes.ConfigFromEnv()
	if err != nil {
		return script.ExitWithError(err)
	}

	if *laneCount > 0 {
		cfg.Count = *laneCount
	}

	exec, err := lanes.NewFromConfig(cfg, lanes.WithShutdownHook())
	if err != nil {
		return script.ExitWithError(err)
	}

	if *metricsAddr != "" {
		if err := serveMetrics(*metricsAddr); err != nil {
			return err
		}
	}

	ledger := make([]*agent.Agent[int], *accounts)
	for i := range ledger {
		ledger[i], err = agent.New(exec, 0, agent.WithName(fmt.Sprintf("account-%d", i+1)))
		if err != nil {
			return err
		}
	}

	log.Info("starting run",
		"lanes", exec.Lanes(),
		"accounts", *accounts,
		"clients", *clients,
		"deposits", *deposits)

	start := time.Now()

	err = bgworker.Fan(ctx, *clients, *clients, func(ctx context.Context, _ int) error {
		return client(ctx, ledger)
	})
	if err != nil {
		return script.ExitWithError(err)
	}

	elapsed := time.Since(start)
	perAccount := *clients * *deposits

	fmt.Print(report(exec, elapsed, perAccount*len(ledger)))

	if err := verify(ledger, perAccount * *amount); err != nil {
		return script.ExitWithError(err)
	}

	log.Info("all balances match", "elapsed", elapsed)

	if *linger > 0 && *metricsAddr != "" {
		select {
		case <-ctx.Done():
		case <-time.After(*linger):
		}
	}

	return nil
}

// client deposits into every account and waits for all of its deposits.
func client(ctx context.Context, ledger []*agent.Agent[int]) error {
	pending := make([]*future.Future[int], 0, len(ledger) * *deposits)

	for range *deposits {
		for _, account := range ledger {
			pending = append(pending, account.Update(func(balance int) (int, error) {
				return balance + *amount, nil
			}))
		}
	}

	for _, fut := range pending {
		if _, err := fut.AwaitContext(ctx); err != nil {
			return err
		}
	}

	return nil
}

var errBalanceMismatch = errors.New("balance mismatch")

func verify(ledger []*agent.Agent[int], want int) error {
	var errs []error

	for _, account := range ledger {
		if got := account.Read(); got != want {
			errs = append(errs, fmt.Errorf("%w: %s has %d, want %d", errBalanceMismatch, account.Name(), got, want))
		}
	}

	return errors.Join(errs...)
}

func report(exec *lanes.Executor, elapsed time.Duration, ops int) string {
	stats := exec.Stats()

	sort.Slice(stats, func(i, j int) bool {
		return natsort.Compare(stats[i].Name, stats[j].Name)
	})

	rows := make([]string, 0, len(stats)+2)

	var completed, failed int64

	for _, s := range stats {
		rows = append(rows, fmt.Sprintf("%-16s completed=%-8d failed=%-4d queued=%d",
			s.Name, s.Completed, s.Failed, s.Queued))
		completed += s.Completed
		failed += s.Failed
	}

	rows = append(rows, "-", fmt.Sprintf("%-16s completed=%-8d failed=%-4d %.0f ops/s",
		"total", completed, failed, float64(ops)/elapsed.Seconds()))

	return cli.Panel(exec.Name()+" lanes", rows, cli.DefaultWidth)
}

func serveMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	shutdown.BeforeShutdown(func() {
		ctx, cancel := context.WithTimeout(context.Background(), readHeaderTimeout)
		defer cancel()

		_ = server.Shutdown(ctx)
	})

	return bgworker.Go(func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get().Error("metrics server failed", "error", err)
		}
	})
}
