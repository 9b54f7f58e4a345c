// Package simulation runs permutation trials over a dataset and aggregates
// the resulting statistics into null-hypothesis baselines.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-cheat-contagion/internal/aggregator"
	"github.com/pable/go-cheat-contagion/internal/model"
	"github.com/pable/go-cheat-contagion/internal/shuffle"
	"github.com/pable/go-cheat-contagion/internal/stats"
)

// Statistic selects which pipeline a simulation runs.
type Statistic string

const (
	TeamBuckets      Statistic = "teams"
	VictimCheaters   Statistic = "victims"
	ObserverCheaters Statistic = "observers"
)

// AllStatistics lists every statistic in report order.
var AllStatistics = []Statistic{TeamBuckets, VictimCheaters, ObserverCheaters}

// ParseStatistic maps a CLI name to a Statistic.
func ParseStatistic(s string) (Statistic, error) {
	switch Statistic(s) {
	case TeamBuckets, VictimCheaters, ObserverCheaters:
		return Statistic(s), nil
	}
	return "", fmt.Errorf("unknown statistic %q (want teams, victims or observers)", s)
}

// Title is a human-readable name for report headers.
func (s Statistic) Title() string {
	switch s {
	case TeamBuckets:
		return "Cheaters per team"
	case VictimCheaters:
		return "Victim cheaters"
	case ObserverCheaters:
		return "Observer cheaters"
	default:
		return string(s)
	}
}

// Labels names the scalars the statistic produces.
func (s Statistic) Labels() []string {
	if s == TeamBuckets {
		return aggregator.BucketLabels
	}
	return []string{string(s)}
}

// Config controls a simulation run.
type Config struct {
	Trials  int
	Workers int           // <= 0 means runtime.NumCPU()
	Seed    uint64        // trial i draws from PCG(Seed, i)
	Timeout time.Duration // 0 disables the deadline
}

// Result holds the aggregated baseline of one statistic.
type Result struct {
	Statistic Statistic
	Trials    int
	Observed  []int
	Estimates []model.Estimate
	Elapsed   time.Duration
}

// Driver runs trials for a fixed, read-only dataset.
type Driver struct {
	ds  *model.Dataset
	cfg Config
	log logrus.FieldLogger
}

// New returns a Driver. A nil logger discards log output.
func New(ds *model.Dataset, cfg Config, log logrus.FieldLogger) *Driver {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Driver{ds: ds, cfg: cfg, log: log}
}

// Observed computes the statistic on the unshuffled dataset.
func Observed(ds *model.Dataset, stat Statistic) ([]int, error) {
	switch stat {
	case TeamBuckets:
		return aggregator.CountTeamBuckets(ds.Cheaters, ds.Teams).Values(), nil
	case VictimCheaters:
		return []int{aggregator.VictimCheaters(ds.Kills, ds.Cheaters)}, nil
	case ObserverCheaters:
		return []int{aggregator.ObserverCheaters(ds.Kills, ds.Cheaters)}, nil
	}
	return nil, fmt.Errorf("unknown statistic %q", stat)
}

// trial reshuffles the relevant records with rng and recomputes stat.
func (d *Driver) trial(stat Statistic, rng *rand.Rand) ([]int, error) {
	switch stat {
	case TeamBuckets:
		teams := shuffle.ShuffleTeams(d.ds.Teams, rng)
		return aggregator.CountTeamBuckets(d.ds.Cheaters, teams).Values(), nil
	case VictimCheaters:
		kills, err := shuffle.ShuffleRoles(d.ds.Kills, rng)
		if err != nil {
			return nil, err
		}
		return []int{aggregator.VictimCheaters(kills, d.ds.Cheaters)}, nil
	case ObserverCheaters:
		kills, err := shuffle.ShuffleRoles(d.ds.Kills, rng)
		if err != nil {
			return nil, err
		}
		return []int{aggregator.ObserverCheaters(kills, d.ds.Cheaters)}, nil
	}
	return nil, fmt.Errorf("unknown statistic %q", stat)
}

// Run executes cfg.Trials trials of stat and returns the mean and confidence
// interval of every scalar, alongside the observed values.
func (d *Driver) Run(ctx context.Context, stat Statistic) (*Result, error) {
	if d.cfg.Trials < 1 {
		return nil, fmt.Errorf("trials must be at least 1, got %d", d.cfg.Trials)
	}
	observed, err := Observed(d.ds, stat)
	if err != nil {
		return nil, err
	}
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	log := d.log.WithFields(logrus.Fields{
		"stat":    string(stat),
		"trials":  d.cfg.Trials,
		"workers": d.cfg.Workers,
		"seed":    d.cfg.Seed,
	})
	log.Info("starting simulation")
	began := time.Now()

	outcomes := make([][]int, d.cfg.Trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)
	for i := 0; i < d.cfg.Trials; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(d.cfg.Seed, uint64(i)))
			out, err := d.trial(stat, rng)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			outcomes[i] = out
			log.WithField("trial", i).Debug("trial done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulate %s: %w", stat, err)
	}
	// The loop may stop scheduling without any goroutine reporting it.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("simulate %s: %w", stat, err)
	}

	labels := stat.Labels()
	res := &Result{Statistic: stat, Trials: d.cfg.Trials, Observed: observed}
	for j, label := range labels {
		column := make([]int, len(outcomes))
		for i, out := range outcomes {
			column[i] = out[j]
		}
		est, err := stats.Summarize(label, column)
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", label, err)
		}
		res.Estimates = append(res.Estimates, est)
	}
	res.Elapsed = time.Since(began)
	log.WithField("elapsed", res.Elapsed.Round(time.Millisecond)).Info("simulation finished")
	return res, nil
}

// RunAll runs the given statistics in order, stopping at the first error.
func (d *Driver) RunAll(ctx context.Context, list []Statistic) ([]*Result, error) {
	var out []*Result
	for _, s := range list {
		res, err := d.Run(ctx, s)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// IsTimeout reports whether err came from the run deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
