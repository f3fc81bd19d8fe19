// Package attack picks where to release a wave. Every legal deploy cell is
// simulated on its own board copy; the outcomes are ranked and a cell is
// chosen, preferring one that dodges the best cell's kill zone.
package attack

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"slices"

	"github.com/nstehr/rampart/rampart-core/model"
	"github.com/nstehr/rampart/rampart-core/sim"
	"golang.org/x/sync/errgroup"
)

var ErrNoCandidates = errors.New("no deploy candidates")

// Tolerance controls diversification.
type Tolerance struct {
	// Survivors is the fraction of the wave a diversified pick may lose
	// relative to the best.
	Survivors float64 `yaml:"survivors"`
	// Support is the relative slack on support damage.
	Support float64 `yaml:"support"`
	// Window is how many ranked outcomes are scanned.
	Window int `yaml:"window"`
	// RunnerUps bounds the random pick when nothing diversifies.
	RunnerUps int `yaml:"runner_ups"`
}

func DefaultTolerance() Tolerance {
	return Tolerance{Survivors: 0.2, Support: 0.2, Window: 8, RunnerUps: 2}
}

// Choice is the selector's verdict.
type Choice struct {
	Outcome     sim.Outcome
	Ranked      []sim.Outcome
	Diversified bool
	// Degraded is set when the deadline cut trials short.
	Degraded bool
}

func (c Choice) Location() model.Location { return c.Outcome.Wave.Start }
func (c Choice) Survivors() int           { return c.Outcome.Survivors }

// Selector is not safe for concurrent use: it owns its random source.
type Selector struct {
	Sim       *sim.Simulator
	Tolerance Tolerance
	Workers   int
	Unit      model.UnitType
	rng       *rand.Rand
}

func NewSelector(s *sim.Simulator, tol Tolerance, workers int, seed int64) *Selector {
	if workers < 1 {
		workers = 1
	}
	return &Selector{Sim: s, Tolerance: tol, Workers: workers, Unit: model.Scout, rng: NewRand(seed)}
}

// Candidates returns the deploy cells that pass legal, in engine order.
func Candidates(legal func(model.Location) bool) []model.Location {
	var out []model.Location
	for _, l := range model.DeployCells() {
		if legal(l) {
			out = append(out, l)
		}
	}
	return out
}

// Select simulates a wave of n units from every candidate and picks one.
// If ctx expires, only finished trials are ranked; with none finished the
// first candidate is returned with zero predicted survivors.
func (s *Selector) Select(ctx context.Context, board *model.Board, candidates []model.Location, n int) (Choice, error) {
	if len(candidates) == 0 {
		return Choice{}, ErrNoCandidates
	}

	results := make([]sim.Outcome, len(candidates))
	done := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for i, cell := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			out, err := s.Sim.Run(board, sim.Wave{Start: cell, Size: n, Unit: s.Unit})
			if err != nil {
				slog.Warn("skipping deploy candidate", "loc", cell, "error", err)
				return nil
			}
			results[i] = out
			done[i] = true
			return nil
		})
	}
	// Trials never return errors; Wait only joins them.
	_ = g.Wait()

	ranked := make([]sim.Outcome, 0, len(candidates))
	for i, ok := range done {
		if ok {
			ranked = append(ranked, results[i])
		}
	}
	degraded := len(ranked) < len(candidates)
	if len(ranked) == 0 {
		slog.Warn("no simulation finished, falling back", "loc", candidates[0], "error", ctx.Err())
		return Choice{
			Outcome:  sim.Outcome{Wave: sim.Wave{Start: candidates[0], Size: n, Unit: s.Unit}},
			Degraded: true,
		}, nil
	}

	slices.SortStableFunc(ranked, Compare)
	pick, diversified := s.choose(ranked, n)
	slog.Debug("attack site selected",
		"loc", pick.Wave.Start,
		"survivors", pick.Survivors,
		"wave", n,
		"diversified", diversified,
		"simulated", len(ranked),
		"candidates", len(candidates),
	)
	return Choice{Outcome: pick, Ranked: ranked, Diversified: diversified, Degraded: degraded}, nil
}

// Compare orders outcomes best first: survivors, then damage to supports,
// turrets and walls, then by deploy cell so the order never depends on
// which trial finished first.
func Compare(a, b sim.Outcome) int {
	if c := cmp.Compare(b.Survivors, a.Survivors); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Dealt.Supports, a.Dealt.Supports); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Dealt.Turrets, a.Dealt.Turrets); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Dealt.Walls, a.Dealt.Walls); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Wave.Start.X, b.Wave.Start.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Wave.Start.Y, b.Wave.Start.Y)
}

func (s *Selector) choose(ranked []sim.Outcome, n int) (sim.Outcome, bool) {
	best := ranked[0]
	if alt, ok := s.diversify(ranked, n); ok {
		return alt, true
	}
	k := min(len(ranked), max(s.Tolerance.RunnerUps, 1))
	if k == 1 {
		return best, false
	}
	return ranked[s.rng.Intn(k)], false
}

// diversify looks for a near-best outcome fired on by none of the best
// outcome's attackers.
func (s *Selector) diversify(ranked []sim.Outcome, n int) (sim.Outcome, bool) {
	best := ranked[0]
	limit := min(len(ranked), s.Tolerance.Window)
	if len(best.Attackers) == 0 || limit < 2 {
		return sim.Outcome{}, false
	}
	slack := int(math.Ceil(float64(n) * s.Tolerance.Survivors))
	for _, c := range ranked[1:limit] {
		if !best.Disjoint(c) {
			continue
		}
		if best.Survivors-c.Survivors >= slack {
			continue
		}
		if math.Abs(best.Dealt.Supports-c.Dealt.Supports) > s.Tolerance.Support*best.Dealt.Supports {
			continue
		}
		return c, true
	}
	return sim.Outcome{}, false
}
