package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nstehr/rampart/rampart-core/attack"
	"github.com/nstehr/rampart/rampart-core/ipc"
	"github.com/nstehr/rampart/rampart-core/model"
	"github.com/nstehr/rampart/rampart-core/nav"
	"github.com/nstehr/rampart/rampart-core/orders"
	"github.com/nstehr/rampart/rampart-core/rules"
	"github.com/nstehr/rampart/rampart-core/sim"
)

// DefaultBudget is the per-turn computation budget.
const DefaultBudget = 4 * time.Second

// Options configure every match an Agent plays.
type Options struct {
	Doctrine rules.Doctrine
	Seed     int64
	Workers  int
	Budget   time.Duration
}

// Agent owns the decision-making for a single match. The match state
// (catalog, engine with its intel, selector) is created when the config
// frame arrives and dropped at game end. Handlers and Reload are
// serialized.
type Agent struct {
	mu sync.Mutex

	Conn     *ipc.Connection
	MatchID  uuid.UUID
	Catalog  model.Catalog
	Engine   *rules.Engine
	Selector *attack.Selector

	opts Options
	ctx  context.Context
	log  *slog.Logger
	prev *stateSnapshot
}

func New(ctx context.Context, conn *ipc.Connection, opts Options) *Agent {
	if opts.Budget <= 0 {
		opts.Budget = DefaultBudget
	}
	return &Agent{Conn: conn, opts: opts, ctx: ctx, log: slog.Default()}
}

// Register installs the agent's frame handlers on its connection.
func (a *Agent) Register() {
	a.Conn.RegisterHandler(ipc.TypeConfig, a.HandleConfig)
	a.Conn.RegisterHandler(ipc.TypeTurn, a.HandleTurn)
	a.Conn.RegisterHandler(ipc.TypeActionFrame, a.HandleActionFrame)
	a.Conn.RegisterHandler(ipc.TypeEndGame, a.HandleEndGame)
}

// HandleConfig reads the unit catalog and starts a new match. A catalog
// that fails to parse falls back to the defaults.
func (a *Agent) HandleConfig(env ipc.Envelope) (*ipc.Submission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var cfg ipc.ConfigMessage
	if err := json.Unmarshal(env.Data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cat, err := model.ParseCatalog(cfg.UnitInformation)
	if err != nil {
		slog.Warn("unit catalog rejected, using defaults", "error", err)
		cat = model.DefaultCatalog()
	}
	return nil, a.startMatch(cat)
}

func (a *Agent) startMatch(cat model.Catalog) error {
	engine, err := rules.NewEngine(a.opts.Doctrine)
	if err != nil {
		return fmt.Errorf("start match: %w", err)
	}
	a.MatchID = uuid.New()
	a.Catalog = cat
	a.Engine = engine
	a.prev = nil
	a.log = slog.Default().With("match", a.MatchID.String())

	d := engine.Doctrine()
	s := &sim.Simulator{Catalog: &a.Catalog, Router: nav.Pathfinder{}, Side: model.Self}
	a.Selector = attack.NewSelector(s, d.Tolerance, a.opts.Workers, a.opts.Seed)
	a.Selector.Unit = d.WaveUnit

	a.log.Info("match started",
		"doctrine", d.Name,
		"waveUnit", d.WaveUnit,
		"seed", a.opts.Seed,
		"workers", a.Selector.Workers,
		"budget", a.opts.Budget,
	)
	return nil
}

// HandleTurn runs the attack phase, then the rules, and returns the turn's
// build and deploy stacks.
func (a *Agent) HandleTurn(env ipc.Envelope) (*ipc.Submission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Engine == nil {
		// A turn before any config; play on contest defaults.
		if err := a.startMatch(model.DefaultCatalog()); err != nil {
			return nil, err
		}
	}
	var f ipc.FrameMessage
	if err := json.Unmarshal(env.Data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal turn: %w", err)
	}
	gs, err := f.GameState(&a.Catalog)
	if err != nil {
		return nil, fmt.Errorf("decode turn %d: %w", f.Turn(), err)
	}
	start := time.Now()

	a.Engine.Intel.StartTurn(gs.Enemy().MP)
	events := detectEvents(&gs, a.prev)
	applyEvents(a.Engine.Intel, events)
	logEvents(a.log, gs.Turn, events)

	ctx, cancel := context.WithTimeout(a.ctx, a.opts.Budget)
	defer cancel()

	q := orders.New(&gs, &a.Catalog)
	choice := a.forecast(ctx, q)
	if err := a.Engine.Evaluate(q, choice); err != nil {
		a.log.Error("rule engine error", "error", err)
	}

	snap := takeSnapshot(q.State())
	a.prev = &snap

	sub := q.Submission()
	a.log.Info("turn submitted",
		"turn", gs.Turn,
		"health", gs.Me().Health,
		"enemyHealth", gs.Enemy().Health,
		"sp", q.State().Me().SP,
		"mp", q.State().Me().MP,
		"build", len(sub.Build),
		"deploy", len(sub.Deploy),
		"elapsed", time.Since(start),
	)
	return &sub, nil
}

// forecast simulates a wave of the whole MP pool from every legal deploy
// cell. It returns nil when no wave can be formed.
func (a *Agent) forecast(ctx context.Context, q *orders.Queue) *attack.Choice {
	unit := a.Selector.Unit
	cost := a.Catalog.Stats(unit, false).CostMP
	if cost <= 0 {
		cost = 1
	}
	n := int(math.Floor(q.State().Me().MP / cost))
	if n < 1 {
		return nil
	}
	candidates := attack.Candidates(func(l model.Location) bool {
		return q.CanSpawn(unit, l, 1)
	})
	choice, err := a.Selector.Select(ctx, &q.State().Board, candidates, n)
	if err != nil {
		a.log.Warn("no attack forecast", "turn", q.State().Turn, "error", err)
		return nil
	}
	return &choice
}

// HandleActionFrame feeds opponent breaches and spending into the intel.
func (a *Agent) HandleActionFrame(env ipc.Envelope) (*ipc.Submission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Engine == nil {
		return nil, nil
	}
	var f ipc.FrameMessage
	if err := json.Unmarshal(env.Data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal action frame: %w", err)
	}
	if len(f.P2Stats) > 2 {
		a.Engine.Intel.ObserveSpend(f.P2Stats[2])
	}
	for _, b := range f.Events.Breach {
		if !b.ByOpponent() {
			continue
		}
		a.Engine.Intel.RecordBreach(b.Loc)
		a.log.Debug("breached", "turn", f.Turn(), "loc", b.Loc, "damage", b.Damage)
	}
	return nil, nil
}

// HandleEndGame logs the match summary and drops the match state.
func (a *Agent) HandleEndGame(env ipc.Envelope) (*ipc.Submission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Engine == nil {
		return nil, nil
	}
	var f ipc.FrameMessage
	if err := json.Unmarshal(env.Data, &f); err != nil {
		a.log.Warn("unreadable end frame", "error", err)
	}
	intel := a.Engine.Intel
	a.log.Info("match over",
		"turn", f.Turn(),
		"breaches", intel.Breaches(),
		"structuresLost", intel.Lost(),
		"opponentThreshold", intel.Threshold(),
	)
	a.Engine = nil
	a.Selector = nil
	a.prev = nil
	return nil, nil
}

// Reload swaps in a new doctrine. A match in progress keeps its intel and
// memory and plays the new rules from its next turn.
func (a *Agent) Reload(d rules.Doctrine) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	d.Validate()
	if a.Engine != nil {
		if err := a.Engine.SetDoctrine(d); err != nil {
			return fmt.Errorf("reload: %w", err)
		}
		a.Selector.Tolerance = d.Tolerance
		a.Selector.Unit = d.WaveUnit
	}
	a.opts.Doctrine = d
	a.log.Info("doctrine reloaded", "doctrine", d.Name, "waveUnit", d.WaveUnit)
	return nil
}
