package rules

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/rampart/rampart-core/attack"
	"github.com/nstehr/rampart/rampart-core/defense"
	"github.com/nstehr/rampart/rampart-core/orders"
)

// Memory keys shared between rules within a match.
const (
	memLaunchTurn  = "launchTurn"
	memLaunchLoc   = "launchLoc"
	memLaunchRoute = "launchRoute"
	memResortFlank = "resortFlank"
	memGapTurn     = "gapTurn"
)

// Engine runs compiled rules against the turn queue once per turn.
// Rules fire in priority order; exclusive rules block lower-priority rules
// in the same category, so holding fire and launching never both happen.
// The rule set may be swapped from another goroutine; Evaluate, Intel and
// Memory belong to the goroutine playing the match.
type Engine struct {
	mu       sync.RWMutex
	rules    []*Rule
	doctrine Doctrine
	defense  *defense.Reinforcer
	Intel    *Intel
	Memory   map[string]any
}

// NewEngine compiles the doctrine's rules and starts fresh intel.
func NewEngine(d Doctrine) (*Engine, error) {
	d.Validate()
	compiled, err := compileRules(CompileDoctrine(d))
	if err != nil {
		return nil, err
	}
	return &Engine{
		rules:    compiled,
		doctrine: d,
		defense:  defense.NewReinforcer(d.Defense),
		Intel:    NewIntel(d.OpponentSpendMin),
		Memory:   make(map[string]any),
	}, nil
}

func (e *Engine) Doctrine() Doctrine {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doctrine
}

// Evaluate runs all rules against the queue. forecast may be nil when no
// wave could be simulated.
func (e *Engine) Evaluate(q *orders.Queue, forecast *attack.Choice) error {
	e.mu.RLock()
	rules := e.rules
	doctrine := e.doctrine
	reinforcer := e.defense
	e.mu.RUnlock()

	env := RuleEnv{
		State:    q.State(),
		Forecast: forecast,
		Intel:    e.Intel,
		Doctrine: &doctrine,
		Defense:  reinforcer,
		Memory:   e.Memory,
	}
	fired := make(map[string]bool) // category → exclusive rule already fired

	anyFired := false
	for _, r := range rules {
		if fired[r.Category] {
			continue
		}

		result, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("rule condition error", "rule", r.Name, "error", err)
			continue
		}

		match, ok := result.(bool)
		if !ok || !match {
			continue
		}

		anyFired = true
		slog.Debug("rule fired", "rule", r.Name, "priority", r.Priority, "category", r.Category)

		if err := r.Action(env, q); err != nil {
			slog.Error("rule action error", "rule", r.Name, "error", err)
		}

		if r.Exclusive {
			fired[r.Category] = true
		}
	}

	if !anyFired {
		slog.Warn("no rule fired", "turn", env.Turn(), "sp", env.SP(), "mp", env.MP())
	}
	return nil
}

// Swap atomically replaces the rule set. Compiles first; if compilation
// fails the old rules remain active.
func (e *Engine) Swap(newRules []*Rule) error {
	compiled, err := compileRules(newRules)
	if err != nil {
		return err
	}
	names := make([]string, len(compiled))
	for i, r := range compiled {
		names[i] = r.Name
	}
	e.mu.Lock()
	e.rules = compiled
	e.mu.Unlock()
	slog.Info("rule set swapped", "count", len(compiled), "rules", names)
	return nil
}

// SetDoctrine recompiles the rules from d and swaps them in along with the
// thresholds the actions read. Intel and Memory carry over.
func (e *Engine) SetDoctrine(d Doctrine) error {
	d.Validate()
	if err := e.Swap(CompileDoctrine(d)); err != nil {
		return fmt.Errorf("set doctrine %q: %w", d.Name, err)
	}
	e.mu.Lock()
	e.doctrine = d
	e.defense = defense.NewReinforcer(d.Defense)
	e.mu.Unlock()
	slog.Info("doctrine set", "name", d.Name)
	return nil
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	for _, r := range rules {
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(RuleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules, nil
}
