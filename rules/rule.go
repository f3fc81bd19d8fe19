package rules

import (
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/rampart/rampart-core/orders"
)

// ActionFunc stages orders on the turn queue when a rule's condition is true.
type ActionFunc func(env RuleEnv, q *orders.Queue) error

// Rule is the atomic unit of behavior: a condition → action pair.
// The engine evaluates rules by priority and uses Category + Exclusive
// to keep conflicting decisions (hold fire vs. launch) apart.
type Rule struct {
	Name         string      // human-readable identifier
	Priority     int         // higher = evaluated first
	Category     string      // grouping for exclusive semantics
	Exclusive    bool        // if true, blocks lower-priority rules in same category
	ConditionSrc string      // expr source
	program      *vm.Program // compiled bytecode
	Action       ActionFunc
}
