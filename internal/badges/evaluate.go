package badges

import (
	"fmt"
	"slices"

	"github.com/excellere/excellere/internal/logger"
)

// Set is a sorted, duplicate-free list of badge ids.
type Set []ID

// Has reports whether id is in the set.
func (s Set) Has(id ID) bool {
	return slices.Contains(s, id)
}

// Strings returns the ids as strings.
func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, id := range s {
		out[i] = string(id)
	}
	return out
}

// Evaluator runs the catalog predicates.
type Evaluator struct {
	log *logger.Logger
}

// NewEvaluator creates an Evaluator. log may be nil.
func NewEvaluator(log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &Evaluator{log: log.With("component", "badges")}
}

// Evaluate returns every badge whose predicate holds. Each predicate runs
// on its own; one that errors or panics is skipped and the rest still run.
func (e *Evaluator) Evaluate(in Input) Set {
	out := Set{}
	for _, b := range catalog {
		ok, err := run(b, in)
		if err != nil {
			e.log.Debug("badge predicate skipped", "badge", b.ID, "error", err)
			continue
		}
		if ok {
			out = append(out, b.ID)
		}
	}
	slices.Sort(out)
	return out
}

// Evaluate runs the catalog without logging.
func Evaluate(in Input) Set {
	return (&Evaluator{log: logger.Nop()}).Evaluate(in)
}

func run(b Badge, in Input) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("badge %s: %v", b.ID, r)
		}
	}()
	return b.earned(in)
}
