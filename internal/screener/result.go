package screener

import (
	"sort"
	"time"

	"market-screener/internal/strategy"
)

// State is the terminal state of one instrument in one pass.
type State string

const (
	StateNoSignal  State = "NO_SIGNAL"
	StateEarly     State = "EARLY"
	StateConfirmed State = "CONFIRMED"
	StateSkipped   State = "SKIPPED"
	StateFailed    State = "FAILED"
)

// SkipReason explains a SKIPPED result.
type SkipReason string

const (
	SkipFetch        SkipReason = "fetch"
	SkipInsufficient SkipReason = "insufficient"
	SkipCooldown     SkipReason = "cooldown"
)

// Result is the outcome for one instrument.
type Result struct {
	InstID string
	State  State
	Signal *strategy.Signal // set for EARLY and CONFIRMED
	Skip   SkipReason       // set for SKIPPED
	Err    error            // fetch error for SKIPPED(fetch), cause for FAILED
}

// Report aggregates one pass over the universe.
type Report struct {
	PassID   string
	Started  time.Time
	Finished time.Time
	Scanned  int
	Results  []Result

	Early []strategy.Signal // scan order
	Buys  []strategy.Signal // confidence desc
	Sells []strategy.Signal // confidence desc
}

// Empty reports whether the pass produced no signal at all.
func (r *Report) Empty() bool {
	return len(r.Early) == 0 && len(r.Buys) == 0 && len(r.Sells) == 0
}

// Count returns how many results ended in state st.
func (r *Report) Count(st State) int {
	n := 0
	for _, res := range r.Results {
		if res.State == st {
			n++
		}
	}
	return n
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	if res.Signal == nil {
		return
	}
	switch res.Signal.Kind {
	case strategy.KindEarly:
		r.Early = append(r.Early, *res.Signal)
	case strategy.KindBuy:
		r.Buys = append(r.Buys, *res.Signal)
	case strategy.KindSell:
		r.Sells = append(r.Sells, *res.Signal)
	}
}

func (r *Report) rank() {
	byConfidence := func(s []strategy.Signal) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Confidence > s[j].Confidence })
	}
	byConfidence(r.Buys)
	byConfidence(r.Sells)
}
