package session

import (
	"math"

	"github.com/dyluth/warren/internal/allocation"
	"github.com/dyluth/warren/internal/followup"
	"github.com/dyluth/warren/pkg/scenario"
)

// View is everything a front end needs to render the current state.
type View struct {
	Index    int  `json:"index"`
	Furthest int  `json:"furthest"`
	Len      int  `json:"len"`
	Percent  int  `json:"percent"`
	Complete bool `json:"complete"`
	Finished bool `json:"finished"`
	Ghost    bool `json:"ghost"`
	Fallback bool `json:"fallback"`

	Screen      *scenario.Instance  `json:"screen,omitempty"`
	Value       int                 `json:"value"`
	APercent    int                 `json:"a_pct"`
	BPercent    int                 `json:"b_pct"`
	Outcomes    allocation.Outcomes `json:"outcomes"`
	Unlocked    bool                `json:"unlocked"`
	Touched     bool                `json:"touched"`
	Confirmed   bool                `json:"confirmed"`
	ViewingPast bool                `json:"viewing_past"`
	Locked      bool                `json:"locked"`
	CanConfirm  bool                `json:"can_confirm"`

	Followup followup.Step     `json:"followup"`
	Options  []followup.Option `json:"options,omitempty"`

	// Break screen.
	BreakPercent  int `json:"break_pct,omitempty"`
	NextInflation int `json:"next_inflation,omitempty"`

	// Final follow-up.
	DiffMessage string               `json:"diff_message,omitempty"`
	Comparison  *followup.Comparison `json:"comparison,omitempty"`
	Factors     []followup.Factor    `json:"factors,omitempty"`
}

// View snapshots the session.
func (s *Session) View() View {
	n := s.flow.Len()
	idx := s.progress.Index()
	v := View{
		Index:    idx,
		Furthest: s.progress.Furthest(),
		Len:      n,
		Percent:  int(math.Round(float64(idx) / float64(n) * 100)),
		Complete: s.progress.Complete(),
		Finished: s.finished,
		Ghost:    s.ghost,
		Fallback: s.flow.Meta.Fallback,
		Followup: s.fup.Open(),
	}

	in, ok := s.Current()
	if !ok {
		return v
	}
	v.Screen = &in
	v.Value = s.alloc.Value()
	v.APercent = s.alloc.APercent()
	v.BPercent = s.alloc.BPercent()
	v.Outcomes = allocation.Compute(float64(in.Safe), float64(in.Up), float64(in.Down), v.Value, s.cfg.Amount)
	v.Unlocked = s.alloc.Unlocked()
	v.Touched = s.alloc.Touched()
	v.Confirmed = s.alloc.Confirmed()
	v.ViewingPast = s.alloc.ViewingPast()
	v.Locked = s.alloc.ControlsLocked()
	v.CanConfirm = !s.alloc.ConfirmDisabled() && !s.fup.Blocking()

	switch v.Followup {
	case followup.StepSanity, followup.StepMidSanity:
		v.Options = s.fup.Options()
	case followup.StepBreak:
		v.BreakPercent = int(math.Round(float64(idx+1) / float64(n) * 100))
		if next, ok := s.flow.At(idx + 1); ok {
			v.NextInflation = next.Inflation
		}
	case followup.StepFinal:
		v.DiffMessage = followup.DiffMessage(s.baselineSpec(), in.Spec())
		cmp := s.fup.FinalComparison()
		v.Comparison = &cmp
		v.Factors = followup.Factors
	}
	return v
}

func (s *Session) baselineSpec() scenario.Spec {
	for _, in := range s.flow.Items {
		if in.IsBaseline {
			return in.Spec()
		}
	}
	return scenario.Baseline
}
