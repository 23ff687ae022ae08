// Package rows stores the confirmed answers of one respondent session.
package rows

import "github.com/dyluth/warren/pkg/scenario"

// AnswerRow is one confirmed scenario plus any follow-up answers written back
// onto it. Follow-up fields are nil until answered.
type AnswerRow struct {
	Order      int          `json:"order"`
	ScenarioID string       `json:"scenario_id"`
	Tag        scenario.Tag `json:"tag"`
	Safe       int          `json:"s"`
	Up         int          `json:"u"`
	Down       int          `json:"d"`
	P          float64      `json:"p"`
	RiskyShare int          `json:"risky_share"`
	Inflation  int          `json:"pi"`
	IsBaseline bool         `json:"is_baseline"`
	IsSanity   bool         `json:"is_sanity"`
	IsLast     bool         `json:"is_last"`
	IsMirror   bool         `json:"is_mirror"`
	TS         int64        `json:"ts"` // Unix milliseconds
	UA         string       `json:"ua"`
	MsSpent    int64        `json:"ms_spent"`

	ReasonText *string `json:"reason_text,omitempty"`

	SanityPrimary   *string  `json:"sanity_primary,omitempty"`
	SanitySecondary []string `json:"sanity_secondary,omitempty"`
	SanityOtherText *string  `json:"sanity_other_text,omitempty"`
	SanityOptsOrder []string `json:"sanity_opts_order,omitempty"`

	MidSanityPrimary   *string  `json:"mid_sanity_primary,omitempty"`
	MidSanitySecondary []string `json:"mid_sanity_secondary,omitempty"`
	MidSanityOtherText *string  `json:"mid_sanity_other_text,omitempty"`
	MidSanityOptsOrder []string `json:"mid_sanity_opts_order,omitempty"`

	FollowChange          map[string]int `json:"follow_change,omitempty"`
	FollowInflationEffect *string        `json:"follow_inflation_effect,omitempty"`
	FollowText            *string        `json:"follow_text,omitempty"`
	BaselinePctB          *int           `json:"baseline_pct_b,omitempty"`
	LastPctB              *int           `json:"last_pct_b,omitempty"`
}

// FromInstance builds the base row recorded when a screen is confirmed.
func FromInstance(in scenario.Instance, riskyShare int, ts, msSpent int64, ua string) AnswerRow {
	if ua == "" {
		ua = "NA"
	}
	return AnswerRow{
		Order:      in.Order,
		ScenarioID: in.ID,
		Tag:        in.Tag,
		Safe:       in.Safe,
		Up:         in.Up,
		Down:       in.Down,
		P:          in.Probability,
		RiskyShare: min(max(riskyShare, 0), 100),
		Inflation:  in.Inflation,
		IsBaseline: in.IsBaseline,
		IsSanity:   in.IsSanity,
		IsLast:     in.IsLast,
		IsMirror:   in.IsMirror,
		TS:         ts,
		UA:         ua,
		MsSpent:    max(msSpent, 0),
	}
}

// Patch holds follow-up fields to merge into an existing row. Nil fields are
// left untouched.
type Patch struct {
	ReasonText *string

	SanityPrimary   *string
	SanitySecondary []string
	SanityOtherText *string
	SanityOptsOrder []string

	MidSanityPrimary   *string
	MidSanitySecondary []string
	MidSanityOtherText *string
	MidSanityOptsOrder []string

	FollowChange          map[string]int
	FollowInflationEffect *string
	FollowText            *string
	BaselinePctB          *int
	LastPctB              *int
}

func (p Patch) apply(r *AnswerRow) {
	if p.ReasonText != nil {
		r.ReasonText = p.ReasonText
	}
	if p.SanityPrimary != nil {
		r.SanityPrimary = p.SanityPrimary
	}
	if p.SanitySecondary != nil {
		r.SanitySecondary = append([]string(nil), p.SanitySecondary...)
	}
	if p.SanityOtherText != nil {
		r.SanityOtherText = p.SanityOtherText
	}
	if p.SanityOptsOrder != nil {
		r.SanityOptsOrder = append([]string(nil), p.SanityOptsOrder...)
	}
	if p.MidSanityPrimary != nil {
		r.MidSanityPrimary = p.MidSanityPrimary
	}
	if p.MidSanitySecondary != nil {
		r.MidSanitySecondary = append([]string(nil), p.MidSanitySecondary...)
	}
	if p.MidSanityOtherText != nil {
		r.MidSanityOtherText = p.MidSanityOtherText
	}
	if p.MidSanityOptsOrder != nil {
		r.MidSanityOptsOrder = append([]string(nil), p.MidSanityOptsOrder...)
	}
	if p.FollowChange != nil {
		r.FollowChange = make(map[string]int, len(p.FollowChange))
		for k, v := range p.FollowChange {
			r.FollowChange[k] = v
		}
	}
	if p.FollowInflationEffect != nil {
		r.FollowInflationEffect = p.FollowInflationEffect
	}
	if p.FollowText != nil {
		r.FollowText = p.FollowText
	}
	if p.BaselinePctB != nil {
		r.BaselinePctB = p.BaselinePctB
	}
	if p.LastPctB != nil {
		r.LastPctB = p.LastPctB
	}
}
