package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dyluth/warren/internal/followup"
	"github.com/dyluth/warren/internal/rows"
	"github.com/dyluth/warren/pkg/scenario"
)

// Demographics are collected before the survey starts.
type Demographics struct {
	RespID    string `json:"resp_id" yaml:"resp_id"`
	Age       string `json:"age" yaml:"age"`
	Gender    string `json:"gender" yaml:"gender"`
	Education string `json:"education" yaml:"education"`
	Country   string `json:"country" yaml:"country"`
}

// Meta describes how the respondent's flow was assembled.
type Meta struct {
	StartedInflation string
	OrderVector      []string
	PoolGroup        string
	PoolSeed         string
	UA               string
	CompletionCode   string
}

// MetaFor derives the metadata from the flow and the answers. The starting
// inflation comes from the first baseline row, else the first screen.
func MetaFor(flow *scenario.Flow, answers []rows.AnswerRow, poolSeed uint32, ua, completionCode string) Meta {
	m := Meta{
		PoolGroup:      string(flow.Meta.GroupKey),
		PoolSeed:       strconv.FormatUint(uint64(poolSeed), 10),
		UA:             ua,
		CompletionCode: completionCode,
	}
	for _, in := range flow.Items {
		m.OrderVector = append(m.OrderVector, in.ID)
	}
	for _, r := range answers {
		if r.IsBaseline {
			m.StartedInflation = strconv.Itoa(r.Inflation)
			break
		}
	}
	if m.StartedInflation == "" && len(flow.Items) > 0 {
		m.StartedInflation = strconv.Itoa(flow.Items[0].Inflation)
	}
	return m
}

// BuildWideRow flattens answers into a row whose keys are exactly Headers().
// Missing values are empty strings.
func BuildWideRow(answers []rows.AnswerRow, demo Demographics, meta Meta) map[string]any {
	out := make(map[string]any)
	for _, h := range Headers() {
		out[h] = ""
	}

	out["resp_id"] = demo.RespID
	out["age"] = demo.Age
	out["gender"] = demo.Gender
	out["education"] = demo.Education
	out["country"] = demo.Country

	out["started_inflation"] = meta.StartedInflation
	out["order_vector"] = strings.Join(meta.OrderVector, "|")
	out["pool_group"] = meta.PoolGroup
	out["pool_seed"] = meta.PoolSeed
	out["ua"] = meta.UA
	out["completion_code"] = meta.CompletionCode
	out["schema_version"] = SchemaVersion

	var totalMs int64
	slot := 0
	for _, r := range answers {
		totalMs += r.MsSpent
		slug := Slug(r.Safe, r.Up, r.Down, r.Inflation)

		switch {
		case r.IsLast && r.IsMirror:
			out["mirror__slug"] = slug
			out["mirror__allocB"] = r.RiskyShare
			out["mirror__ms"] = r.MsSpent
			writeFinal(out, r)
		case r.IsLast:
			out["last__slug"] = slug
			out["last__allocB"] = r.RiskyShare
			out["last__ms"] = r.MsSpent
		default:
			if _, known := out["allocB__"+slug]; known {
				out["allocB__"+slug] = r.RiskyShare
				out["ms__"+slug] = r.MsSpent
			}
		}

		if slot < FollowupSlots && hasSlotAnswer(r) {
			slot++
			writeSlot(out, slot, slug, r)
		}
	}
	out["time_total_ms"] = totalMs

	return out
}

func hasSlotAnswer(r rows.AnswerRow) bool {
	return r.ReasonText != nil || r.SanityPrimary != nil || r.MidSanityPrimary != nil
}

func writeSlot(out map[string]any, k int, slug string, r rows.AnswerRow) {
	prefix := fmt.Sprintf("fup%d__", k)
	out[prefix+"for_slug"] = slug
	out[prefix+"reason_text"] = deref(r.ReasonText)

	var choices []string
	if r.SanityPrimary != nil {
		choices = append(choices, *r.SanityPrimary)
	}
	if r.MidSanityPrimary != nil {
		choices = append(choices, *r.MidSanityPrimary)
	}
	out[prefix+"changed_choice"] = strings.Join(choices, "|")
	out[prefix+"infl_choice"] = fmt.Sprintf("%d%%", r.Inflation)
}

func writeFinal(out map[string]any, r rows.AnswerRow) {
	out["final__text"] = deref(r.FollowText)
	out["final__other_factors"] = deref(r.FollowInflationEffect)
	if r.BaselinePctB != nil {
		out["final__baseline_pctB"] = *r.BaselinePctB
	}
	if r.LastPctB != nil {
		out["final__last_pctB"] = *r.LastPctB
	}
	for _, f := range followup.Factors {
		if v, ok := r.FollowChange[f.Key]; ok {
			out["final__rate__"+f.Key] = v
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
