// Package export flattens a respondent's answer rows into one wide row whose
// columns never depend on the respondent's randomized order.
package export

import (
	"fmt"

	"github.com/dyluth/warren/internal/followup"
	"github.com/dyluth/warren/pkg/scenario"
)

// SchemaVersion is written into every wide row.
const SchemaVersion = "v1"

// FollowupSlots is the number of follow-up column groups.
const FollowupSlots = 5

// DemoColumns are the demographic columns.
var DemoColumns = []string{"resp_id", "age", "gender", "education", "country"}

// MetaColumns are the per-respondent metadata columns.
var MetaColumns = []string{
	"started_inflation",
	"order_vector",
	"pool_group",
	"pool_seed",
	"ua",
	"time_total_ms",
	"completion_code",
	"schema_version",
}

// FinalPairColumns hold the LAST and MIRROR screens, which can repeat a
// pool scenario under the same inflation and so cannot use slug columns.
var FinalPairColumns = []string{
	"last__slug", "last__allocB", "last__ms",
	"mirror__slug", "mirror__allocB", "mirror__ms",
}

// Slug returns the stable column identity of a scenario, for example
// Sp02_Up05_Dm01_Ip00.
func Slug(safe, up, down, inflation int) string {
	return fmt.Sprintf("S%s_U%s_D%s_I%s", signed(safe), signed(up), signed(down), signed(inflation))
}

func signed(n int) string {
	if n < 0 {
		return fmt.Sprintf("m%02d", -n)
	}
	return fmt.Sprintf("p%02d", n)
}

// Slugs lists every grid point under both inflation assumptions, inflation
// first, then grid order.
func Slugs() []string {
	var out []string
	for _, pi := range []int{scenario.InflationNone, scenario.InflationHigh} {
		for _, s := range scenario.Grid() {
			out = append(out, Slug(s.Safe, s.Up(), s.Down(), pi))
		}
	}
	return out
}

// FollowupColumns returns the slot columns fupK__for_slug, fupK__reason_text,
// fupK__changed_choice and fupK__infl_choice for K = 1..FollowupSlots.
func FollowupColumns() []string {
	var out []string
	for k := 1; k <= FollowupSlots; k++ {
		for _, field := range []string{"for_slug", "reason_text", "changed_choice", "infl_choice"} {
			out = append(out, fmt.Sprintf("fup%d__%s", k, field))
		}
	}
	return out
}

// FinalColumns returns the final follow-up columns.
func FinalColumns() []string {
	out := []string{"final__text", "final__other_factors", "final__baseline_pctB", "final__last_pctB"}
	for _, f := range followup.Factors {
		out = append(out, "final__rate__"+f.Key)
	}
	return out
}

// Headers returns the fixed CSV column set in order.
func Headers() []string {
	slugs := Slugs()
	out := append([]string(nil), DemoColumns...)
	out = append(out, MetaColumns...)
	for _, s := range slugs {
		out = append(out, "allocB__"+s)
	}
	for _, s := range slugs {
		out = append(out, "ms__"+s)
	}
	out = append(out, FinalPairColumns...)
	out = append(out, FollowupColumns()...)
	out = append(out, FinalColumns()...)
	return out
}
