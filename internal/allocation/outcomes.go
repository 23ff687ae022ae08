package allocation

// Outcomes is the portfolio result of an allocation, in percent and in
// currency units of the fixed total.
type Outcomes struct {
	UpPercent       float64 `json:"up_pct"`
	DownPercent     float64 `json:"down_pct"`
	UpAmount        float64 `json:"up_amount"`
	DownAmount      float64 `json:"down_amount"`
	ExpectedPercent float64 `json:"expected_pct"`
	ExpectedAmount  float64 `json:"expected_amount"`
}

// Compute interpolates between the safe return and each risky branch. value
// is option B's percent; a non-positive total falls back to DefaultAmount.
// Both branches have probability 0.5.
func Compute(safe, up, down float64, value int, total float64) Outcomes {
	if total <= 0 {
		total = DefaultAmount
	}
	b := float64(normalize(float64(value))) / 100
	upPct := (1-b)*safe + b*up
	downPct := (1-b)*safe + b*down
	expPct := 0.5*upPct + 0.5*downPct
	return Outcomes{
		UpPercent:       upPct,
		DownPercent:     downPct,
		UpAmount:        total * upPct / 100,
		DownAmount:      total * downPct / 100,
		ExpectedPercent: expPct,
		ExpectedAmount:  total * expPct / 100,
	}
}
