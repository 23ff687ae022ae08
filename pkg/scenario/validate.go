package scenario

import "fmt"

// Validate checks the structural invariants of a canonical flow. Fallback
// flows are accepted as long as they hold a single baseline.
func Validate(f *Flow) error {
	if f == nil || len(f.Items) == 0 {
		return ErrEmptyFlow
	}
	if f.Meta.Fallback {
		if len(f.Items) != 1 || !f.Items[0].IsBaseline {
			return fmt.Errorf("fallback flow must hold exactly one baseline")
		}
		return nil
	}
	if len(f.Items) != FlowLen {
		return fmt.Errorf("expected %d screens, got %d", FlowLen, len(f.Items))
	}

	for i, in := range f.Items {
		if in.Order != i+1 {
			return fmt.Errorf("screen %d has order %d", i, in.Order)
		}
		if in.Up <= in.Down {
			return fmt.Errorf("screen %d: up %d must exceed down %d", in.Order, in.Up, in.Down)
		}
	}

	pools := make(map[int]map[Spec]bool)
	for block := 1; block <= 2; block++ {
		start := (block - 1) * BlockLen
		items := f.Items[start : start+BlockLen]
		inflation := items[0].Inflation

		if !items[0].IsBaseline || items[0].Tag != TagBase {
			return fmt.Errorf("block %d must open with the baseline", block)
		}
		var baselines, sanities int
		pools[block] = make(map[Spec]bool)
		for _, in := range items {
			if in.Block != block || in.Inflation != inflation {
				return fmt.Errorf("screen %d does not belong to block %d", in.Order, block)
			}
			switch {
			case in.IsBaseline:
				baselines++
			case in.IsSanity:
				sanities++
				if !IsDominance(in.Spec()) {
					return fmt.Errorf("sanity screen %d is not a dominance item", in.Order)
				}
			default:
				pools[block][in.Spec()] = true
			}
		}
		if baselines != 1 || sanities != 1 {
			return fmt.Errorf("block %d has %d baselines and %d sanity items", block, baselines, sanities)
		}
		if !items[FirstSubBlock+1].IsSanity {
			return fmt.Errorf("block %d sanity item must follow the first %d pool items", block, FirstSubBlock)
		}
		if len(pools[block]) != GroupSize {
			return fmt.Errorf("block %d has %d distinct pool items", block, len(pools[block]))
		}
	}
	if f.Items[0].Inflation == f.Items[BlockLen].Inflation {
		return fmt.Errorf("blocks must use different inflation assumptions")
	}
	for s := range pools[1] {
		if !pools[2][s] {
			return fmt.Errorf("pool item %v missing from block 2", s)
		}
	}

	last, mirror := f.Items[FlowLen-2], f.Items[FlowLen-1]
	if !last.IsLast || last.IsMirror || last.Tag != TagLast {
		return fmt.Errorf("screen %d must be the LAST scenario", last.Order)
	}
	if !mirror.IsFinalMirror() || mirror.Tag != TagMirror {
		return fmt.Errorf("screen %d must be the MIRROR scenario", mirror.Order)
	}
	if last.Safe != mirror.Safe || last.Up != mirror.Up || last.Down != mirror.Down {
		return fmt.Errorf("LAST and MIRROR must share the same outcomes")
	}
	if last.Inflation != f.Items[BlockLen].Inflation || mirror.Inflation != f.Items[0].Inflation {
		return fmt.Errorf("LAST must use block 2 inflation and MIRROR block 1 inflation")
	}
	return nil
}
