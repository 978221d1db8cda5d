package reco

// thresholds are the adaptive retrieval limits derived from catalog
// size. Small catalogs skip filtering entirely; large ones keep the
// candidate set tight enough to stay fast without starving any slot.
type thresholds struct {
	perSlot    int
	minPerSlot int
	minTotal   int
}

// thresholdsFor computes the retrieval limits for a catalog of n items.
func thresholdsFor(n int) thresholds {
	switch {
	case n < 20:
		return thresholds{
			perSlot:    n,
			minPerSlot: 1,
			minTotal:   maxInt(3, n/2),
		}
	case n < 100:
		perSlot := clip(n/10, 10, 15)
		return thresholds{
			perSlot:    perSlot,
			minPerSlot: maxInt(2, perSlot/3),
			minTotal:   maxInt(8, n/5),
		}
	case n < 500:
		perSlot := clip(n/20, 15, 25)
		return thresholds{
			perSlot:    perSlot,
			minPerSlot: maxInt(3, perSlot/4),
			minTotal:   maxInt(12, n/10),
		}
	default:
		perSlot := clip(n/30, 20, 30)
		return thresholds{
			perSlot:    perSlot,
			minPerSlot: maxInt(5, perSlot/3),
			minTotal:   maxInt(15, n/15),
		}
	}
}

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
