package game

import "sort"

// PlayerStanzaScore scores one seat's stanza: an exact bid earns
// 2 plus the bid, any miss costs 1
func PlayerStanzaScore(bid, tricksTaken int) int {
	if bid == tricksTaken {
		return 2 + bid
	}
	return -1
}

// StanzaScores scores every seat elementwise
func StanzaScores(bids, tricksTaken []int) []int {
	scores := make([]int, len(bids))
	for i := range bids {
		scores[i] = PlayerStanzaScore(bids[i], tricksTaken[i])
	}
	return scores
}

// TruncatedAverage returns floor(sum/n) of the scores. It seeds a
// baseline score for a player introduced mid-game; with no scores it
// returns 0.
func TruncatedAverage(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	// Go's integer division truncates toward zero; floor differs for
	// negative sums.
	avg := sum / len(scores)
	if sum < 0 && sum%len(scores) != 0 {
		avg--
	}
	return avg
}

// Rankings ranks seats by descending score. Tied scores share the
// earliest rank, and the rank counter still advances once per position,
// so scores [10,25,15,25] rank as [4,1,3,1]: the two leaders consume
// positions 1 and 2 and the next distinct score lands at rank 3.
func Rankings(scores []int) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	ranks := make([]int, len(scores))
	for pos, seat := range order {
		if pos > 0 && scores[seat] == scores[order[pos-1]] {
			ranks[seat] = ranks[order[pos-1]]
		} else {
			ranks[seat] = pos + 1
		}
	}
	return ranks
}
