package feed

import "chatfeed/models"

// AggregateReactions collapses raw reaction records for one message into
// one group per distinct emoji, in first-seen order. The count is the
// number of distinct reacting members, so duplicate records for the same
// (member, value) pair collapse.
func AggregateReactions(records []models.Reaction) []models.ReactionGroup {
	groups := make(map[string]*models.ReactionGroup)
	seen := make(map[string]map[string]bool)
	var order []string

	for _, r := range records {
		g, ok := groups[r.Value]
		if !ok {
			g = &models.ReactionGroup{Value: r.Value, MemberIDs: []string{}}
			groups[r.Value] = g
			seen[r.Value] = make(map[string]bool)
			order = append(order, r.Value)
		}
		if seen[r.Value][r.MemberID] {
			continue
		}
		seen[r.Value][r.MemberID] = true
		g.MemberIDs = append(g.MemberIDs, r.MemberID)
		g.Count++
	}

	out := make([]models.ReactionGroup, 0, len(order))
	for _, value := range order {
		out = append(out, *groups[value])
	}
	return out
}
