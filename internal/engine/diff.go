package engine

import "groupsync.dev/cli/internal/directory"

// Diff compares current group members against the candidate set and returns
// the users to add and to remove. Comparison uses the stable unique
// identifier only, so account renames never produce spurious churn. Users in
// both sets yield no action, which is what makes reconciliation idempotent.
//
// Both outputs preserve the order of their source sequence.
func Diff(current, candidates []directory.User) (toAdd, toRemove []directory.User) {
	currentIDs := make(map[string]struct{}, len(current))
	for _, member := range current {
		currentIDs[member.ID] = struct{}{}
	}
	candidateIDs := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		candidateIDs[candidate.ID] = struct{}{}
	}

	for _, candidate := range candidates {
		if _, ok := currentIDs[candidate.ID]; !ok {
			toAdd = append(toAdd, candidate)
		}
	}
	for _, member := range current {
		if _, ok := candidateIDs[member.ID]; !ok {
			toRemove = append(toRemove, member)
		}
	}
	return toAdd, toRemove
}
