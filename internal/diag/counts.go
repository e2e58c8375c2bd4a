package diag

import "sort"

// TierCount holds the occurrence counts of one severity tier.
type TierCount struct {
	Severity Severity       `json:"severity" msgpack:"severity"`
	Keys     map[string]int `json:"keys" msgpack:"keys"`
	Total    int            `json:"total" msgpack:"total"`
}

// Counts is the telemetry view of a run.
type Counts struct {
	Tiers []TierCount `json:"tiers" msgpack:"tiers"`
	Total int         `json:"total" msgpack:"total"`
}

// Tier returns the counts of sev's tier.
func (c Counts) Tier(sev Severity) TierCount {
	want := sev.Tier()
	for _, t := range c.Tiers {
		if t.Severity == want {
			return t
		}
	}
	return TierCount{Severity: want}
}

// Of returns the occurrences of key within sev's tier.
func (c Counts) Of(sev Severity, key string) int {
	return c.Tier(sev).Keys[key]
}

// SortedKeys returns the keys ordered by descending count, then name.
func (t TierCount) SortedKeys() []string {
	keys := make([]string, 0, len(t.Keys))
	for k := range t.Keys {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if t.Keys[keys[i]] != t.Keys[keys[j]] {
			return t.Keys[keys[i]] > t.Keys[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
