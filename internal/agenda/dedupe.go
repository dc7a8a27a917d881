package agenda

// Dedupe merges incoming into accumulated, keeping the first occurrence of
// every dedup signature in input order. Chunks fetched for overlapping
// ranges produce duplicate records; this collapses them to one logical
// appointment each. The operation is idempotent:
// Dedupe(Dedupe(a, b), c) == Dedupe(a, append(b, c...)).
func Dedupe(accumulated, incoming []Appointment) []Appointment {
	out := make([]Appointment, 0, len(accumulated)+len(incoming))
	seen := make(map[string]struct{}, len(accumulated)+len(incoming))
	for _, list := range [][]Appointment{accumulated, incoming} {
		for _, a := range list {
			sig := a.Signature()
			if _, dup := seen[sig]; dup {
				continue
			}
			seen[sig] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}
