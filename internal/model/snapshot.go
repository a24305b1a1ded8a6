package model

// Constituent is one index member with its display name.
type Constituent struct {
	Symbol string
	Name   string
}

// ConstituentSnapshot is the membership of a tracked index as of one date.
// Immutable once written; the union of all snapshots defines the symbol
// universe.
type ConstituentSnapshot struct {
	Index   string // "csi300" or "csi500"
	Date    string // "2024-01-15"
	Members []Constituent
}

// Symbols returns the member symbols in file order.
func (s ConstituentSnapshot) Symbols() []string {
	out := make([]string, 0, len(s.Members))
	for _, m := range s.Members {
		out = append(out, m.Symbol)
	}
	return out
}
