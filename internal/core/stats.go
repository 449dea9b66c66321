package core

// CategoryTotal is a summed amount for one category.
type CategoryTotal struct {
	Category Category
	Total    Money
}

// Stats summarizes an owner-scoped set of expenses. Total and Average are
// zero for an empty set, and ByCategory always carries every defined
// category keyed by its display label.
type Stats struct {
	Count      int64
	Total      Money
	Average    Money
	ByCategory map[string]Money
}

// NewStats builds a Stats value from aggregate rows, filling every
// category with a zero total before applying the measured sums. The
// average is the total divided by the count, rounded half-up to the cent.
func NewStats(count, totalCents int64, byCategory []CategoryTotal) Stats {
	s := Stats{
		Count:      count,
		Total:      Money{Cents: totalCents},
		ByCategory: make(map[string]Money, len(categoryLabels)),
	}
	for _, c := range Categories() {
		s.ByCategory[c.Label()] = Money{}
	}
	for _, ct := range byCategory {
		s.ByCategory[ct.Category.Label()] = ct.Total
	}
	if count > 0 {
		s.Average = Money{Cents: (totalCents + count/2) / count}
	}
	return s
}
