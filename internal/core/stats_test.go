package core

import "testing"

func TestNewStatsEmpty(t *testing.T) {
	s := NewStats(0, 0, nil)
	if s.Count != 0 || s.Total.Cents != 0 || s.Average.Cents != 0 {
		t.Fatalf("empty stats not zeroed: %+v", s)
	}
	if len(s.ByCategory) != len(Categories()) {
		t.Fatalf("expected %d categories, got %d", len(Categories()), len(s.ByCategory))
	}
	for label, amount := range s.ByCategory {
		if amount.Cents != 0 {
			t.Fatalf("category %q not zero: %d", label, amount.Cents)
		}
	}
}

func TestNewStatsMixedSet(t *testing.T) {
	byCat := []CategoryTotal{
		{Category: Groceries, Total: Money{Cents: 30_000_00}},
		{Category: Leisure, Total: Money{Cents: 30_000_00}},
	}
	s := NewStats(3, 60_000_00, byCat)

	if s.Count != 3 {
		t.Fatalf("count = %d", s.Count)
	}
	if s.Total.String() != "60000.00" {
		t.Fatalf("total = %s", s.Total.String())
	}
	if s.Average.String() != "20000.00" {
		t.Fatalf("average = %s", s.Average.String())
	}
	if s.ByCategory[Groceries.Label()].Cents != 30_000_00 {
		t.Fatalf("groceries total = %d", s.ByCategory[Groceries.Label()].Cents)
	}
	if s.ByCategory[Leisure.Label()].Cents != 30_000_00 {
		t.Fatalf("leisure total = %d", s.ByCategory[Leisure.Label()].Cents)
	}

	// Categories with no data are still present at zero.
	if cents := s.ByCategory[Health.Label()].Cents; cents != 0 {
		t.Fatalf("health total = %d", cents)
	}

	// The per-category sums add up to the overall total.
	var sum int64
	for _, amount := range s.ByCategory {
		sum += amount.Cents
	}
	if sum != s.Total.Cents {
		t.Fatalf("by-category sum %d != total %d", sum, s.Total.Cents)
	}
}

func TestNewStatsAverageRounding(t *testing.T) {
	s := NewStats(3, 100, nil) // 1.00 / 3 -> 0.33 rounded
	if s.Average.Cents != 33 {
		t.Fatalf("average = %d, want 33", s.Average.Cents)
	}
}
