package streak

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) Date {
	return Date{Year: y, Month: m, Day: d}
}

func TestAdvance(t *testing.T) {
	d := day(2026, 2, 27)

	tests := []struct {
		name        string
		prev        *State
		today       Date
		wantCurrent int
		wantLongest int
		wantChanged bool
	}{
		{"first practice", nil, d, 1, 1, true},
		{"same day is a no-op", &State{CurrentStreak: 3, LongestStreak: 4, LastPracticeDate: d}, d, 3, 4, false},
		{"next day extends", &State{CurrentStreak: 3, LongestStreak: 3, LastPracticeDate: d}, d.AddDays(1), 4, 4, true},
		{"gap resets to one", &State{CurrentStreak: 6, LongestStreak: 6, LastPracticeDate: d}, d.AddDays(2), 1, 6, true},
		{"zero date resets", &State{CurrentStreak: 2, LongestStreak: 9}, d, 1, 9, true},
		{"month boundary", &State{CurrentStreak: 1, LongestStreak: 1, LastPracticeDate: day(2026, 2, 28)}, day(2026, 3, 1), 2, 2, true},
		{"year boundary", &State{CurrentStreak: 9, LongestStreak: 9, LastPracticeDate: day(2025, 12, 31)}, day(2026, 1, 1), 10, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Advance(tt.prev, tt.today)
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if got.CurrentStreak != tt.wantCurrent {
				t.Errorf("current = %d, want %d", got.CurrentStreak, tt.wantCurrent)
			}
			if got.LongestStreak != tt.wantLongest {
				t.Errorf("longest = %d, want %d", got.LongestStreak, tt.wantLongest)
			}
			if changed && got.LastPracticeDate != tt.today {
				t.Errorf("last = %s, want %s", got.LastPracticeDate, tt.today)
			}
		})
	}
}

func TestAdvance_Scenario(t *testing.T) {
	d := day(2026, 4, 10)

	s, _ := Advance(nil, d)
	if s.CurrentStreak != 1 || s.LongestStreak != 1 || s.LastPracticeDate != d {
		t.Fatalf("day D: %+v", s)
	}

	s, _ = Advance(&s, d.AddDays(1))
	if s.CurrentStreak != 2 || s.LongestStreak != 2 {
		t.Fatalf("day D+1: %+v", s)
	}

	s, _ = Advance(&s, d.AddDays(3))
	if s.CurrentStreak != 1 || s.LongestStreak != 2 {
		t.Fatalf("day D+3: %+v", s)
	}
}

func TestAdvance_LongestNeverDecreases(t *testing.T) {
	var s *State
	today := day(2026, 1, 1)
	longest := 0
	gaps := []int{0, 1, 1, 1, 3, 1, 0, 1, 5, 1, 1, 1, 1, 1, 2}
	for i, g := range gaps {
		today = today.AddDays(g)
		next, _ := Advance(s, today)
		if next.LongestStreak < longest {
			t.Fatalf("step %d: longest dropped from %d to %d", i, longest, next.LongestStreak)
		}
		if next.LongestStreak < next.CurrentStreak {
			t.Fatalf("step %d: longest %d < current %d", i, next.LongestStreak, next.CurrentStreak)
		}
		longest = next.LongestStreak
		s = &next
	}
	if longest != 6 {
		t.Errorf("longest = %d, want 6", longest)
	}
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2026-03-09")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d != day(2026, 3, 9) {
		t.Errorf("ParseDate = %+v", d)
	}
	if d.String() != "2026-03-09" {
		t.Errorf("String() = %q", d.String())
	}
	if !d.Before(d.AddDays(1)) || d.AddDays(1).Before(d) {
		t.Error("Before is inconsistent")
	}

	zero, err := ParseDate("")
	if err != nil || !zero.IsZero() || zero.String() != "" {
		t.Errorf("empty date = %+v, %v", zero, err)
	}

	if _, err := ParseDate("09/03/2026"); err == nil {
		t.Error("expected error for bad layout")
	}
}

func TestDateOf_UsesLocation(t *testing.T) {
	// 23:30 UTC is already the next day in UTC+2.
	ts := time.Date(2026, 6, 1, 23, 30, 0, 0, time.UTC)
	east := time.FixedZone("UTC+2", 2*60*60)

	if got := DateOf(ts, time.UTC); got != day(2026, 6, 1) {
		t.Errorf("UTC day = %s", got)
	}
	if got := DateOf(ts, east); got != day(2026, 6, 2) {
		t.Errorf("UTC+2 day = %s", got)
	}
}

func TestMilestones(t *testing.T) {
	for n, want := range map[int]bool{0: false, 1: false, 5: true, 7: false, 10: true} {
		if got := IsMilestone(n); got != want {
			t.Errorf("IsMilestone(%d) = %v", n, got)
		}
	}
	for cur, want := range map[int]int{0: 5, 4: 5, 5: 10, 12: 15} {
		if got := NextMilestone(cur); got != want {
			t.Errorf("NextMilestone(%d) = %d, want %d", cur, got, want)
		}
	}
}

func TestActive(t *testing.T) {
	d := day(2026, 7, 7)
	s := State{CurrentStreak: 3, LastPracticeDate: d}
	if !s.Active(d) || !s.Active(d.AddDays(1)) {
		t.Error("streak should be active today and tomorrow")
	}
	if s.Active(d.AddDays(2)) {
		t.Error("streak should lapse after a missed day")
	}
	if (State{}).Active(d) {
		t.Error("empty streak is never active")
	}
}
