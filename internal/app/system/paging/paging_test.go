package paging

import "testing"

func TestTrimPage_Exact(t *testing.T) {
	rows := make([]int, PageSize)
	res := TrimPage(&rows)
	if res.HasMore {
		t.Error("expected HasMore=false for exactly PageSize rows")
	}
	if len(rows) != PageSize {
		t.Errorf("expected %d rows, got %d", PageSize, len(rows))
	}
}

func TestTrimPage_LookAhead(t *testing.T) {
	rows := make([]int, PageSize+1)
	res := TrimPage(&rows)
	if !res.HasMore {
		t.Error("expected HasMore=true when the look-ahead row came back")
	}
	if len(rows) != PageSize {
		t.Errorf("expected trim to %d rows, got %d", PageSize, len(rows))
	}
}

func TestTrimPage_Short(t *testing.T) {
	rows := []int{1, 2, 3}
	res := TrimPage(&rows)
	if res.HasMore || len(rows) != 3 {
		t.Errorf("short page should be untouched, got %v hasMore=%v", rows, res.HasMore)
	}
}

func TestReverse(t *testing.T) {
	rows := []int{1, 2, 3, 4}
	Reverse(rows)
	want := []int{4, 3, 2, 1}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("Reverse = %v, want %v", rows, want)
		}
	}
}

func TestReverse_Empty(t *testing.T) {
	var rows []int
	Reverse(rows) // must not panic
}
