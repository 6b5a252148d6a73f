package dto

import "testing"

func TestClampPageSize(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultPageSize},
		{-3, DefaultPageSize},
		{20, 20},
		{MaxPageSize, MaxPageSize},
		{MaxPageSize + 1, MaxPageSize},
	}
	for _, tt := range tests {
		if got := ClampPageSize(tt.limit); got != tt.want {
			t.Errorf("ClampPageSize(%d) = %d, want %d", tt.limit, got, tt.want)
		}
	}
}

func TestNewBugReportPage_LastPage(t *testing.T) {
	rows := []BugReport{{ID: 9}, {ID: 7}}
	p := NewBugReportPage(rows, 5, 2)

	if p.HasNext {
		t.Error("Expected HasNext=false when fewer rows than limit")
	}
	if p.NextAfter != 0 {
		t.Errorf("Expected NextAfter=0, got %d", p.NextAfter)
	}
	if len(p.Reports) != 2 {
		t.Errorf("Expected 2 reports, got %d", len(p.Reports))
	}
}

func TestNewBugReportPage_HasNext(t *testing.T) {
	rows := []BugReport{{ID: 9}, {ID: 7}, {ID: 4}}
	p := NewBugReportPage(rows, 2, 10)

	if !p.HasNext {
		t.Error("Expected HasNext=true when limit+1 rows were fetched")
	}
	if len(p.Reports) != 2 {
		t.Errorf("Expected 2 reports, got %d", len(p.Reports))
	}
	if p.NextAfter != 7 {
		t.Errorf("Expected NextAfter=7, got %d", p.NextAfter)
	}
	if p.Total != 10 {
		t.Errorf("Expected Total=10, got %d", p.Total)
	}
}

func TestNewBugReportPage_Empty(t *testing.T) {
	p := NewBugReportPage(nil, 10, 0)

	if p.Reports == nil {
		t.Error("Expected empty slice, got nil")
	}
	if p.HasNext {
		t.Error("Expected HasNext=false for empty page")
	}
}
