package models

import "testing"

func TestSearchOptionsValidate(t *testing.T) {
	tests := []struct {
		name         string
		opts         SearchOptions
		wantErr      bool
		wantLimit    int
		wantMinScore float64
	}{
		{"defaults", SearchOptions{Query: "q"}, false, 10, 0.1},
		{"empty query", SearchOptions{}, true, 0, 0},
		{"limit capped", SearchOptions{Query: "q", Limit: 500}, false, 100, 0.1},
		{"explicit min score kept", SearchOptions{Query: "q", MinScore: 1.1}, false, 10, 1.1},
		{"negative limit replaced", SearchOptions{Query: "q", Limit: -3}, false, 10, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if tt.opts.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", tt.opts.Limit, tt.wantLimit)
			}
			if tt.opts.MinScore != tt.wantMinScore {
				t.Errorf("MinScore = %v, want %v", tt.opts.MinScore, tt.wantMinScore)
			}
		})
	}
}
