package models

import "testing"

func TestSearchOptions_ApplyDefaults(t *testing.T) {
	defaults := HybridWeights{Text: 0.35, Vector: 0.65}

	tests := []struct {
		name     string
		input    SearchOptions
		expected SearchOptions
	}{
		{
			name:  "applies all defaults",
			input: SearchOptions{Query: "test"},
			expected: SearchOptions{
				Query:       "test",
				Limit:       DefaultSearchLimit,
				Offset:      0,
				Weights:     &HybridWeights{Text: 0.35, Vector: 0.65},
				LexicalPool: DefaultLexicalPool,
				VectorPool:  DefaultVectorPool,
			},
		},
		{
			name: "preserves custom values",
			input: SearchOptions{
				Query:       "test",
				Limit:       50,
				Offset:      10,
				Weights:     &HybridWeights{Text: 1, Vector: 0},
				LexicalPool: 100,
				VectorPool:  50,
			},
			expected: SearchOptions{
				Query:       "test",
				Limit:       50,
				Offset:      10,
				Weights:     &HybridWeights{Text: 1, Vector: 0},
				LexicalPool: 100,
				VectorPool:  50,
			},
		},
		{
			name:  "clamps oversized limit",
			input: SearchOptions{Query: "test", Limit: MaxSearchLimit + 1},
			expected: SearchOptions{
				Query:       "test",
				Limit:       MaxSearchLimit,
				Weights:     &HybridWeights{Text: 0.35, Vector: 0.65},
				LexicalPool: DefaultLexicalPool,
				VectorPool:  DefaultVectorPool,
			},
		},
		{
			name:  "corrects negative offset",
			input: SearchOptions{Query: "test", Offset: -5},
			expected: SearchOptions{
				Query:       "test",
				Limit:       DefaultSearchLimit,
				Offset:      0,
				Weights:     &HybridWeights{Text: 0.35, Vector: 0.65},
				LexicalPool: DefaultLexicalPool,
				VectorPool:  DefaultVectorPool,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.input
			opts.ApplyDefaults(defaults)

			if opts.Limit != tt.expected.Limit {
				t.Errorf("Limit = %d, want %d", opts.Limit, tt.expected.Limit)
			}
			if opts.Offset != tt.expected.Offset {
				t.Errorf("Offset = %d, want %d", opts.Offset, tt.expected.Offset)
			}
			if *opts.Weights != *tt.expected.Weights {
				t.Errorf("Weights = %+v, want %+v", *opts.Weights, *tt.expected.Weights)
			}
			if opts.LexicalPool != tt.expected.LexicalPool {
				t.Errorf("LexicalPool = %d, want %d", opts.LexicalPool, tt.expected.LexicalPool)
			}
			if opts.VectorPool != tt.expected.VectorPool {
				t.Errorf("VectorPool = %d, want %d", opts.VectorPool, tt.expected.VectorPool)
			}
		})
	}
}

func TestHybridWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights HybridWeights
		wantErr bool
	}{
		{name: "both positive", weights: HybridWeights{Text: 0.5, Vector: 0.5}},
		{name: "text only", weights: HybridWeights{Text: 1}},
		{name: "vector only", weights: HybridWeights{Vector: 1}},
		{name: "negative text", weights: HybridWeights{Text: -0.1, Vector: 1}, wantErr: true},
		{name: "negative vector", weights: HybridWeights{Text: 1, Vector: -0.1}, wantErr: true},
		{name: "both zero", weights: HybridWeights{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
