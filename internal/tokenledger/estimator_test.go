package tokenledger

import (
	"errors"
	"strings"
	"testing"
)

type fixedTokenizer struct {
	count int
	err   error
}

func (f fixedTokenizer) CountTokens(string) (int, error) { return f.count, f.err }

func TestEstimateTokensFallback(t *testing.T) {
	est := NewEstimator(nil, nil, nil)

	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		if got := est.EstimateTokens(tc.text); got != tc.want {
			t.Errorf("EstimateTokens(%d chars) = %d, want %d", len(tc.text), got, tc.want)
		}
	}
}

func TestEstimateTokensPrefersTokenizer(t *testing.T) {
	est := NewEstimator(fixedTokenizer{count: 42}, nil, nil)
	if got := est.EstimateTokens("hello there"); got != 42 {
		t.Fatalf("got %d, want tokenizer count 42", got)
	}
}

func TestEstimateTokensTokenizerFailureFallsBack(t *testing.T) {
	est := NewEstimator(fixedTokenizer{err: errors.New("boom")}, nil, nil)
	if got := est.EstimateTokens(strings.Repeat("x", 40)); got != 10 {
		t.Fatalf("got %d, want character fallback 10", got)
	}
}

func TestEstimateMessagesAddsOverhead(t *testing.T) {
	est := NewEstimator(nil, nil, nil)
	messages := []Message{
		{Role: "system", Content: strings.Repeat("a", 400)},
		{Role: "user", Content: strings.Repeat("b", 40)},
	}
	// 100 + 10 content tokens plus 4 per message.
	if got := est.EstimateMessages(messages); got != 118 {
		t.Fatalf("got %d, want 118", got)
	}
	if got := est.EstimateMessages(nil); got != 0 {
		t.Fatalf("empty conversation: got %d, want 0", got)
	}
}
