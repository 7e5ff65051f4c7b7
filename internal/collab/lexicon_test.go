package collab

import (
	"context"
	"testing"
)

func score(t *testing.T, text string) float64 {
	t.Helper()
	s, err := Lexicon{}.Score(context.Background(), text)
	if err != nil {
		t.Fatalf("Score(%q): %v", text, err)
	}
	return s
}

func TestLexicon_Positive(t *testing.T) {
	t.Parallel()
	if s := score(t, "this is a great idea and I love it"); s <= 0 {
		t.Errorf("score=%f, want > 0", s)
	}
}

func TestLexicon_Negative(t *testing.T) {
	t.Parallel()
	if s := score(t, "this is a terrible plan and a huge problem"); s >= 0 {
		t.Errorf("score=%f, want < 0", s)
	}
}

func TestLexicon_NeutralAndEmpty(t *testing.T) {
	t.Parallel()
	if s := score(t, "the report covers the third quarter"); s != 0 {
		t.Errorf("neutral text score=%f, want 0", s)
	}
	if s := score(t, ""); s != 0 {
		t.Errorf("empty text score=%f, want 0", s)
	}
	if s := score(t, "   \t  "); s != 0 {
		t.Errorf("whitespace text score=%f, want 0", s)
	}
}

func TestLexicon_IntensifierAmplifies(t *testing.T) {
	t.Parallel()
	// A mixed sentence keeps the average away from the clamp so the
	// intensifier's effect stays visible.
	base := score(t, "good plan bad timing")
	boosted := score(t, "very good plan bad timing")
	if boosted <= base {
		t.Errorf("intensified score %f <= base %f", boosted, base)
	}
}

func TestLexicon_NegationFlips(t *testing.T) {
	t.Parallel()
	if s := score(t, "the demo was not good"); s >= 0 {
		t.Errorf("negated positive score=%f, want < 0", s)
	}
	if s := score(t, "honestly not bad at all"); s <= 0 {
		t.Errorf("negated negative score=%f, want > 0", s)
	}
}

func TestLexicon_NegationLookbackWindow(t *testing.T) {
	t.Parallel()
	// The negation sits three words before the sentiment word, outside
	// the two-word lookback, so the sentence stays positive.
	if s := score(t, "not that the new great"); s <= 0 {
		t.Errorf("score=%f, want > 0 (negation out of range)", s)
	}
}

func TestLexicon_ScoreClamped(t *testing.T) {
	t.Parallel()
	texts := []string{
		"extremely amazing absolutely fantastic incredibly wonderful",
		"extremely awful absolutely terrible incredibly useless",
		"don't hate this, really love it",
	}
	for _, text := range texts {
		s := score(t, text)
		if s < -1 || s > 1 {
			t.Errorf("Score(%q)=%f, want within [-1, 1]", text, s)
		}
	}
}

func TestLexicon_KeepsContractions(t *testing.T) {
	t.Parallel()
	// "don't" must survive tokenization as a single negation token.
	if s := score(t, "I don't like this"); s >= 0 {
		t.Errorf("score=%f, want < 0", s)
	}
}
