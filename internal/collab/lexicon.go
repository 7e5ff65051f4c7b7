package collab

import (
	"context"
	"strings"
	"unicode"
)

var positiveWords = wordSet(
	"good", "great", "excellent", "amazing", "wonderful", "fantastic", "love", "like",
	"happy", "excited", "agree", "yes", "perfect", "awesome", "brilliant", "outstanding",
	"superb", "terrific", "marvelous", "fabulous", "incredible", "impressive", "positive",
	"successful", "effective", "efficient", "productive", "valuable", "beneficial",
	"helpful", "useful", "constructive", "innovative", "creative", "inspiring",
)

var negativeWords = wordSet(
	"bad", "terrible", "awful", "hate", "dislike", "sad", "angry", "frustrated",
	"disagree", "no", "wrong", "problem", "issue", "concern", "worried", "disappointed",
	"upset", "annoyed", "irritated", "confused", "difficult", "challenging", "impossible",
	"failure", "failed", "broken", "error", "mistake", "ineffective", "useless",
	"pointless", "waste", "boring", "tedious", "overwhelming", "stressful",
)

var intensifiers = map[string]float64{
	"very": 1.5, "really": 1.4, "extremely": 1.8, "incredibly": 1.7, "absolutely": 1.6,
	"totally": 1.5, "completely": 1.6, "quite": 1.2, "rather": 1.1, "pretty": 1.1,
	"so": 1.3, "too": 1.2, "highly": 1.4, "deeply": 1.3, "truly": 1.4,
}

var negations = wordSet(
	"not", "no", "never", "nothing", "nobody", "nowhere", "neither", "nor",
	"don't", "won't", "can't", "shouldn't", "wouldn't", "couldn't",
	"isn't", "aren't", "wasn't", "weren't",
)

func wordSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Lexicon is an in-process SentimentAnalyzer using a fixed sentiment
// lexicon with intensifier and negation handling. It never fails, so
// entries scored by it always get a real value instead of the neutral
// default.
type Lexicon struct{}

func (Lexicon) Score(_ context.Context, text string) (float64, error) {
	words := tokenize(text)
	if len(words) == 0 {
		return 0, nil
	}

	var score float64
	var scored int
	for i, word := range words {
		negated := false
		for j := max(0, i-2); j < i; j++ {
			if _, ok := negations[words[j]]; ok {
				negated = true
				break
			}
		}

		intensity := 1.0
		if i > 0 {
			if v, ok := intensifiers[words[i-1]]; ok {
				intensity = v
			}
		}

		var s float64
		if _, ok := positiveWords[word]; ok {
			s = intensity
		} else if _, ok := negativeWords[word]; ok {
			s = -intensity
		}
		if negated && s != 0 {
			s *= -0.8
		}

		score += s
		if s != 0 {
			scored++
		}
	}

	if scored > 0 {
		score /= float64(scored)
	}
	return clamp(score, -1, 1), nil
}

// tokenize lowercases and splits on everything that is not a letter,
// digit or apostrophe, keeping contractions like "don't" intact.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
