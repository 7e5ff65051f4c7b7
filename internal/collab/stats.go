package collab

import (
	"sort"
	"strings"
)

// SummaryStats are basic text statistics returned alongside an on-demand
// summary so clients can show context without re-fetching the transcript.
type SummaryStats struct {
	WordCount         int      `json:"word_count"`
	SentenceCount     int      `json:"sentence_count"`
	EstimatedDuration float64  `json:"estimated_duration"` // minutes at ~150 wpm
	KeyTopics         []string `json:"key_topics"`
}

var stopWords = wordSet(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of",
	"with", "by", "is", "are", "was", "were", "be", "been", "have", "has", "had",
	"do", "does", "did", "will", "would", "could", "should", "may", "might", "can",
	"this", "that", "these", "those", "i", "you", "he", "she", "it", "we", "they",
	"me", "him", "her", "us", "them",
)

// Stats computes summary statistics for a transcript.
func Stats(transcript string) SummaryStats {
	if strings.TrimSpace(transcript) == "" {
		return SummaryStats{KeyTopics: []string{}}
	}

	words := strings.Fields(transcript)
	sentences := 0
	for _, s := range strings.Split(transcript, ".") {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}

	return SummaryStats{
		WordCount:         len(words),
		SentenceCount:     sentences,
		EstimatedDuration: float64(len(words)) / 150,
		KeyTopics:         keyTopics(transcript, 5),
	}
}

// keyTopics returns the most frequent non-stop words of length > 3.
func keyTopics(transcript string, n int) []string {
	freq := make(map[string]int)
	for _, w := range tokenize(transcript) {
		if len(w) <= 3 {
			continue
		}
		if _, ok := stopWords[w]; ok {
			continue
		}
		freq[w]++
	}

	topics := make([]string, 0, len(freq))
	for w := range freq {
		topics = append(topics, w)
	}
	sort.Slice(topics, func(i, j int) bool {
		if freq[topics[i]] != freq[topics[j]] {
			return freq[topics[i]] > freq[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > n {
		topics = topics[:n]
	}
	return topics
}
