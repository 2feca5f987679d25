package injection

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/kailas-cloud/recall/internal/domain/memory"
)

// Memory scoring constants.
const (
	// decayRate is the exponential recency decay per day.
	decayRate = 0.05
	// frequencyMax is the access count at which the frequency factor saturates.
	frequencyMax = 20.0
	// relevanceWeight caps the bonus for memories sharing words with the current message.
	relevanceWeight = 0.1
)

// Instruction scoring constants.
const (
	priorityMax = 10.0
	usageMax    = 50.0

	instructionPriorityWeight = 0.5
	instructionUsageWeight    = 0.3
	instructionRecencyWeight  = 0.2
)

// Weights controls the memory score mix. Each factor lies in [0,1].
type Weights struct {
	Confidence float64
	Category   float64
	Recency    float64
	Frequency  float64
}

// DefaultWeights returns the default memory score mix.
func DefaultWeights() Weights {
	return Weights{Confidence: 0.4, Category: 0.2, Recency: 0.25, Frequency: 0.15}
}

var categoryPriority = map[memory.Category]float64{
	memory.CategoryPriority:     1.0,
	memory.CategoryDecision:     0.9,
	memory.CategoryGoal:         0.85,
	memory.CategoryPreference:   0.7,
	memory.CategoryRelationship: 0.6,
	memory.CategoryContext:      0.4,
	memory.CategorySummary:      0.3,
}

// CategoryPriority returns the category bonus in [0,1]. Unknown categories score 0.
func CategoryPriority(c memory.Category) float64 {
	return categoryPriority[c]
}

// ScoreMemory combines confidence, category priority, recency of last access
// (or creation) and access frequency. Monotonic in each factor.
func ScoreMemory(m *memory.Memory, now time.Time, w Weights) float64 {
	last := m.CreatedAt
	if m.LastAccessedAt != nil {
		last = *m.LastAccessedAt
	}

	recency := math.Exp(-decayRate * daysSince(last, now))
	frequency := math.Min(1, float64(m.AccessCount)/frequencyMax)

	return w.Confidence*clamp01(m.Confidence) +
		w.Category*CategoryPriority(m.Category) +
		w.Recency*recency +
		w.Frequency*frequency
}

// ScoreInstruction combines priority, usage count and recency of last use.
// A never-used instruction gets no recency credit.
func ScoreInstruction(i *memory.StandingInstruction, now time.Time) float64 {
	priority := math.Min(1, float64(i.Priority)/priorityMax)
	usage := math.Min(1, float64(i.UsageCount)/usageMax)

	var recency float64
	if i.LastUsedAt != nil {
		recency = math.Exp(-decayRate * daysSince(*i.LastUsedAt, now))
	}

	return instructionPriorityWeight*priority +
		instructionUsageWeight*usage +
		instructionRecencyWeight*recency
}

// RankMemories drops inactive memories, scores the rest and returns the top limit.
// A non-empty message adds a bonus proportional to the share of its words found in the fact.
func RankMemories(candidates []memory.Memory, now time.Time, w Weights, message string, limit int) []memory.Memory {
	type scored struct {
		m     memory.Memory
		score float64
	}

	words := tokenize(message)
	list := make([]scored, 0, len(candidates))
	for i := range candidates {
		m := &candidates[i]
		if !m.IsActive(now) {
			continue
		}
		s := ScoreMemory(m, now, w)
		if len(words) > 0 {
			s += relevanceWeight * overlap(words, tokenize(m.Fact))
		}
		list = append(list, scored{m: *m, score: s})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].score != list[j].score {
			return list[i].score > list[j].score
		}
		return list[i].m.ID < list[j].m.ID
	})

	if limit >= 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]memory.Memory, len(list))
	for i := range list {
		out[i] = list[i].m
	}
	return out
}

// RankInstructions drops inactive instructions and returns the top limit by score.
func RankInstructions(candidates []memory.StandingInstruction, now time.Time, limit int) []memory.StandingInstruction {
	out := make([]memory.StandingInstruction, 0, len(candidates))
	scores := make(map[string]float64, len(candidates))
	for i := range candidates {
		if !candidates[i].IsActive {
			continue
		}
		out = append(out, candidates[i])
		scores[candidates[i].ID] = ScoreInstruction(&candidates[i], now)
	}

	sort.Slice(out, func(i, j int) bool {
		si, sj := scores[out[i].ID], scores[out[j].ID]
		if si != sj {
			return si > sj
		}
		return out[i].ID < out[j].ID
	})

	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func daysSince(t, now time.Time) float64 {
	d := now.Sub(t).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// tokenize lowercases text and keeps words of three or more letters or digits.
func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= 3 {
			words[f] = struct{}{}
		}
	}
	return words
}

// overlap is the share of query words present in doc, in [0,1].
func overlap(query, doc map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	var hits int
	for w := range query {
		if _, ok := doc[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
