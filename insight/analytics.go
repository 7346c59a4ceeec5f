package insight

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
)

const (
	weakFrequencyCeiling = 1
	weakStaleDays        = 7
	strongFrequencyFloor = 3
	maxTopicList         = 10
	maxTopicCounts       = 10
)

// TopicStat describes one studied topic.
type TopicStat struct {
	Topic     string `json:"topic"`
	Frequency int    `json:"frequency"`
	DaysSince int    `json:"days_since"`
	LastDate  string `json:"last_date"` // YYYY-MM-DD
}

// DayCount is the number of interactions on one day.
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// TopicCount is the total number of interactions for one topic.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// Snapshot is the full analytics view over the student history.
type Snapshot struct {
	TotalInteractions int          `json:"total_interactions"`
	WeakTopics        []TopicStat  `json:"weak_topics"`
	StrongTopics      []TopicStat  `json:"strong_topics"`
	DailyActivity     []DayCount   `json:"daily_activity"`
	TopTopics         []TopicCount `json:"top_topics"`
	Recommendations   []string     `json:"recommendations"`
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		WeakTopics:      []TopicStat{},
		StrongTopics:    []TopicStat{},
		DailyActivity:   []DayCount{},
		TopTopics:       []TopicCount{},
		Recommendations: []string{},
	}
}

// AnalyzeLearningPatterns aggregates the whole history into a snapshot.
// Any failure yields an empty snapshot rather than an error; the analytics
// view must never take the dashboard down.
func (e *Engine) AnalyzeLearningPatterns(ctx context.Context) *Snapshot {
	records, err := e.allRecords(ctx)
	if err != nil {
		slog.Warn("analytics: failed to load history", "error", err)
		return emptySnapshot()
	}
	if len(records) == 0 {
		snapshot := emptySnapshot()
		snapshot.Recommendations = defaultRecommendations
		return snapshot
	}

	type topicAgg struct {
		frequency int
		lastSeen  time.Time
	}
	topics := map[string]*topicAgg{}
	days := map[string]int{}
	today := e.now()

	for _, record := range records {
		ts, err := time.Parse(timestampLayout, record.Date)
		if err != nil {
			slog.Warn("analytics: skipping record with bad timestamp", "id", record.ID, "date", record.Date)
			continue
		}
		topic := NormalizeTopic(record.Topic)
		if topic == "" {
			continue
		}
		agg, ok := topics[topic]
		if !ok {
			agg = &topicAgg{}
			topics[topic] = agg
		}
		agg.frequency++
		if ts.After(agg.lastSeen) {
			agg.lastSeen = ts
		}
		days[ts.Format(dateLayout)]++
	}

	snapshot := emptySnapshot()

	for topic, agg := range topics {
		snapshot.TotalInteractions += agg.frequency
		daysSince := daysBetween(agg.lastSeen, today)
		stat := TopicStat{
			Topic:     topic,
			Frequency: agg.frequency,
			DaysSince: daysSince,
			LastDate:  agg.lastSeen.Format(dateLayout),
		}
		switch {
		case agg.frequency <= weakFrequencyCeiling || daysSince > weakStaleDays:
			snapshot.WeakTopics = append(snapshot.WeakTopics, stat)
		case agg.frequency >= strongFrequencyFloor && daysSince <= weakStaleDays:
			snapshot.StrongTopics = append(snapshot.StrongTopics, stat)
		}
		snapshot.TopTopics = append(snapshot.TopTopics, TopicCount{Topic: topic, Count: agg.frequency})
	}

	// Least practiced first. Ties order by days_since descending, a
	// deliberate reading of "least-practiced, least-recent first": among
	// equally practiced topics the stalest one surfaces first.
	sort.Slice(snapshot.WeakTopics, func(i, j int) bool {
		a, b := snapshot.WeakTopics[i], snapshot.WeakTopics[j]
		if a.Frequency != b.Frequency {
			return a.Frequency < b.Frequency
		}
		if a.DaysSince != b.DaysSince {
			return a.DaysSince > b.DaysSince
		}
		return a.Topic < b.Topic
	})
	if len(snapshot.WeakTopics) > maxTopicList {
		snapshot.WeakTopics = snapshot.WeakTopics[:maxTopicList]
	}

	sort.Slice(snapshot.StrongTopics, func(i, j int) bool {
		a, b := snapshot.StrongTopics[i], snapshot.StrongTopics[j]
		if a.Frequency != b.Frequency {
			return a.Frequency > b.Frequency
		}
		return a.Topic < b.Topic
	})
	if len(snapshot.StrongTopics) > maxTopicList {
		snapshot.StrongTopics = snapshot.StrongTopics[:maxTopicList]
	}

	sort.Slice(snapshot.TopTopics, func(i, j int) bool {
		a, b := snapshot.TopTopics[i], snapshot.TopTopics[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Topic < b.Topic
	})
	if len(snapshot.TopTopics) > maxTopicCounts {
		snapshot.TopTopics = snapshot.TopTopics[:maxTopicCounts]
	}

	for date, count := range days {
		snapshot.DailyActivity = append(snapshot.DailyActivity, DayCount{Date: date, Count: count})
	}
	sort.Slice(snapshot.DailyActivity, func(i, j int) bool {
		return snapshot.DailyActivity[i].Date < snapshot.DailyActivity[j].Date
	})

	snapshot.Recommendations = e.recommendFor(ctx, snapshot.WeakTopics)

	return snapshot
}

// NormalizeTopic folds topic variants into one bucket: trims whitespace,
// lowercases for the comparison key, and strips a trailing parenthetical so
// "Photosynthesis (in plants)" and "photosynthesis" count together. The
// returned form is title-cased from the first variant's base text.
func NormalizeTopic(topic string) string {
	topic = strings.TrimSpace(topic)
	if idx := strings.LastIndex(topic, "("); idx > 0 && strings.HasSuffix(topic, ")") {
		topic = strings.TrimSpace(topic[:idx])
	}
	if topic == "" {
		return ""
	}
	return titleCase(strings.ToLower(topic))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// daysBetween counts whole calendar days from a to b, never negative.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(bd.Sub(ad).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
