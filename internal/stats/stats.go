// Package stats derives dashboard figures from a user's grooming history.
// Every function is pure; callers supply "now" and the calendar zone.
package stats

import (
	"log/slog"
	"sort"
	"time"

	"github.com/tidwall/gjson"
)

const (
	minITA = -50.0
	maxITA = 60.0
)

// Record is the slice of a history row the statistics need.
type Record struct {
	CreatedAt time.Time
	Data      []byte
}

// NormalizeITA maps an ITA angle onto a 0-100 skin health scale.
func NormalizeITA(ita float64) float64 {
	score := ((ita - minITA) / (maxITA - minITA)) * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ITA reads skin.ita_score, using features.skin when the top-level skin
// block is absent or empty.
func ITA(doc []byte) (float64, bool) {
	if len(doc) == 0 || !gjson.ValidBytes(doc) {
		return 0, false
	}
	root := gjson.ParseBytes(doc)
	skin := root.Get("skin")
	if !skin.IsObject() || len(skin.Map()) == 0 {
		skin = root.Get("features.skin")
	}
	if !skin.IsObject() {
		return 0, false
	}
	v := skin.Get("ita_score")
	switch v.Type {
	case gjson.Number:
		return v.Float(), true
	case gjson.String:
		// some payloads carry the angle as a numeric string
		if n := gjson.Parse(v.String()); n.Type == gjson.Number {
			return n.Float(), true
		}
	}
	return 0, false
}

// SkinHealth is the normalized ITA of doc, or nil when it has none.
func SkinHealth(doc []byte) *float64 {
	ita, ok := ITA(doc)
	if !ok {
		return nil
	}
	s := NormalizeITA(ita)
	return &s
}

// Progress is the relative change from previous to latest skin health.
// It is nil when either score is missing or previous is zero.
func Progress(latest, previous []byte) *float64 {
	cur := SkinHealth(latest)
	prev := SkinHealth(previous)
	return relativeChange(cur, prev)
}

func relativeChange(cur, prev *float64) *float64 {
	if cur == nil || prev == nil || *prev <= 0 {
		return nil
	}
	p := ((*cur - *prev) / *prev) * 100
	return &p
}

// DailyStreak walks the distinct record dates from today backwards. Same-day
// dates extend the streak, a date one day before the cursor extends it and
// moves the cursor, an older date ends it, and future dates are skipped.
func DailyStreak(times []time.Time, now time.Time, loc *time.Location) int {
	if len(times) == 0 {
		return 0
	}
	if loc == nil {
		loc = time.UTC
	}

	seen := make(map[time.Time]struct{}, len(times))
	dates := make([]time.Time, 0, len(times))
	for _, t := range times {
		d := civilDate(t, loc)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	cursor := civilDate(now, loc)
	streak := 0
	for _, d := range dates {
		dayBefore := cursor.AddDate(0, 0, -1)
		switch {
		case d.Equal(cursor):
			streak++
		case d.Equal(dayBefore):
			streak++
			cursor = d
		case d.Before(dayBefore):
			return streak
		}
	}
	return streak
}

// civilDate drops the clock and zone so dates compare by calendar day.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Week returns Monday 00:00 through Sunday 23:59:59.999 of the week holding now.
func Week(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	sinceMonday := (int(local.Weekday()) + 6) % 7
	y, m, d := local.Date()
	start := time.Date(y, m, d-sinceMonday, 0, 0, 0, 0, loc)
	end := time.Date(y, m, d-sinceMonday+6, 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}

// PreviousWeek is the seven days immediately before start.
func PreviousWeek(start time.Time) (time.Time, time.Time) {
	y, m, d := start.Date()
	prevStart := time.Date(y, m, d-7, 0, 0, 0, 0, start.Location())
	return prevStart, start.Add(-time.Millisecond)
}

type Weekly struct {
	AnalysesCount         int
	AverageSkinHealth     *float64
	ImprovementPercentage *float64
	WeekStart             time.Time
	WeekEnd               time.Time
}

// WeeklySummary counts every record in the current week and averages the
// scored ones. Improvement needs scored records in both weeks.
func WeeklySummary(current, previous []Record, start, end time.Time) Weekly {
	w := Weekly{AnalysesCount: len(current), WeekStart: start, WeekEnd: end}
	w.AverageSkinHealth = averageScore(current)
	if len(previous) > 0 {
		w.ImprovementPercentage = relativeChange(w.AverageSkinHealth, averageScore(previous))
	}
	return w
}

func averageScore(records []Record) *float64 {
	var sum float64
	var n int
	for _, r := range records {
		if s := SkinHealth(r.Data); s != nil {
			sum += *s
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

type Badge struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Unlocked    bool
	UnlockedAt  *time.Time
}

// Achievements evaluates the fixed badge set in display order and returns it
// with the number unlocked.
func Achievements(total int64, streak int, latest *time.Time) ([]Badge, int) {
	badges := []Badge{
		{ID: "first_analysis", Title: "First Analysis Complete", Description: "Complete your first grooming analysis", Icon: "check_circle", Unlocked: total >= 1},
		{ID: "streak_7", Title: "7 Day Streak", Description: "Maintain a 7-day analysis streak", Icon: "local_fire_department", Unlocked: streak >= 7},
		{ID: "analyses_10", Title: "10 Analyses Done", Description: "Complete 10 grooming analyses", Icon: "star", Unlocked: total >= 10},
	}
	unlocked := 0
	for i := range badges {
		if !badges[i].Unlocked {
			continue
		}
		unlocked++
		if latest != nil {
			at := *latest
			badges[i].UnlockedAt = &at
		}
	}
	return badges, unlocked
}

// Safe runs fn and returns fallback if it panics, so one broken statistic
// leaves the rest of a dashboard intact.
func Safe[T any](name string, fallback T, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("statistic failed", "stat", name, "error", r)
			out = fallback
		}
	}()
	return fn()
}
