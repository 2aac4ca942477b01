package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/bwengye/bwengye/internal/models"
	"gorm.io/gorm"
)

// Summary holds the headline counters for one user and time range.
type Summary struct {
	TotalEvents         int64 `json:"totalEvents"`
	TotalConversations  int64 `json:"totalConversations"`
	TotalMessages       int64 `json:"totalMessages"`
	TotalTokensUsed     int64 `json:"totalTokensUsed"`
	AvgProcessingTimeMS int64 `json:"avgProcessingTimeMs"`
}

// DayActivity is the event count for one calendar day.
type DayActivity struct {
	Date   string `json:"date"`
	Events int64  `json:"events"`
}

// Insights are derived highlights for the dashboard.
type Insights struct {
	MostUsedModel           string `json:"mostUsedModel"`
	MostCommonEventType     string `json:"mostCommonEventType"`
	AverageTokensPerMessage int64  `json:"averageTokensPerMessage"`
}

// Dashboard is the aggregated usage view for one user.
type Dashboard struct {
	TimeRange          string           `json:"timeRange"`
	Summary            Summary          `json:"summary"`
	ModelUsage         map[string]int64 `json:"modelUsage"`
	EventTypeBreakdown map[string]int64 `json:"eventTypeBreakdown"`
	DailyActivity      []DayActivity    `json:"dailyActivity"`
	Insights           Insights         `json:"insights"`
}

// rangeDays maps the accepted time ranges to day counts; anything else
// falls back to a week.
func rangeDays(timeRange string) int {
	switch timeRange {
	case "1d":
		return 1
	case "30d":
		return 30
	default:
		return 7
	}
}

// GetDashboard aggregates the user's recent activity.
func GetDashboard(ctx context.Context, db *gorm.DB, userID, timeRange string) (*Dashboard, error) {
	days := rangeDays(timeRange)
	now := time.Now().UTC()
	since := now.AddDate(0, 0, -days)

	d := &Dashboard{
		TimeRange:          timeRange,
		ModelUsage:         make(map[string]int64),
		EventTypeBreakdown: make(map[string]int64),
	}

	if err := db.WithContext(ctx).Model(&models.AnalyticsEvent{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&d.Summary.TotalEvents).Error; err != nil {
		return nil, fmt.Errorf("analytics: count events: %w", err)
	}

	if err := db.WithContext(ctx).Model(&models.Conversation{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&d.Summary.TotalConversations).Error; err != nil {
		return nil, fmt.Errorf("analytics: count conversations: %w", err)
	}

	// Assistant turns carry the token and timing columns.
	type msgAgg struct {
		Count     int64
		Tokens    int64
		AvgTimeMS float64
	}
	var agg msgAgg
	if err := db.WithContext(ctx).Model(&models.Message{}).
		Select("COUNT(*) as count, COALESCE(SUM(tokens_used),0) as tokens, COALESCE(AVG(processing_time_ms),0) as avg_time_ms").
		Where("user_id = ? AND role = ? AND created_at >= ?", userID, models.RoleAssistant, since).
		Scan(&agg).Error; err != nil {
		return nil, fmt.Errorf("analytics: aggregate messages: %w", err)
	}
	d.Summary.TotalMessages = agg.Count
	d.Summary.TotalTokensUsed = agg.Tokens
	d.Summary.AvgProcessingTimeMS = int64(agg.AvgTimeMS + 0.5)

	// Model usage breakdown.
	type pair struct {
		Name  string
		Count int64
	}
	var modelRows []pair
	if err := db.WithContext(ctx).Model(&models.Message{}).
		Select("model_used as name, COUNT(*) as count").
		Where("user_id = ? AND role = ? AND model_used != '' AND created_at >= ?", userID, models.RoleAssistant, since).
		Group("model_used").
		Scan(&modelRows).Error; err != nil {
		return nil, fmt.Errorf("analytics: model usage: %w", err)
	}
	for _, r := range modelRows {
		d.ModelUsage[r.Name] = r.Count
	}

	var eventRows []pair
	if err := db.WithContext(ctx).Model(&models.AnalyticsEvent{}).
		Select("event_type as name, COUNT(*) as count").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("event_type").
		Scan(&eventRows).Error; err != nil {
		return nil, fmt.Errorf("analytics: event breakdown: %w", err)
	}
	for _, r := range eventRows {
		d.EventTypeBreakdown[r.Name] = r.Count
	}

	daily, err := dailyActivity(ctx, db, userID, now, days)
	if err != nil {
		return nil, err
	}
	d.DailyActivity = daily

	d.Insights = Insights{
		MostUsedModel:           topKey(d.ModelUsage),
		MostCommonEventType:     topKey(d.EventTypeBreakdown),
		AverageTokensPerMessage: avgTokens(agg.Tokens, agg.Count),
	}
	return d, nil
}

// dailyActivity returns per-day event counts for the window, including
// zero-event days so the chart has no holes.
func dailyActivity(ctx context.Context, db *gorm.DB, userID string, now time.Time, days int) ([]DayActivity, error) {
	since := now.AddDate(0, 0, -days)

	type dayRow struct {
		Day    string
		Events int64
	}
	var rows []dayRow
	if err := db.WithContext(ctx).Model(&models.AnalyticsEvent{}).
		Select("DATE(created_at) as day, COUNT(*) as events").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("day").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("analytics: daily activity: %w", err)
	}

	byDay := make(map[string]int64, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r.Events
	}

	activity := make([]DayActivity, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		activity = append(activity, DayActivity{Date: date, Events: byDay[date]})
	}
	return activity, nil
}

// topKey returns the key with the highest count, or "none" for an empty map.
func topKey(counts map[string]int64) string {
	top, best := "none", int64(0)
	for k, v := range counts {
		if v > best || (v == best && top != "none" && k < top) {
			top, best = k, v
		}
	}
	return top
}

func avgTokens(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}
