package analytics

import (
	"sort"
	"time"

	"github.com/godilite/feedback-insights/internal/domain"
)

type UrgencyGroup struct {
	Urgency           domain.Urgency `json:"urgency"`
	Count             int            `json:"count"`
	AvgSentimentScore float64        `json:"avgSentimentScore"`
	OldestCreatedAt   time.Time      `json:"oldestCreatedAt"`
	NewestCreatedAt   time.Time      `json:"newestCreatedAt"`
	// AvgResponseTime is the age of the oldest open item, in days.
	AvgResponseTime float64 `json:"avgResponseTime"`
	OverdueCount    int     `json:"overdueCount"`
}

type UrgencyDashboard struct {
	Total  int            `json:"total"`
	Groups []UrgencyGroup `json:"groups"`
}

type urgencyAcc struct {
	stats
	oldest, newest time.Time
	overdue        int
}

// ComputeUrgencyDashboard groups the open backlog by urgency, emitted in
// priority order. Unclassified records count as low.
func ComputeUrgencyDashboard(recs []domain.FeedbackRecord, now time.Time) UrgencyDashboard {
	groups := make(map[domain.Urgency]*urgencyAcc)
	total := 0
	for _, r := range visible(recs) {
		u := r.EffectiveUrgency()
		g, ok := groups[u]
		if !ok {
			g = &urgencyAcc{oldest: r.CreatedAt, newest: r.CreatedAt}
			groups[u] = g
		}
		g.add(r)
		if r.CreatedAt.Before(g.oldest) {
			g.oldest = r.CreatedAt
		}
		if r.CreatedAt.After(g.newest) {
			g.newest = r.CreatedAt
		}
		if domain.IsOverdue(r, now) {
			g.overdue++
		}
		total++
	}

	out := UrgencyDashboard{Total: total, Groups: make([]UrgencyGroup, 0, len(groups))}
	for _, u := range domain.UrgencyPriority {
		g, ok := groups[u]
		if !ok {
			continue
		}
		out.Groups = append(out.Groups, UrgencyGroup{
			Urgency:           u,
			Count:             g.count,
			AvgSentimentScore: round2(g.avgScore()),
			OldestCreatedAt:   g.oldest,
			NewestCreatedAt:   g.newest,
			AvgResponseTime:   round1(now.Sub(g.oldest).Hours() / 24),
			OverdueCount:      g.overdue,
		})
	}
	return out
}

type InsightItem struct {
	ID                 string             `json:"id"`
	Rating             int                `json:"rating"`
	Comment            string             `json:"comment"`
	ServiceType        domain.ServiceType `json:"serviceType,omitempty"`
	Branch             string             `json:"branch,omitempty"`
	Sentiment          domain.Sentiment   `json:"sentiment"`
	Urgency            domain.Urgency     `json:"urgency"`
	Categories         []domain.Category  `json:"categories"`
	ActionableInsights string             `json:"actionableInsights"`
	Status             domain.Status      `json:"status"`
	CreatedAt          time.Time          `json:"createdAt"`
	Flags              domain.RecordFlags `json:"flags"`
}

type ActionableInsights struct {
	Total    int           `json:"total"`
	Insights []InsightItem `json:"insights"`
}

// ComputeActionableInsights lists records carrying an insight, most urgent
// first and newest first within an urgency, cut to limit.
func ComputeActionableInsights(recs []domain.FeedbackRecord, urgency domain.Urgency, serviceType domain.ServiceType, limit int, now time.Time) ActionableInsights {
	if limit <= 0 {
		limit = domain.DefaultInsightLimit
	}

	matched := make([]domain.FeedbackRecord, 0, len(recs))
	for _, r := range visible(recs) {
		if r.Analysis.ActionableInsights == "" {
			continue
		}
		if urgency != "" && r.EffectiveUrgency() != urgency {
			continue
		}
		if serviceType != "" && r.ServiceType != serviceType {
			continue
		}
		matched = append(matched, r)
	}

	sort.Slice(matched, func(i, j int) bool {
		ri, rj := domain.UrgencyRank(matched[i].EffectiveUrgency()), domain.UrgencyRank(matched[j].EffectiveUrgency())
		if ri != rj {
			return ri < rj
		}
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	out := ActionableInsights{Total: len(matched)}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	out.Insights = make([]InsightItem, 0, len(matched))
	for _, r := range matched {
		out.Insights = append(out.Insights, InsightItem{
			ID:                 r.ID,
			Rating:             r.Rating,
			Comment:            r.Comment,
			ServiceType:        r.ServiceType,
			Branch:             r.Branch,
			Sentiment:          r.Analysis.Sentiment,
			Urgency:            r.EffectiveUrgency(),
			Categories:         r.Analysis.Categories,
			ActionableInsights: r.Analysis.ActionableInsights,
			Status:             r.Status,
			CreatedAt:          r.CreatedAt,
			Flags:              domain.Flags(r, now),
		})
	}
	return out
}
