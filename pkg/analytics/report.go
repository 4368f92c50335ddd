package analytics

import (
	"time"
)

// DashboardReport is the full analytics projection for one request.
type DashboardReport struct {
	KPI         KPISection        `json:"kpi"`
	Trends      TrendsSection     `json:"trends"`
	Conversion  ConversionSection `json:"conversion"`
	Features    FeaturesSection   `json:"features"`
	Churn       ChurnSection      `json:"churn"`
	Engagement  EngagementSection `json:"engagement"`
	Users       UsersSection      `json:"users"`
	Filters     Filters           `json:"filters"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// KPIValue is a headline metric with its previous-period comparison and a
// mini-trend over the current period.
type KPIValue struct {
	Value    float64   `json:"value"`
	Previous float64   `json:"previous"`
	Change   float64   `json:"change"`
	Trend    []float64 `json:"trend"`
}

// KPISection groups the headline metrics.
type KPISection struct {
	NewFreeInstallations KPIValue `json:"new_free_installations"`
	NewProInstallations  KPIValue `json:"new_pro_installations"`
	ActiveFreeUsers      KPIValue `json:"active_free_users"`
	ActiveProUsers       KPIValue `json:"active_pro_users"`
	ConversionRate       KPIValue `json:"conversion_rate"`
	ChurnRate            KPIValue `json:"churn_rate"`
}

// DailyCount is one point of a zero-filled daily series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TrendsSection holds daily installation counts per plan.
type TrendsSection struct {
	FreeInstallations []DailyCount `json:"free_installations"`
	ProInstallations  []DailyCount `json:"pro_installations"`
}

// Bucket is a labelled count inside a distribution.
type Bucket struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ConversionSection describes Free to Pro upgrades.
type ConversionSection struct {
	FreeUsersAtStart int                 `json:"free_users_at_start"`
	Conversions      int                 `json:"conversions"`
	Rate             float64             `json:"conversion_rate"`
	Timeline         []DailyCount        `json:"timeline"`
	TimeToConvert    []Bucket            `json:"time_to_convert"`
	Recent           []RecentConversion  `json:"recent"`
	ByFeature        []FeatureConversion `json:"by_feature"`
}

// RecentConversion is one converted user with the counters reported on
// their first Pro event.
type RecentConversion struct {
	Email             string    `json:"email"`
	FreeDate          time.Time `json:"free_date"`
	ProDate           time.Time `json:"pro_date"`
	DaysToConvert     int       `json:"days_to_convert"`
	Tasks             int64     `json:"cnt_tasks"`
	TokensChatbots    int64     `json:"tokens_chatbots"`
	TokensPostsCreate int64     `json:"tokens_postscreate"`
	TokensWorkflow    int64     `json:"tokens_workflow"`
	TokensTotal       int64     `json:"tokens_total"`
}

// FeatureConversion relates the use of one feature to reaching Pro.
type FeatureConversion struct {
	Key            string  `json:"token_name"`
	Feature        string  `json:"feature"`
	TotalUsers     int     `json:"total_users"`
	ConvertedUsers int     `json:"converted_users"`
	Rate           float64 `json:"conversion_rate"`
}

// FeatureUsage is the all-time adoption of one feature.
type FeatureUsage struct {
	Key          string `json:"token_name"`
	Feature      string `json:"feature"`
	Users        int    `json:"user_count"`
	TotalTokens  int64  `json:"total_tokens"`
	LatestTokens int64  `json:"latest_tokens"`
}

// ProviderUsage counts users with an API key for one provider.
type ProviderUsage struct {
	Key        string  `json:"key"`
	Provider   string  `json:"provider"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// FeaturesSection ranks feature adoption.
type FeaturesSection struct {
	ByUsers    []FeatureUsage  `json:"by_users"`
	ByTokens   []FeatureUsage  `json:"by_tokens"`
	ByProvider []ProviderUsage `json:"by_provider"`
}

// ReasonCount is the number of deactivations citing one reason.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// PlanChurn is the churn rate restricted to one plan.
type PlanChurn struct {
	Plan          string  `json:"plan"`
	ActiveAtStart int     `json:"active_at_start"`
	Deactivations int     `json:"deactivations"`
	Rate          float64 `json:"churn_rate"`
}

// ChurnSection describes deactivations.
type ChurnSection struct {
	ActiveAtStart int           `json:"active_at_start"`
	Deactivations int           `json:"deactivations"`
	Rate          float64       `json:"churn_rate"`
	Reasons       []ReasonCount `json:"reasons"`
	Timeline      []DailyCount  `json:"timeline"`
	ByPlan        []PlanChurn   `json:"by_plan"`
}

// EngagementSection segments users by their latest ping.
type EngagementSection struct {
	TotalUsers   int             `json:"total_users"`
	Segments     []Bucket        `json:"segments"`
	MultiFeature []Bucket        `json:"multi_feature"`
	Providers    []ProviderUsage `json:"providers"`
}

// UserActivity is one row of the user listing.
type UserActivity struct {
	Email        string     `json:"email"`
	Plan         string     `json:"plan"`
	Activated    *time.Time `json:"activated"`
	LastActivity time.Time  `json:"last_activity"`
	Tasks        int64      `json:"cnt_tasks"`
	TokensTotal  int64      `json:"tokens_total"`
	FeaturesUsed int        `json:"features_used"`
}

// UsersSection is one page of the user listing.
type UsersSection struct {
	Total  int            `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Rows   []UserActivity `json:"rows"`
}

// Filters echoes the effective request.
type Filters struct {
	DateFrom     string `json:"date_from"`
	DateTo       string `json:"date_to"`
	PrevDateFrom string `json:"prev_date_from"`
	PrevDateTo   string `json:"prev_date_to"`
	Plan         string `json:"plan"`
	Feature      string `json:"feature,omitempty"`
	Defaulted    bool   `json:"defaulted"`
}
