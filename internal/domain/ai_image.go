package domain

import "time"

// AI image record types.
const (
	AIImageTypeGeneration = "generation"
	AIImageTypeAnalysis   = "analysis"
)

// ValidAIImageType reports whether t is a known image record type.
func ValidAIImageType(t string) bool {
	return t == AIImageTypeGeneration || t == AIImageTypeAnalysis
}

// AIImage is a record of an image the bot generated or analyzed. The bot
// writes these rows; the API only reads them for the dashboard.
type AIImage struct {
	ID        int64     `json:"id"`
	GuildID   int64     `json:"guild_id,string"`
	UserID    int64     `json:"user_id,string"`
	Type      string    `json:"type"`
	Prompt    string    `json:"prompt"`
	URL       string    `json:"url"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// AIImageStats aggregates a guild's image usage for the dashboard.
type AIImageStats struct {
	TotalGenerations   int64 `json:"total_generations"`
	TotalAnalyses      int64 `json:"total_analyses"`
	MonthlyGenerations int64 `json:"monthly_generations"`
	MonthlyAnalyses    int64 `json:"monthly_analyses"`
	UniqueUsers        int64 `json:"unique_users"`
}

// AIImageLimits describes what the guild's tier allows for image features.
type AIImageLimits struct {
	Tier                 string `json:"tier"`
	MonthlyImageLimit    int    `json:"monthly_image_limit"`
	MonthlyAnalysisLimit int    `json:"image_analysis_monthly_limit"`
	CanGenerate          bool   `json:"can_generate"`
	CanAnalyze           bool   `json:"can_analyze"`
}

// AIImageLimitsForTier returns the image feature caps for the tier. Image
// generation and analysis belong to the premium-plus AI tier.
func AIImageLimitsForTier(tier string) AIImageLimits {
	limits := AIImageLimits{Tier: tier}
	if tier == TierPremiumPlus {
		limits.MonthlyImageLimit = 100
		limits.MonthlyAnalysisLimit = 200
		limits.CanGenerate = true
		limits.CanAnalyze = true
	}
	return limits
}
