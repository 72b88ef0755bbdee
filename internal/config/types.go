package config

// FullConfig is the dynamic, admin-editable configuration persisted as a
// JSON option row and managed by the configs service.
type FullConfig struct {
	Site         SiteOptions         `json:"site"`
	AI           AIConfig            `json:"ai"`
	Evaluation   EvaluationOptions   `json:"evaluation"`
	Quota        QuotaOptions        `json:"quota"`
	MeiliSearch  MeiliSearchOptions  `json:"meili_search_options"`
	ImageStorage ImageStorageOptions `json:"image_storage_options"`
}

type SiteOptions struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type AIConfig struct {
	Providers   []AIProvider       `json:"providers"`
	VisionModel *AIModelAssignment `json:"vision_model,omitempty"`
	BriefModel  *AIModelAssignment `json:"brief_model,omitempty"`
}

type AIModelAssignment struct {
	ProviderID string `json:"provider_id"`
	Model      string `json:"model"`
}

type AIProvider struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"` // OpenAI | OpenAI-Compatible | Anthropic | OpenRouter
	APIKey       string `json:"api_key"`
	Endpoint     string `json:"endpoint,omitempty"`
	DefaultModel string `json:"default_model"`
	Enabled      bool   `json:"enabled"`
}

// EvaluationOptions tunes the batch pipeline. ChunkSize items are evaluated
// concurrently; consecutive chunks are separated by ChunkDelayMS to respect
// upstream rate limits.
type EvaluationOptions struct {
	Enable                bool    `json:"enable"`
	ChunkSize             int     `json:"chunk_size"`
	ChunkDelayMS          int     `json:"chunk_delay_ms"`
	ItemTimeoutSeconds    int     `json:"item_timeout_seconds"`
	MaxOutputTokens       int     `json:"max_output_tokens"`
	Temperature           float64 `json:"temperature"`
	ContextBriefThreshold int     `json:"context_brief_threshold"`
}

// QuotaOptions caps per-owner daily showcase creation. The limit is a
// best-effort abuse control, not an exact ceiling: concurrent submissions
// may both pass the pre-flight check.
type QuotaOptions struct {
	DailyLimit int `json:"daily_limit"`
}

type MeiliSearchOptions struct {
	Enable    bool   `json:"enable"`
	Host      string `json:"host,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	IndexName string `json:"index_name"`
}

// ImageStorageOptions configures the S3-compatible bucket that hosts
// uploaded design images; the invoker resolves s3:// image refs through it.
type ImageStorageOptions struct {
	Enable          bool   `json:"enable"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Endpoint        string `json:"endpoint,omitempty"`
	PathStyleAccess bool   `json:"path_style_access"`
}

// DefaultFullConfig returns the built-in dynamic configuration.
func DefaultFullConfig() FullConfig {
	return FullConfig{
		Site: SiteOptions{
			Title: "uidex",
		},
		AI: AIConfig{
			Providers: []AIProvider{},
		},
		Evaluation: EvaluationOptions{
			Enable:                true,
			ChunkSize:             3,
			ChunkDelayMS:          1500,
			ItemTimeoutSeconds:    60,
			MaxOutputTokens:       1024,
			Temperature:           0.2,
			ContextBriefThreshold: 2000,
		},
		Quota: QuotaOptions{
			DailyLimit: 30,
		},
		MeiliSearch: MeiliSearchOptions{
			IndexName: "uidex-showcases",
		},
	}
}
