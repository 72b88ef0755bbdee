package models

// ShowcaseModel is the store-of-record row for one evaluated UI design image.
// Score columns keep the model's 0-10 rating domain; API consumers normalize
// to 0-1 on read. A row is created exactly once per successful persistence and
// is never mutated by the pipeline; only the admin approval flow flips
// Approved afterwards.
type ShowcaseModel struct {
	Base
	OwnerID       string      `json:"owner_id"       gorm:"type:char(36);index;not null"`
	ImageRef      string      `json:"image_ref"      gorm:"type:text;not null"`
	ProjectName   string      `json:"project_name"   gorm:"index"`
	UIType        string      `json:"ui_type"        gorm:"column:ui_type;not null"`
	StructureNote string      `json:"structure_note" gorm:"type:text;not null"`
	ReviewText    string      `json:"review_text"    gorm:"type:text;not null"`
	Tags          StringArray `json:"tags"           gorm:"type:json"`

	ScoreAesthetic     *float64 `json:"score_aesthetic"     gorm:"type:decimal(4,2)"`
	ScoreUsability     *float64 `json:"score_usability"     gorm:"type:decimal(4,2)"`
	ScoreAlignment     *float64 `json:"score_alignment"     gorm:"type:decimal(4,2)"`
	ScoreAccessibility *float64 `json:"score_accessibility" gorm:"type:decimal(4,2)"`
	ScoreConsistency   *float64 `json:"score_consistency"   gorm:"type:decimal(4,2)"`

	// ParseMode records result fidelity: json | heuristic | fallback.
	ParseMode string `json:"parse_mode" gorm:"index;default:'json'"`
	Approved  bool   `json:"approved"   gorm:"default:false;index"`
}

func (ShowcaseModel) TableName() string { return "showcases" }
