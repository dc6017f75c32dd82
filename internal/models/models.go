package models

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Roles known to the platform
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// BaseModel provides common fields for all models
type BaseModel struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// User represents a console account
type User struct {
	BaseModel
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	FullName     *string   `json:"full_name"`
	Email        *string   `json:"email"`
	Role         string    `json:"role" gorm:"not null"`
	IsActive     bool      `json:"is_active" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return strings.EqualFold(u.Role, RoleAdmin)
}

// DataSource is a crawl source owned by a user
type DataSource struct {
	BaseModel
	UserID         int64           `json:"-" gorm:"index"`
	Name           string          `json:"name" gorm:"not null"`
	SourceType     string          `json:"source_type" gorm:"not null"`
	Config         json.RawMessage `json:"config,omitempty" gorm:"serializer:json"`
	BizCategory    *string         `json:"biz_category"`
	ScheduleCron   *string         `json:"schedule_cron"`
	EnableSchedule bool            `json:"enable_schedule" gorm:"not null"`
	LastRunAt      *time.Time      `json:"last_run_at"`
	NextRunAt      *time.Time      `json:"next_run_at"`
}

// Article is a generated article
type Article struct {
	BaseModel
	UserID      int64   `json:"-" gorm:"index"`
	Title       string  `json:"title" gorm:"not null"`
	Summary     *string `json:"summary"`
	ContentMD   string  `json:"content_md" gorm:"type:text"`
	ContentHTML string  `json:"content_html" gorm:"type:text"`
	LLMProvider *string `json:"llm_provider"`
	LLMModel    *string `json:"llm_model"`
	ElapsedMS   *int64  `json:"elapsed_ms"`
}

// HotspotEvent is one clustered event of a daily digest
type HotspotEvent struct {
	BaseModel
	Day         string   `json:"day" gorm:"index;not null"` // YYYY-MM-DD
	Title       string   `json:"title" gorm:"not null"`
	Summary     *string  `json:"summary"`
	HotScore    float64  `json:"hot_score"`
	Keywords    []string `json:"keywords" gorm:"serializer:json"`
	SourceCount int      `json:"source_count"`
}

// MaterialPack groups curated material items
type MaterialPack struct {
	BaseModel
	UserID      int64   `json:"-" gorm:"index"`
	Name        string  `json:"name" gorm:"not null"`
	Description *string `json:"description"`
}

// MaterialItem is a stored material snippet
type MaterialItem struct {
	BaseModel
	UserID          int64          `json:"-" gorm:"index"`
	PackID          int64          `json:"pack_id" gorm:"index;not null"`
	ItemType        string         `json:"item_type"`
	Text            string         `json:"text" gorm:"type:text;not null"`
	TextHash        string         `json:"text_hash" gorm:"index"`
	SourceURL       *string        `json:"source_url"`
	SourceContentID *int64         `json:"source_content_id"`
	SourceEventID   *int64         `json:"source_event_id"`
	Meta            map[string]any `json:"meta,omitempty" gorm:"serializer:json"`
}

// CrawlRecord is one piece of content fetched from a data source
type CrawlRecord struct {
	ID           int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       int64          `json:"-" gorm:"index"`
	DataSourceID int64          `json:"datasource_id" gorm:"index;not null"`
	SourceType   string         `json:"source_type" gorm:"not null"`
	Title        *string        `json:"title"`
	URL          *string        `json:"url"`
	Content      string         `json:"content" gorm:"type:text"`
	Extra        map[string]any `json:"extra,omitempty" gorm:"serializer:json"`
	FetchedAt    time.Time      `json:"fetched_at" gorm:"index"`
}

// DisplayTitle prefers extra.display_title over the stored title
func (r *CrawlRecord) DisplayTitle() *string {
	if dt, ok := r.Extra["display_title"].(string); ok && strings.TrimSpace(dt) != "" {
		t := strings.TrimSpace(dt)
		return &t
	}
	return r.Title
}

// PublishAccount is a channel account articles can be published to
type PublishAccount struct {
	BaseModel
	UserID   int64          `json:"-" gorm:"index"`
	Name     string         `json:"name" gorm:"not null"`
	Provider string         `json:"provider" gorm:"not null"`
	IsActive bool           `json:"is_active" gorm:"not null"`
	Config   map[string]any `json:"config,omitempty" gorm:"serializer:json"`
}

// NormalizeText trims and collapses whitespace
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ItemHash identifies an item by lower-cased type and normalized text
func ItemHash(itemType, text string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(itemType)) + "|" + NormalizeText(text)))
	return hex.EncodeToString(sum[:])
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&User{}, &DataSource{}, &Article{}, &HotspotEvent{}, &MaterialPack{}, &MaterialItem{},
		&CrawlRecord{}, &PublishAccount{},
	}

	return db.AutoMigrate(models...)
}

// FindByID finds a record by ID
func FindByID[T any](db *gorm.DB, id int64, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// FindOwned finds a record by ID, restricted to ownerID unless ownerID is 0
func FindOwned[T any](db *gorm.DB, id, ownerID int64, model *T) error {
	query := db.Where("id = ?", id)
	if ownerID != 0 {
		query = query.Where("user_id = ?", ownerID)
	}
	return query.First(model).Error
}
