package client

import "encoding/json"

// User mirrors the backend's UserOut
type User struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	FullName  *string `json:"full_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Role      string  `json:"role"`
	IsActive  bool    `json:"is_active"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        User     `json:"user"`
	Menus       []string `json:"menus,omitempty"`
}

// ProfileResponse represents the current user's profile
type ProfileResponse struct {
	User  User     `json:"user"`
	Menus []string `json:"menus,omitempty"`
}

// UserList is a page of users
type UserList struct {
	Total int    `json:"total"`
	Items []User `json:"items"`
}

// DataSource is a configured crawl source
type DataSource struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	SourceType     string          `json:"source_type"`
	Config         json.RawMessage `json:"config,omitempty"`
	BizCategory    *string         `json:"biz_category,omitempty"`
	ScheduleCron   *string         `json:"schedule_cron,omitempty"`
	EnableSchedule bool            `json:"enable_schedule"`
	LastRunAt      *string         `json:"last_run_at,omitempty"`
	NextRunAt      *string         `json:"next_run_at,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

// Article is a generated article
type Article struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Summary     *string `json:"summary,omitempty"`
	ContentMD   string  `json:"content_md"`
	ContentHTML string  `json:"content_html"`
	LLMProvider *string `json:"llm_provider,omitempty"`
	LLMModel    *string `json:"llm_model,omitempty"`
	ElapsedMS   *int64  `json:"elapsed_ms,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// MaterialPack groups curated material items
type MaterialPack struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// MaterialPackList is a page of material packs
type MaterialPackList struct {
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Items  []MaterialPack `json:"items"`
}

// MaterialPackDetail is a pack with its items
type MaterialPackDetail struct {
	Pack  MaterialPack   `json:"pack"`
	Items []MaterialItem `json:"items"`
}

// MaterialItem is a stored material snippet
type MaterialItem struct {
	ID        int64   `json:"id"`
	PackID    int64   `json:"pack_id"`
	ItemType  string  `json:"item_type"`
	Text      string  `json:"text"`
	TextHash  string  `json:"text_hash"`
	SourceURL *string `json:"source_url,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// MaterialItemCreate is a material snippet to be stored
type MaterialItemCreate struct {
	ItemType        string         `json:"item_type" yaml:"item_type"`
	Text            string         `json:"text" yaml:"text"`
	SourceURL       *string        `json:"source_url,omitempty" yaml:"source_url,omitempty" validate:"omitempty,url"`
	SourceContentID *int64         `json:"source_content_id,omitempty" yaml:"source_content_id,omitempty"`
	SourceEventID   *int64         `json:"source_event_id,omitempty" yaml:"source_event_id,omitempty"`
	Meta            map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// DailyHotspotEvent is one clustered event of a daily digest
type DailyHotspotEvent struct {
	ID          int64    `json:"id"`
	Day         string   `json:"day"`
	Title       string   `json:"title"`
	Summary     *string  `json:"summary,omitempty"`
	HotScore    float64  `json:"hot_score"`
	Keywords    []string `json:"keywords,omitempty"`
	SourceCount int      `json:"source_count"`
	CreatedAt   string   `json:"created_at"`
}

// DailyHotspotList is the digest for one day
type DailyHotspotList struct {
	Day   string              `json:"day"`
	Items []DailyHotspotEvent `json:"items"`
}

// CrawlRecord is a piece of fetched content as listed
type CrawlRecord struct {
	ID             int64          `json:"id"`
	DataSourceID   int64          `json:"datasource_id"`
	DataSourceName *string        `json:"datasource_name,omitempty"`
	SourceType     string         `json:"source_type"`
	Title          *string        `json:"title,omitempty"`
	URL            *string        `json:"url,omitempty"`
	ContentPreview *string        `json:"content_preview,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
	FetchedAt      string         `json:"fetched_at"`
}

// CrawlRecordDetail is a crawl record with its full content
type CrawlRecordDetail struct {
	CrawlRecord
	Content string `json:"content"`
}

// CrawlRecordList is a page of crawl records
type CrawlRecordList struct {
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
	Items  []CrawlRecord `json:"items"`
}

// CrawlRecordFilter narrows a crawl record listing; zero values are left out
type CrawlRecordFilter struct {
	DataSourceID int64
	StartDate    string // YYYY-MM-DD
	EndDate      string // YYYY-MM-DD
	Limit        int
	Offset       int
}

// PublishAccount is a channel account articles are published to
type PublishAccount struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}
