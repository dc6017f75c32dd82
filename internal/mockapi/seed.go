package mockapi

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/inkdesk-dev/inkdesk/internal/auth"
	"github.com/inkdesk-dev/inkdesk/internal/models"
)

// Seeded account names
const (
	AdminUsername  = "admin"
	EditorUsername = "editor"
)

func ptr[T any](v T) *T { return &v }

// seed creates the fixture accounts and sample content once
func (s *Server) seed() error {
	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		admin, err := newUser(AdminUsername, "Administrator", models.RoleAdmin, s.config.Auth.AdminPassword)
		if err != nil {
			return err
		}
		editor, err := newUser(EditorUsername, "Eddie Editor", models.RoleEditor, s.config.Auth.EditorPassword)
		if err != nil {
			return err
		}
		if err := tx.Create([]*models.User{admin, editor}).Error; err != nil {
			return fmt.Errorf("failed to create users: %w", err)
		}

		sources := []models.DataSource{
			{
				UserID:         admin.ID,
				Name:           "Tech news",
				SourceType:     "url",
				Config:         json.RawMessage(`{"urls":["https://news.example.com/tech"]}`),
				BizCategory:    ptr("technology"),
				ScheduleCron:   ptr("0 */6 * * *"),
				EnableSchedule: true,
			},
			{
				UserID:     editor.ID,
				Name:       "Market feed",
				SourceType: "api",
				Config:     json.RawMessage(`{"endpoint":"https://feeds.example.com/markets"}`),
			},
		}
		if err := tx.Create(&sources).Error; err != nil {
			return fmt.Errorf("failed to create data sources: %w", err)
		}

		articles := []models.Article{
			{
				UserID:      admin.ID,
				Title:       "Chip export rules, explained",
				Summary:     ptr("What the new rules change for vendors."),
				ContentMD:   "## Background\n\nNew export rules take effect next month.",
				ContentHTML: "<h2>Background</h2><p>New export rules take effect next month.</p>",
				LLMProvider: ptr("deepseek"),
				LLMModel:    ptr("deepseek-chat"),
				ElapsedMS:   ptr(int64(5120)),
			},
			{
				UserID:      editor.ID,
				Title:       "Morning brief",
				ContentMD:   "- Markets opened higher",
				ContentHTML: "<ul><li>Markets opened higher</li></ul>",
				LLMProvider: ptr("openai"),
				LLMModel:    ptr("gpt-4o-mini"),
			},
		}
		if err := tx.Create(&articles).Error; err != nil {
			return fmt.Errorf("failed to create articles: %w", err)
		}

		today := s.now().Format(time.DateOnly)
		events := []models.HotspotEvent{
			{Day: today, Title: "Chip export rules tightened", HotScore: 9.4, Keywords: []string{"chips", "trade"}, SourceCount: 12},
			{Day: today, Title: "Central bank holds rates", HotScore: 8.1, Keywords: []string{"rates"}, SourceCount: 7},
			{Day: today, Title: "New open model released", HotScore: 7.6, Keywords: []string{"ai", "open source"}, SourceCount: 5},
		}
		if err := tx.Create(&events).Error; err != nil {
			return fmt.Errorf("failed to create hotspots: %w", err)
		}

		packs := []models.MaterialPack{
			{UserID: admin.ID, Name: "Export rules", Description: ptr("Quotes and facts for the explainer")},
			{UserID: editor.ID, Name: "Morning brief sources"},
		}
		if err := tx.Create(&packs).Error; err != nil {
			return fmt.Errorf("failed to create material packs: %w", err)
		}

		items := []models.MaterialItem{
			{
				UserID:    admin.ID,
				PackID:    packs[0].ID,
				ItemType:  "quote",
				Text:      "The rules apply to all advanced nodes.",
				TextHash:  models.ItemHash("quote", "The rules apply to all advanced nodes."),
				SourceURL: ptr("https://news.example.com/tech/export-rules"),
			},
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to create material items: %w", err)
		}

		now := s.now()
		records := []models.CrawlRecord{
			{
				UserID:       admin.ID,
				DataSourceID: sources[0].ID,
				SourceType:   sources[0].SourceType,
				Title:        ptr("export-rules"),
				URL:          ptr("https://news.example.com/tech/export-rules"),
				Content:      "The rules apply to all advanced nodes. Vendors have ninety days to comply.",
				Extra:        map[string]any{"display_title": "Export rules take effect"},
				FetchedAt:    now.Add(-2 * time.Hour),
			},
			{
				UserID:       admin.ID,
				DataSourceID: sources[0].ID,
				SourceType:   sources[0].SourceType,
				Title:        ptr("Open model release notes"),
				URL:          ptr("https://news.example.com/tech/open-model"),
				Content:      "The weights are published under a permissive license.",
				FetchedAt:    now.AddDate(0, 0, -3),
			},
			{
				UserID:       editor.ID,
				DataSourceID: sources[1].ID,
				SourceType:   sources[1].SourceType,
				Title:        ptr("Markets open"),
				Content:      "Markets opened higher on Tuesday.",
				FetchedAt:    now.Add(-time.Hour),
			},
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("failed to create crawl records: %w", err)
		}

		accounts := []models.PublishAccount{
			{UserID: admin.ID, Name: "Tech weekly", Provider: "wechat_official", IsActive: true, Config: map[string]any{"appid": "wx-demo"}},
			{UserID: editor.ID, Name: "Markets desk", Provider: "wechat_official"},
		}
		if err := tx.Create(&accounts).Error; err != nil {
			return fmt.Errorf("failed to create publish accounts: %w", err)
		}

		s.logger.Info().Int("users", 2).Msg("Seeded fixture data")
		return nil
	})
}

func newUser(username, fullName, role, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &models.User{
		Username:     username,
		FullName:     ptr(fullName),
		Email:        ptr(username + "@inkdesk.local"),
		Role:         role,
		IsActive:     true,
		PasswordHash: hash,
	}, nil
}
