package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Login authenticates the user and returns the access token and user
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile returns the user the stored token belongs to
func (c *Client) Profile(ctx context.Context) (*ProfileResponse, error) {
	var resp ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListDataSources returns all configured data sources
func (c *Client) ListDataSources(ctx context.Context) ([]DataSource, error) {
	var sources []DataSource
	if err := c.do(ctx, http.MethodGet, "/datasources", nil, nil, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// TriggerDataSource starts a crawl of the data source
func (c *Client) TriggerDataSource(ctx context.Context, id int64, force bool) (*DataSource, error) {
	query := url.Values{"force": {strconv.FormatBool(force)}}

	var source DataSource
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/datasources/%d/trigger", id), query, nil, &source); err != nil {
		return nil, err
	}
	return &source, nil
}

// ListArticles returns generated articles
func (c *Client) ListArticles(ctx context.Context) ([]Article, error) {
	var articles []Article
	if err := c.do(ctx, http.MethodGet, "/generate/articles", nil, nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// GetArticle returns one article by ID
func (c *Client) GetArticle(ctx context.Context, id int64) (*Article, error) {
	var article Article
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/generate/articles/%d", id), nil, nil, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// ListDailyHotspots returns the hotspot digest for a day (YYYY-MM-DD)
func (c *Client) ListDailyHotspots(ctx context.Context, day string, limit int) (*DailyHotspotList, error) {
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if day != "" {
		query.Set("day", day)
	}

	var list DailyHotspotList
	if err := c.do(ctx, http.MethodGet, "/daily-hotspots/", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListMaterialPacks returns material packs, optionally filtered by keyword
func (c *Client) ListMaterialPacks(ctx context.Context, keyword string, limit, offset int) (*MaterialPackList, error) {
	query := url.Values{}
	if keyword != "" {
		query.Set("keyword", keyword)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var list MaterialPackList
	if err := c.do(ctx, http.MethodGet, "/materials/packs", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetMaterialPack returns a pack with its items
func (c *Client) GetMaterialPack(ctx context.Context, id int64) (*MaterialPackDetail, error) {
	var detail MaterialPackDetail
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/materials/packs/%d", id), nil, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// BatchCreateMaterialItems stores several items in a pack in one call
func (c *Client) BatchCreateMaterialItems(ctx context.Context, packID int64, items []MaterialItemCreate) ([]MaterialItem, error) {
	body := struct {
		Items []MaterialItemCreate `json:"items"`
	}{Items: items}

	var created []MaterialItem
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/materials/packs/%d/items:batchCreate", packID), nil, body, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// ListUsers returns all platform users (admin only)
func (c *Client) ListUsers(ctx context.Context) (*UserList, error) {
	var list UserList
	if err := c.do(ctx, http.MethodGet, "/users", nil, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListCrawlRecords returns fetched content, newest first
func (c *Client) ListCrawlRecords(ctx context.Context, filter CrawlRecordFilter) (*CrawlRecordList, error) {
	query := url.Values{}
	if filter.DataSourceID > 0 {
		query.Set("datasource_id", strconv.FormatInt(filter.DataSourceID, 10))
	}
	if filter.StartDate != "" {
		query.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		query.Set("end_date", filter.EndDate)
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		query.Set("offset", strconv.Itoa(filter.Offset))
	}

	var list CrawlRecordList
	if err := c.do(ctx, http.MethodGet, "/crawl-records", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetCrawlRecord returns one crawl record with its content
func (c *Client) GetCrawlRecord(ctx context.Context, id int64) (*CrawlRecordDetail, error) {
	var record CrawlRecordDetail
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/crawl-records/%d", id), nil, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListPublishAccounts returns the publishing accounts the user can use
func (c *Client) ListPublishAccounts(ctx context.Context) ([]PublishAccount, error) {
	var accounts []PublishAccount
	if err := c.do(ctx, http.MethodGet, "/publish/accounts", nil, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}
