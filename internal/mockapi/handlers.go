package mockapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/inkdesk-dev/inkdesk/internal/auth"
	"github.com/inkdesk-dev/inkdesk/internal/models"
)

const (
	defaultHotspotLimit = 20
	maxHotspotLimit     = 200
	defaultPackLimit    = 20
	maxPackLimit        = 100
	defaultRecordLimit  = 20
	maxRecordLimit      = 200
	previewLength       = 200
)

// supportedSourceTypes are the data source types a trigger can run
var supportedSourceTypes = map[string]bool{"url": true, "api": true, "document": true, "n8n": true}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
	Menus       []string     `json:"menus"`
}

// ProfileResponse represents the current user's profile
type ProfileResponse struct {
	User  *models.User `json:"user"`
	Menus []string     `json:"menus"`
}

// MaterialItemCreate is one item of a batch create request
type MaterialItemCreate struct {
	ItemType        string         `json:"item_type"`
	Text            string         `json:"text"`
	SourceURL       *string        `json:"source_url" binding:"omitempty,url"`
	SourceContentID *int64         `json:"source_content_id"`
	SourceEventID   *int64         `json:"source_event_id"`
	Meta            map[string]any `json:"meta"`
}

// BatchCreateRequest is the body of items:batchCreate
type BatchCreateRequest struct {
	Items []MaterialItemCreate `json:"items" binding:"dive"`
}

// CrawlRecordOut is a crawl record as listed, with its source name and a content preview
type CrawlRecordOut struct {
	ID             int64          `json:"id"`
	DataSourceID   int64          `json:"datasource_id"`
	DataSourceName *string        `json:"datasource_name"`
	SourceType     string         `json:"source_type"`
	Title          *string        `json:"title"`
	URL            *string        `json:"url"`
	ContentPreview string         `json:"content_preview"`
	Extra          map[string]any `json:"extra,omitempty"`
	FetchedAt      time.Time      `json:"fetched_at"`
}

// CrawlRecordDetailOut adds the full content
type CrawlRecordDetailOut struct {
	CrawlRecordOut
	Content string `json:"content"`
}

func menusFor(user *models.User) []string {
	menus := []string{
		"dashboard", "quickstart", "config-guide", "datasources", "crawl-records", "daily-hotspots",
		"materials", "generate", "articles", "prompt-templates", "api-keys", "publish",
	}
	if user.IsAdmin() {
		menus = append(menus, "users", "roles")
	}
	return menus
}

// bindError answers a request body that failed to bind the way FastAPI does: 422 with a detail list
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	details := make([]gin.H, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, gin.H{
			"loc":  []string{"body", fe.Namespace()},
			"msg":  fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			"type": fe.Tag(),
		})
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": details})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def, min, max int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": fmt.Sprintf("%s must be between %d and %d", key, min, max)})
		return 0, false
	}
	return n, true
}

func (s *Server) currentUser(c *gin.Context) (*models.User, bool) {
	sessionData, ok := GetSessionData(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return nil, false
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "User does not exist or is disabled"})
		return nil, false
	}
	return &user, true
}

func (s *Server) internalError(c *gin.Context, err error, msg string) {
	s.logger.Error().Err(err).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var user models.User
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Incorrect username or password"})
			return
		}
		s.internalError(c, err, "Failed to find user")
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Incorrect username or password"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Account is disabled"})
		return
	}

	token, err := s.issuer.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		s.internalError(c, err, "Failed to generate token")
		return
	}

	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User logged in")

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        &user,
		Menus:       menusFor(&user),
	})
}

func (s *Server) profile(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{User: user, Menus: menusFor(user)})
}

func (s *Server) listDataSources(c *gin.Context) {
	query := s.db.Order("id ASC")
	if owner := ownerFilter(c); owner != 0 {
		query = query.Where("user_id = ?", owner)
	}

	sources := []models.DataSource{}
	if err := query.Find(&sources).Error; err != nil {
		s.internalError(c, err, "Failed to list data sources")
		return
	}
	c.JSON(http.StatusOK, sources)
}

func (s *Server) triggerDataSource(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))

	var source models.DataSource
	if err := models.FindOwned(s.db, id, ownerFilter(c), &source); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Data source not found"})
			return
		}
		s.internalError(c, err, "Failed to load data source")
		return
	}

	if !supportedSourceTypes[source.SourceType] {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Unsupported data source type"})
		return
	}

	now := s.now()
	source.LastRunAt = &now
	source.NextRunAt = s.nextRun(source, now)

	if err := s.db.Save(&source).Error; err != nil {
		s.internalError(c, err, "Failed to update data source")
		return
	}

	s.logger.Info().Int64("datasource_id", source.ID).Bool("force", force).Msg("Data source triggered")
	c.JSON(http.StatusOK, source)
}

// nextRun computes the next scheduled run, or nil when the source is not scheduled
// or its cron expression does not parse
func (s *Server) nextRun(source models.DataSource, from time.Time) *time.Time {
	if !source.EnableSchedule || source.ScheduleCron == nil || *source.ScheduleCron == "" {
		return nil
	}
	schedule, err := s.schedule.Parse(*source.ScheduleCron)
	if err != nil {
		s.logger.Warn().Err(err).Int64("datasource_id", source.ID).Msg("Invalid schedule")
		return nil
	}
	next := schedule.Next(from)
	return &next
}

func (s *Server) listArticles(c *gin.Context) {
	query := s.db.Order("created_at DESC, id DESC")
	if owner := ownerFilter(c); owner != 0 {
		query = query.Where("user_id = ?", owner)
	}

	articles := []models.Article{}
	if err := query.Find(&articles).Error; err != nil {
		s.internalError(c, err, "Failed to list articles")
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (s *Server) getArticle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var article models.Article
	if err := models.FindOwned(s.db, id, ownerFilter(c), &article); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Article not found"})
			return
		}
		s.internalError(c, err, "Failed to load article")
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) listDailyHotspots(c *gin.Context) {
	day := c.Query("day")
	if day == "" {
		day = s.now().Format(time.DateOnly)
	} else if _, err := time.Parse(time.DateOnly, day); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "day must be YYYY-MM-DD"})
		return
	}

	limit, ok := queryInt(c, "limit", defaultHotspotLimit, 1, maxHotspotLimit)
	if !ok {
		return
	}

	events := []models.HotspotEvent{}
	err := s.db.Where("day = ?", day).
		Order("hot_score DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		s.internalError(c, err, "Failed to list hotspots")
		return
	}

	c.JSON(http.StatusOK, gin.H{"day": day, "items": events})
}

func (s *Server) listMaterialPacks(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultPackLimit, 1, maxPackLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0, 0, 1<<30)
	if !ok {
		return
	}

	query := s.db.Model(&models.MaterialPack{})
	if owner := ownerFilter(c); owner != 0 {
		query = query.Where("user_id = ?", owner)
	}
	if keyword := strings.TrimSpace(c.Query("keyword")); keyword != "" {
		query = query.Where("name LIKE ?", "%"+keyword+"%")
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.internalError(c, err, "Failed to count material packs")
		return
	}

	packs := []models.MaterialPack{}
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&packs).Error; err != nil {
		s.internalError(c, err, "Failed to list material packs")
		return
	}

	c.JSON(http.StatusOK, gin.H{"total": total, "limit": limit, "offset": offset, "items": packs})
}

func (s *Server) findPack(c *gin.Context) (*models.MaterialPack, bool) {
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}

	var pack models.MaterialPack
	if err := models.FindOwned(s.db, id, ownerFilter(c), &pack); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Material pack not found"})
			return nil, false
		}
		s.internalError(c, err, "Failed to load material pack")
		return nil, false
	}
	return &pack, true
}

func (s *Server) getMaterialPack(c *gin.Context) {
	pack, ok := s.findPack(c)
	if !ok {
		return
	}

	items := []models.MaterialItem{}
	if err := s.db.Where("pack_id = ?", pack.ID).Order("id ASC").Find(&items).Error; err != nil {
		s.internalError(c, err, "Failed to list material items")
		return
	}

	c.JSON(http.StatusOK, gin.H{"pack": pack, "items": items})
}

func (s *Server) materialPackAction(c *gin.Context) {
	switch c.Param("action") {
	case "/items:batchCreate":
		s.batchCreateItems(c)
	default:
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	}
}

func (s *Server) batchCreateItems(c *gin.Context) {
	pack, ok := s.findPack(c)
	if !ok {
		return
	}

	var req BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	created := []models.MaterialItem{}
	for _, it := range req.Items {
		text := models.NormalizeText(it.Text)
		if text == "" {
			continue
		}
		created = append(created, models.MaterialItem{
			UserID:          pack.UserID,
			PackID:          pack.ID,
			ItemType:        strings.ToLower(strings.TrimSpace(it.ItemType)),
			Text:            text,
			TextHash:        models.ItemHash(it.ItemType, it.Text),
			SourceURL:       it.SourceURL,
			SourceContentID: it.SourceContentID,
			SourceEventID:   it.SourceEventID,
			Meta:            it.Meta,
		})
	}

	if len(created) > 0 {
		if err := s.db.Create(&created).Error; err != nil {
			s.internalError(c, err, "Failed to create material items")
			return
		}
	}

	c.JSON(http.StatusOK, created)
}

func (s *Server) listUsers(c *gin.Context) {
	users := []models.User{}
	if err := s.db.Order("id ASC").Find(&users).Error; err != nil {
		s.internalError(c, err, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, gin.H{"total": len(users), "items": users})
}

func (s *Server) listCrawlRecords(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultRecordLimit, 1, maxRecordLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0, 0, 1<<30)
	if !ok {
		return
	}

	query := s.db.Model(&models.CrawlRecord{})
	if owner := ownerFilter(c); owner != 0 {
		query = query.Where("user_id = ?", owner)
	}
	if raw := c.Query("datasource_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "datasource_id must be an integer"})
			return
		}
		query = query.Where("data_source_id = ?", id)
	}

	// Closed day range [start_date, end_date]
	if raw := c.Query("start_date"); raw != "" {
		start, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "start_date must be YYYY-MM-DD"})
			return
		}
		query = query.Where("fetched_at >= ?", start)
	}
	if raw := c.Query("end_date"); raw != "" {
		end, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "end_date must be YYYY-MM-DD"})
			return
		}
		query = query.Where("fetched_at < ?", end.AddDate(0, 0, 1))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.internalError(c, err, "Failed to count crawl records")
		return
	}

	records := []models.CrawlRecord{}
	if err := query.Order("fetched_at DESC, id DESC").Limit(limit).Offset(offset).Find(&records).Error; err != nil {
		s.internalError(c, err, "Failed to list crawl records")
		return
	}

	names, err := s.dataSourceNames(records)
	if err != nil {
		s.internalError(c, err, "Failed to load data source names")
		return
	}

	items := make([]CrawlRecordOut, 0, len(records))
	for i := range records {
		items = append(items, crawlRecordOut(&records[i], names))
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "limit": limit, "offset": offset, "items": items})
}

func (s *Server) getCrawlRecord(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var record models.CrawlRecord
	if err := models.FindOwned(s.db, id, ownerFilter(c), &record); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Crawl record not found"})
			return
		}
		s.internalError(c, err, "Failed to load crawl record")
		return
	}

	names, err := s.dataSourceNames([]models.CrawlRecord{record})
	if err != nil {
		s.internalError(c, err, "Failed to load data source names")
		return
	}
	c.JSON(http.StatusOK, CrawlRecordDetailOut{CrawlRecordOut: crawlRecordOut(&record, names), Content: record.Content})
}

// dataSourceNames loads the names of the sources the records came from in one query
func (s *Server) dataSourceNames(records []models.CrawlRecord) (map[int64]string, error) {
	names := map[int64]string{}
	if len(records) == 0 {
		return names, nil
	}

	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.DataSourceID)
	}

	var sources []models.DataSource
	if err := s.db.Where("id IN ?", ids).Find(&sources).Error; err != nil {
		return nil, err
	}
	for _, ds := range sources {
		names[ds.ID] = ds.Name
	}
	return names, nil
}

func crawlRecordOut(r *models.CrawlRecord, names map[int64]string) CrawlRecordOut {
	out := CrawlRecordOut{
		ID:             r.ID,
		DataSourceID:   r.DataSourceID,
		SourceType:     r.SourceType,
		Title:          r.DisplayTitle(),
		URL:            r.URL,
		ContentPreview: preview(r.Content, previewLength),
		Extra:          r.Extra,
		FetchedAt:      r.FetchedAt,
	}
	if name, ok := names[r.DataSourceID]; ok {
		out.DataSourceName = &name
	}
	return out
}

func preview(content string, max int) string {
	text := models.NormalizeText(content)
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max]) + "…"
}

func (s *Server) listPublishAccounts(c *gin.Context) {
	query := s.db.Order("id DESC")
	if owner := ownerFilter(c); owner != 0 {
		query = query.Where("user_id = ?", owner)
	}

	accounts := []models.PublishAccount{}
	if err := query.Find(&accounts).Error; err != nil {
		s.internalError(c, err, "Failed to list publish accounts")
		return
	}
	c.JSON(http.StatusOK, accounts)
}
