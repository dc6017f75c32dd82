// Package views renders allowed routes to the terminal.
package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/inkdesk-dev/inkdesk/internal/cli/client"
	"github.com/inkdesk-dev/inkdesk/internal/cli/router"
	"github.com/inkdesk-dev/inkdesk/internal/format"
	"github.com/inkdesk-dev/inkdesk/internal/session"
)

const defaultHotspotLimit = 50

// API is the part of the backend client the views read from
type API interface {
	ListDataSources(ctx context.Context) ([]client.DataSource, error)
	ListArticles(ctx context.Context) ([]client.Article, error)
	GetArticle(ctx context.Context, id int64) (*client.Article, error)
	ListDailyHotspots(ctx context.Context, day string, limit int) (*client.DailyHotspotList, error)
	ListMaterialPacks(ctx context.Context, keyword string, limit, offset int) (*client.MaterialPackList, error)
	GetMaterialPack(ctx context.Context, id int64) (*client.MaterialPackDetail, error)
	ListUsers(ctx context.Context) (*client.UserList, error)
	ListCrawlRecords(ctx context.Context, filter client.CrawlRecordFilter) (*client.CrawlRecordList, error)
	GetCrawlRecord(ctx context.Context, id int64) (*client.CrawlRecordDetail, error)
	ListPublishAccounts(ctx context.Context) ([]client.PublishAccount, error)
}

// Views holds what every view needs
type Views struct {
	api API
	out io.Writer
	log zerolog.Logger
}

// New creates the views writing to out
func New(api API, out io.Writer, log zerolog.Logger) *Views {
	return &Views{api: api, out: out, log: log}
}

// Register binds a view to every route of the table
func (v *Views) Register(r *router.Router) {
	r.Handle("Login", v.Login)
	r.Handle("Dashboard", v.Dashboard)
	r.Handle("DataSources", v.DataSources)
	r.Handle("Articles", v.Articles)
	r.Handle("ArticleDetail", v.ArticleDetail)
	r.Handle("DailyHotspots", v.DailyHotspots)
	r.Handle("MaterialPacks", v.MaterialPacks)
	r.Handle("MaterialPackDetail", v.MaterialPackDetail)
	r.Handle("Users", v.Users)
	r.Handle("CrawlRecords", v.CrawlRecords)
	r.Handle("CrawlRecordDetail", v.CrawlRecordDetail)
	r.Handle("Publish", v.Publish)

	for _, name := range []string{
		"QuickStart", "ConfigGuide", "Generate", "DailyHotspotDetail",
		"PromptTemplates", "ApiKeys", "ArticleEdit", "Roles",
	} {
		r.Handle(name, v.webOnly)
	}
}

// Login tells the user how to sign in and where they will land afterwards
func (v *Views) Login(ctx context.Context, req *router.Request) error {
	redirect := req.Location.Query().Get("redirect")
	if redirect == "" {
		fmt.Fprintln(v.out, "Not logged in. Run 'inkdesk login' to authenticate.")
	} else {
		fmt.Fprintf(v.out, "Not logged in. Run 'inkdesk login --redirect %s' to authenticate and continue.\n", redirect)
	}
	return router.ErrLoginRequired
}

// Dashboard prints a summary of every resource, fetched concurrently
func (v *Views) Dashboard(ctx context.Context, req *router.Request) error {
	var (
		sources  []client.DataSource
		articles []client.Article
		hotspots *client.DailyHotspotList
		packs    *client.MaterialPackList
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sources, err = v.api.ListDataSources(gctx)
		return err
	})
	g.Go(func() (err error) {
		articles, err = v.api.ListArticles(gctx)
		return err
	})
	g.Go(func() (err error) {
		hotspots, err = v.api.ListDailyHotspots(gctx, "", defaultHotspotLimit)
		return err
	})
	g.Go(func() (err error) {
		packs, err = v.api.ListMaterialPacks(gctx, "", 1, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	v.log.Debug().
		Int("datasources", len(sources)).
		Int("articles", len(articles)).
		Msg("Dashboard loaded")

	scheduled := 0
	for _, s := range sources {
		if s.EnableSchedule {
			scheduled++
		}
	}

	fmt.Fprintf(v.out, "Welcome, %s\n\n", session.DisplayName(req.User))

	w := tabwriter.NewWriter(v.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Data sources\t%d (%d scheduled)\n", len(sources), scheduled)
	fmt.Fprintf(w, "Articles\t%d\n", len(articles))
	fmt.Fprintf(w, "Hotspots (%s)\t%d\n", hotspots.Day, len(hotspots.Items))
	fmt.Fprintf(w, "Material packs\t%d\n", packs.Total)
	if len(articles) > 0 {
		latest := articles[0]
		fmt.Fprintf(w, "Latest article\t%s (%s)\n", latest.Title, format.Date(latest.CreatedAt, ""))
	}
	return w.Flush()
}

// DataSources lists configured crawl sources
func (v *Views) DataSources(ctx context.Context, req *router.Request) error {
	sources, err := v.api.ListDataSources(ctx)
	if err != nil {
		return err
	}

	if len(sources) == 0 {
		fmt.Fprintln(v.out, "No data sources found.")
		return nil
	}

	w := tabwriter.NewWriter(v.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSCHEDULE\tLAST RUN\tNEXT RUN")
	fmt.Fprintln(w, "──\t────\t────\t────────\t────────\t────────")
	for _, s := range sources {
		schedule := "off"
		if s.EnableSchedule && s.ScheduleCron != nil {
			schedule = *s.ScheduleCron
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.ID,
			s.Name,
			format.Provider(&s.SourceType),
			schedule,
			format.DatePtr(s.LastRunAt, ""),
			format.DatePtr(s.NextRunAt, ""),
		)
	}
	return w.Flush()
}

// Articles lists generated articles
func (v *Views) Articles(ctx context.Context, req *router.Request) error {
	articles, err := v.api.ListArticles(ctx)
	if err != nil {
		return err
	}

	if len(articles) == 0 {
		fmt.Fprintln(v.out, "No articles found.")
		return nil
	}

	w := tabwriter.NewWriter(v.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPROVIDER\tMODEL\tCREATED AT")
	fmt.Fprintln(w, "──\t─────\t────────\t─────\t──────────")
	for _, a := range articles {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			a.ID,
			a.Title,
			format.Provider(a.LLMProvider),
			orDash(a.LLMModel),
			format.Date(a.CreatedAt, ""),
		)
	}
	return w.Flush()
}

// ArticleDetail prints one article with its markdown body
func (v *Views) ArticleDetail(ctx context.Context, req *router.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}

	article, err := v.api.GetArticle(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(v.out, "# %s\n\n", article.Title)
	w := tabwriter.NewWriter(v.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Provider\t%s\n", format.Provider(article.LLMProvider))
	fmt.Fprintf(w, "Model\t%s\n", orDash(article.LLMModel))
	if article.ElapsedMS != nil {
		fmt.Fprintf(w, "Generated in\t%s\n", (time.Duration(*article.ElapsedMS) * time.Millisecond).String())
	}
	fmt.Fprintf(w, "Created at\t%s\n", format.Date(article.CreatedAt, ""))
	if err := w.Flush(); err != nil {
		return err
	}

	if article.Summary != nil && *article.Summary != "" {
		fmt.Fprintf(v.out, "\n%s\n", *article.Summary)
	}
	fmt.Fprintf(v.out, "\n%s\n", article.ContentMD)
	return nil
}

// DailyHotspots lists the clustered events of a day (?day=YYYY-MM-DD&limit=N)
func (v *Views) DailyHotspots(ctx context.Context, req *router.Request) error {
	query := req.Location.Query()
	limit, err := intQuery(query.Get("limit"), defaultHotspotLimit)
	if err != nil {
		return err
	}

	list, err := v.api.ListDailyHotspots(ctx, query.Get("day"), limit)
	if err != nil {
		return err
	}

	if len(list.Items) == 0 {
		fmt.Fprintf(v.out, "No hotspots for %s.\n", list.Day)
		return nil
	}

	fmt.Fprintf(v.out, "Hotspots for %s:\n\n", list.Day)
	w := tabwriter.NewWriter(v.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCORE\tSOURCES\tTITLE\tKEYWORDS")
	fmt.Fprintln(w, "──\t─────\t───────\t─────\t────────")
	for _, e := range list.Items {
		fmt.Fprintf(w, "%d\t%.1f\t%d\t%s\t%s\n",
			e.ID,
			e.HotScore,
			e.SourceCount,
			e.Title,
			strings.Join(e.Keywords, ", "),
		)
	}
	return w.Flush()
}

// MaterialPacks lists material packs (?keyword=&limit=&offset=)
func (v *Views) MaterialPacks(ctx context.Context, req *router.Request) error {
	query := req.Location.Query()
	limit, err := intQuery(query.Get("limit"), 0)
	if err != nil {
		return err
	}
	offset, err := intQuery(query.Get("offset"), 0)
	if err != nil {
		return err
	}

	list, err := v.api.ListMaterialPacks(ctx, query.Get("keyword"), limit, offset)
	if err != nil {
		return err
	}

	if len(list.Items) == 0 {
		fmt.Fprintln(v.out, "No material packs found.")
		return nil
	}

	w := tabwriter.NewWriter(v.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION\tCREATED AT")
	fmt.Fprintln(w, "──\t────\t───────────\t──────────")
	for _, p := range list.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, orDash(p.Description), format.Date(p.CreatedAt, ""))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(v.out, "\nShowing %d of %d\n", len(list.Items), list.Total)
	return nil
}

// MaterialPackDetail prints a pack and its items
func (v *Views) MaterialPackDetail(ctx context.Context, req *router.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}

	detail, err := v.api.GetMaterialPack(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(v.out, "%s (%d items)\n", detail.Pack.Name, len(detail.Items))
	if detail.Pack.Description != nil && *detail.Pack.Description != "" {
		fmt.Fprintln(v.out, *detail.Pack.Description)
	}
	if len(detail.Items) == 0 {
		return nil
	}

	fmt.Fprintln(v.out)
	w := tabwriter.NewWriter(v.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tTEXT\tSOURCE")
	fmt.Fprintln(w, "──\t────\t────\t──────")
	for _, it := range detail.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", it.ID, it.ItemType, truncate(it.Text, 60), orDash(it.SourceURL))
	}
	return w.Flush()
}

// Users lists platform users
func (v *Views) Users(ctx context.Context, req *router.Request) error {
	list, err := v.api.ListUsers(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(v.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tEMAIL\tROLE\tACTIVE\tCREATED AT")
	fmt.Fprintln(w, "──\t────────\t────\t─────\t────\t──────\t──────────")
	for _, u := range list.Items {
		active := "no"
		if u.IsActive {
			active = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			u.ID,
			u.Username,
			orDash(u.FullName),
			orDash(u.Email),
			u.Role,
			active,
			format.Date(u.CreatedAt, ""),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(v.out, "\nTotal: %d\n", list.Total)
	return nil
}

// CrawlRecords lists fetched content (?datasource_id=&start_date=&end_date=&limit=&offset=)
func (v *Views) CrawlRecords(ctx context.Context, req *router.Request) error {
	query := req.Location.Query()

	var filter client.CrawlRecordFilter
	if raw := query.Get("datasource_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid datasource_id %q", raw)
		}
		filter.DataSourceID = id
	}
	for _, d := range []struct {
		key string
		dst *string
	}{{"start_date", &filter.StartDate}, {"end_date", &filter.EndDate}} {
		raw := query.Get(d.key)
		if raw == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, raw); err != nil {
			return fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", d.key, raw)
		}
		*d.dst = raw
	}

	var err error
	if filter.Limit, err = intQuery(query.Get("limit"), 0); err != nil {
		return err
	}
	if filter.Offset, err = intQuery(query.Get("offset"), 0); err != nil {
		return err
	}

	list, err := v.api.ListCrawlRecords(ctx, filter)
	if err != nil {
		return err
	}

	if len(list.Items) == 0 {
		fmt.Fprintln(v.out, "No crawl records found.")
		return nil
	}

	w := tabwriter.NewWriter(v.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTITLE\tFETCHED AT\tURL")
	fmt.Fprintln(w, "──\t──────\t─────\t──────────\t───")
	for _, r := range list.Items {
		source := orDash(r.DataSourceName)
		if source == "-" {
			source = fmt.Sprintf("#%d", r.DataSourceID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			r.ID,
			source,
			truncate(orDash(r.Title), 50),
			format.Date(r.FetchedAt, ""),
			orDash(r.URL),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(v.out, "\nShowing %d of %d\n", len(list.Items), list.Total)
	return nil
}

// CrawlRecordDetail prints one crawl record with its full content
func (v *Views) CrawlRecordDetail(ctx context.Context, req *router.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}

	record, err := v.api.GetCrawlRecord(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(v.out, "# %s\n\n", orDash(record.Title))
	w := tabwriter.NewWriter(v.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Source\t%s (%s)\n", orDash(record.DataSourceName), format.Provider(&record.SourceType))
	fmt.Fprintf(w, "URL\t%s\n", orDash(record.URL))
	fmt.Fprintf(w, "Fetched at\t%s\n", format.Date(record.FetchedAt, ""))
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(v.out, "\n%s\n", record.Content)
	return nil
}

// Publish lists the accounts articles can be published to
func (v *Views) Publish(ctx context.Context, req *router.Request) error {
	accounts, err := v.api.ListPublishAccounts(ctx)
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		fmt.Fprintln(v.out, "No publish accounts found.")
		return nil
	}

	w := tabwriter.NewWriter(v.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPROVIDER\tACTIVE\tCREATED AT")
	fmt.Fprintln(w, "──\t────\t────────\t──────\t──────────")
	for _, a := range accounts {
		active := "no"
		if a.IsActive {
			active = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.Name, format.Provider(&a.Provider), active, format.Date(a.CreatedAt, ""))
	}
	return w.Flush()
}

func (v *Views) webOnly(ctx context.Context, req *router.Request) error {
	fmt.Fprintf(v.out, "%s has no terminal view yet. Open %s in the web console.\n", req.Route.Name, req.Location.String())
	return nil
}

func idParam(req *router.Request) (int64, error) {
	raw := req.Params["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func intQuery(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return n, nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
