package commands

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/inkdesk-dev/inkdesk/internal/basket"
)

// NewDataSourcesCmd creates the datasources command group
func NewDataSourcesCmd(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasources",
		Aliases: []string{"ds"},
		Short:   "Manage crawl data sources",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List data sources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return navigate(cmd, g, "/datasources")
		},
	})

	var force bool
	trigger := &cobra.Command{
		Use:   "trigger <id>",
		Short: "Start a crawl of a data source now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriggerDataSource(cmd, g, args[0], force)
		},
	}
	trigger.Flags().BoolVar(&force, "force", false, "Crawl even if the source ran recently")
	cmd.AddCommand(trigger)

	return cmd
}

func runTriggerDataSource(cmd *cobra.Command, g *Globals, rawID string, force bool) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	a, err := g.openApp(cmd)
	if err != nil {
		return err
	}

	if _, err := a.Guarded(cmd.Context(), "/datasources"); err != nil {
		return err
	}

	source, err := a.Client.TriggerDataSource(cmd.Context(), id, force)
	if err != nil {
		return a.Call(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Triggered data source %d (%s)\n", source.ID, source.Name)
	return nil
}

// NewArticlesCmd creates the articles command group
func NewArticlesCmd(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "Browse generated articles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List articles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return navigate(cmd, g, "/articles")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return navigate(cmd, g, fmt.Sprintf("/articles/%d", id))
		},
	})

	return cmd
}

// NewHotspotsCmd creates the hotspots command group
func NewHotspotsCmd(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hotspots",
		Short: "Browse daily hotspot digests",
	}

	var day string
	var limit int
	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the hotspots of a day",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if day != "" {
				query.Set("day", day)
			}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			return navigate(cmd, g, withQuery("/daily-hotspots", query))
		},
	}
	ls.Flags().StringVar(&day, "day", "", "Day as YYYY-MM-DD (defaults to today on the server)")
	ls.Flags().IntVar(&limit, "limit", 0, "Maximum number of events")
	cmd.AddCommand(ls)

	return cmd
}

// NewCrawlRecordsCmd creates the crawls command group
func NewCrawlRecordsCmd(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "crawls",
		Aliases: []string{"crawl-records"},
		Short:   "Browse content fetched by data sources",
	}

	var (
		source        int64
		from, to      string
		limit, offset int
	)
	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List crawl records, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if source > 0 {
				query.Set("datasource_id", strconv.FormatInt(source, 10))
			}
			if from != "" {
				query.Set("start_date", from)
			}
			if to != "" {
				query.Set("end_date", to)
			}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				query.Set("offset", strconv.Itoa(offset))
			}
			return navigate(cmd, g, withQuery("/crawl-records", query))
		},
	}
	ls.Flags().Int64Var(&source, "source", 0, "Only records of this data source ID")
	ls.Flags().StringVar(&from, "from", "", "First day as YYYY-MM-DD")
	ls.Flags().StringVar(&to, "to", "", "Last day as YYYY-MM-DD (inclusive)")
	ls.Flags().IntVar(&limit, "limit", 0, "Page size")
	ls.Flags().IntVar(&offset, "offset", 0, "Number of records to skip")
	cmd.AddCommand(ls)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one crawl record with its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return navigate(cmd, g, fmt.Sprintf("/crawl-records/%d", id))
		},
	})

	return cmd
}

// NewPublishCmd creates the publish command group
func NewPublishCmd(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Inspect publishing channels",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "accounts",
		Aliases: []string{"ls"},
		Short:   "List publish accounts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return navigate(cmd, g, "/publish")
		},
	})

	return cmd
}

// NewMaterialsCmd creates the materials command group
func NewMaterialsCmd(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "materials",
		Short: "Manage material packs",
	}

	var keyword string
	var limit, offset int
	packs := &cobra.Command{
		Use:   "packs",
		Short: "List material packs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			return navigate(cmd, g, withQuery("/materials/packs", query))
		},
	}
	packs.Flags().StringVar(&keyword, "keyword", "", "Filter packs by name")
	packs.Flags().IntVar(&limit, "limit", 0, "Page size")
	packs.Flags().IntVar(&offset, "offset", 0, "Page offset")
	cmd.AddCommand(packs)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <pack-id>",
		Short: "Show a material pack and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return navigate(cmd, g, fmt.Sprintf("/materials/packs/%d", id))
		},
	})

	var packID int64
	var dryRun bool
	collect := &cobra.Command{
		Use:   "collect <file>...",
		Short: "Add the items of YAML or JSON files to a pack, skipping duplicates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, g, args, packID, dryRun)
		},
	}
	collect.Flags().Int64Var(&packID, "pack", 0, "Target pack ID")
	collect.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be submitted")
	_ = collect.MarkFlagRequired("pack")
	cmd.AddCommand(collect)

	return cmd
}

func runCollect(cmd *cobra.Command, g *Globals, files []string, packID int64, dryRun bool) error {
	out := cmd.OutOrStdout()

	if packID <= 0 {
		return fmt.Errorf("invalid pack id %d", packID)
	}

	b := basket.New()
	for _, file := range files {
		added, err := b.LoadFile(file)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Collected %d new items from %s\n", added, file)
	}

	if b.Count() == 0 {
		fmt.Fprintln(out, "Nothing to submit.")
		return nil
	}

	if dryRun {
		for _, it := range b.Items() {
			fmt.Fprintf(out, "  [%s] %s\n", it.ItemType, it.Text)
		}
		fmt.Fprintf(out, "%d items would be added to pack %d\n", b.Count(), packID)
		return nil
	}

	a, err := g.openApp(cmd)
	if err != nil {
		return err
	}

	if _, err := a.Guarded(cmd.Context(), fmt.Sprintf("/materials/packs/%d", packID)); err != nil {
		return err
	}

	created, err := a.Client.BatchCreateMaterialItems(cmd.Context(), packID, b.Payload())
	if err != nil {
		return a.Call(err)
	}
	b.Clear()

	fmt.Fprintf(out, "✓ Added %d items to pack %d\n", len(created), packID)
	return nil
}

// NewUsersCmd creates the users command group
func NewUsersCmd(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage platform users (admin only)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return navigate(cmd, g, "/users")
		},
	})

	return cmd
}

func navigate(cmd *cobra.Command, g *Globals, location string) error {
	a, err := g.openApp(cmd)
	if err != nil {
		return err
	}
	return a.Navigate(cmd.Context(), location)
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
