package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blogforge/toppost/internal/aggregate"
	"github.com/blogforge/toppost/internal/analyzer"
	"github.com/blogforge/toppost/internal/category"
	"github.com/blogforge/toppost/internal/config"
	"github.com/blogforge/toppost/internal/database"
	"github.com/blogforge/toppost/internal/fetch"
	"github.com/blogforge/toppost/internal/guide"
	"github.com/blogforge/toppost/internal/search"
	"github.com/blogforge/toppost/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "toppost",
	Short:   "Top blog post analysis and writing guides",
	Long:    "toppost analyzes top-ranked blog posts for a keyword, aggregates their structural patterns per category, and generates data-driven writing guides.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(guideCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("toppost", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/toppost/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the search feed and fetch behavior.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Analysis records:")
		fmt.Printf("  Total: %d\n", stats.TotalRecords)
		fmt.Printf("  Keywords: %d\n", stats.Keywords)
		fmt.Printf("  High quality: %d\n", stats.HighQuality)
		fmt.Printf("  Low quality: %d\n", stats.LowQuality)
		fmt.Println("\nAggregation:")
		fmt.Printf("  Categories with records: %d\n", stats.Categories)
		fmt.Printf("  Patterns computed: %d\n", stats.Patterns)

		counts, err := db.RecordCountsByCategory()
		if err != nil {
			return err
		}
		if len(counts) > 0 {
			fmt.Println("\nRecords by category:")
			keys := make([]string, 0, len(counts))
			for k := range counts {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %s: %d\n", k, counts[k])
			}
		}
		return nil
	},
}

// --- analyze command ---

var analyzeTopN int

var analyzeCmd = &cobra.Command{
	Use:   "analyze [keyword]",
	Short: "Analyze the top-ranked posts for a keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		keyword := args[0]
		topN := analyzeTopN
		if topN <= 0 {
			topN = cfg.Analyze.TopN
		}

		source := search.NewFeedSource(cfg.Search.FeedTemplate)
		ctx := context.Background()

		fmt.Printf("Searching top %d posts for %q...\n", topN, keyword)
		results, err := source.TopResults(ctx, keyword, topN)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}
		if len(results) == 0 {
			fmt.Println("No results found.")
			return nil
		}

		an := newAnalyzer(db)
		res := an.Analyze(ctx, keyword, results)

		fmt.Printf("\nAnalysis complete for %q (category: %s):\n", res.Keyword, res.Category)
		for _, s := range res.Summaries {
			if s.Error != "" {
				fmt.Printf("  #%d %s\n      failed: %s\n", s.Rank, s.URL, s.Error)
				continue
			}
			fmt.Printf("  #%d %s\n      quality=%s content=%d chars images=%d density=%.2f\n",
				s.Rank, s.URL, s.DataQuality, s.ContentLength, s.ImageCount, s.KeywordDensity)
		}
		fmt.Printf("\n%d analyzed, %d failed\n", res.Analyzed, res.Failed)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top", 0, "Override number of results to analyze")
}

// --- guide command ---

var guideJSON bool

var guideCmd = &cobra.Command{
	Use:   "guide [category]",
	Short: "Print the writing guide for a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !category.IsValid(args[0]) {
			return fmt.Errorf("unknown category %q (known: %s)", args[0], strings.Join(category.IDs(), ", "))
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		g := guide.NewGenerator(db).Generate(args[0])
		if guideJSON {
			return printJSON(g)
		}
		fmt.Print(guide.RenderMarkdown(g))
		return nil
	},
}

func init() {
	guideCmd.Flags().BoolVar(&guideJSON, "json", false, "Print the guide as JSON")
}

// --- patterns command ---

var patternsCmd = &cobra.Command{
	Use:   "patterns [category]",
	Short: "Show aggregated patterns",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if len(args) == 1 {
			p, err := db.GetPattern(args[0])
			if err != nil {
				return err
			}
			if p == nil {
				fmt.Printf("No pattern for category %s yet. Run 'toppost analyze' first.\n", args[0])
				return nil
			}
			printPattern(p)
			return nil
		}

		patterns, err := db.GetAllPatterns()
		if err != nil {
			return err
		}
		if len(patterns) == 0 {
			fmt.Println("No patterns yet. Run 'toppost analyze' first.")
			return nil
		}
		for i := range patterns {
			printPattern(&patterns[i])
			fmt.Println()
		}
		return nil
	},
}

func printPattern(p *database.AggregatedPattern) {
	fmt.Printf("%s (%d samples)\n", p.Category, p.SampleCount)
	fmt.Printf("  title: avg %.1f chars, keyword rate %.0f%%\n", p.AvgTitleLength, p.TitleKeywordRate*100)
	fmt.Printf("  content: avg %.0f chars, optimal %d-%d\n", p.AvgContentLength, p.OptimalContentMin, p.OptimalContentMax)
	fmt.Printf("  images: avg %.1f, optimal %d-%d\n", p.AvgImageCount, p.OptimalImageMin, p.OptimalImageMax)
	fmt.Printf("  keyword: avg %.1f uses, density %.2f\n", p.AvgKeywordCount, p.AvgKeywordDensity)
	fmt.Printf("  position: front %.0f%% / middle %.0f%% / end %.0f%%\n",
		p.FrontRate*100, p.MiddleRate*100, p.EndRate*100)
	fmt.Printf("  rates: map %.0f%%, external link %.0f%%, video %.0f%%\n",
		p.MapRate*100, p.ExternalLinkRate*100, p.VideoRate*100)
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		source := search.NewFeedSource(cfg.Search.FeedTemplate)
		srv, err := server.New(db, newAnalyzer(db), source)
		if err != nil {
			return err
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return srv.Run(port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on")
}

func newAnalyzer(db *database.DB) *analyzer.Analyzer {
	fetcher := fetch.NewHTTPFetcher(cfg.FetchTimeout(), cfg.FetchDelay(), cfg.Fetch.UserAgent)
	return analyzer.New(db, fetcher, aggregate.New(db), cfg.Fetch.Concurrency)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "toppost.db")
	return database.Open(dbPath)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
