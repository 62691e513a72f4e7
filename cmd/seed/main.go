// Command seed loads categories and posts from a folder of Markdown files, or removes them again.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cppla/board/config"
	"github.com/cppla/board/models"
	"github.com/cppla/board/seed"
	"github.com/cppla/board/utils"
)

var (
	seedDir    string
	dryRun     bool
	jsonOutput bool

	downAll       bool
	downPosts     bool
	downCategory  bool
	downAdmin     bool
	keepEssential bool
)

var rootCmd = &cobra.Command{
	Use:           "seed",
	Short:         "Seed the board from a folder of Markdown files",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Create the admin account, categories and posts",
	Long: `Walks the seed folder: directory names form the category path, each .md
file becomes a post. Front matter may set title, categoryPath, authorNick,
createdAt and updateMode (upsert).`,
	Args: cobra.NoArgs,
	RunE: runUp,
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Hard-delete seeded posts, categories and the seed admin",
	Args:  cobra.NoArgs,
	RunE:  runDown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&seedDir, "dir", "", "seed folder (default: SEED_DIR or seed/categories)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "report without writing to the database")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")

	downCmd.Flags().BoolVar(&downAll, "all", false, "remove posts, categories and the admin")
	downCmd.Flags().BoolVar(&downPosts, "posts", false, "remove posts listed in the folder")
	downCmd.Flags().BoolVar(&downCategory, "category", false, "remove categories found in the folder, deepest first")
	downCmd.Flags().BoolVar(&downAdmin, "admin", false, "remove the seed admin account")
	downCmd.Flags().BoolVar(&keepEssential, "keep-essential", false, "keep the essential root categories")

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
}

func setup() (*seed.Seeder, error) {
	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		return nil, err
	}
	if seedDir == "" {
		seedDir = cfg.SeedDir
	}
	db := config.InitDatabase(models.All()...)
	return seed.New(db, cfg), nil
}

type textReport interface {
	WriteText(w io.Writer)
}

func printReport(w io.Writer, r textReport) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	r.WriteText(w)
	return nil
}

func runUp(cmd *cobra.Command, _ []string) error {
	s, err := setup()
	if err != nil {
		return err
	}
	defer utils.CloseRedis()

	report, err := s.Up(seedDir, dryRun)
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), report)
}

func runDown(cmd *cobra.Command, _ []string) error {
	opts := seed.DownOptions{
		Posts:         downAll || downPosts,
		Categories:    downAll || downCategory,
		Admin:         downAll || downAdmin,
		KeepEssential: keepEssential,
		DryRun:        dryRun,
	}
	if !opts.Selected() {
		return cmd.Usage()
	}

	s, err := setup()
	if err != nil {
		return err
	}
	defer utils.CloseRedis()

	opts.Root = seedDir
	report, err := s.Down(opts)
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), report)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}
