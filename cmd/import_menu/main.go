package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"coffeeshop/internal/config"
	"coffeeshop/internal/db"
	"coffeeshop/internal/recipe"
	"coffeeshop/models"
)

var cleanWhitespace = regexp.MustCompile(`\s+`)

// menuDrink is one drink assembled from consecutive or scattered CSV rows
// sharing a title.
type menuDrink struct {
	Title   string
	Entries []recipe.Ingredient
}

type importSummary struct {
	Created int
	Updated int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:          "import_menu [csv]",
		Short:        "Create or update drinks from a CSV menu",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath := "menu.csv"
			if len(args) > 0 {
				csvPath = args[0]
			}
			return run(cmd.Context(), cmd.OutOrStdout(), csvPath, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the menu and report it without touching the database")
	return cmd
}

func run(ctx context.Context, out io.Writer, csvPath string, dryRun bool) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	drinks, err := readMenu(csvPath)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	if dryRun {
		for _, drink := range drinks {
			fmt.Fprintf(out, "%s: %d ingredients\n", drink.Title, len(drink.Entries))
		}
		fmt.Fprintf(out, "Parsed %d drinks from %s\n", len(drinks), filepath.Base(csvPath))
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	summary, err := importMenu(ctx, database, drinks)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Imported %d drinks (%d created, %d updated) from %s\n",
		summary.Created+summary.Updated, summary.Created, summary.Updated, filepath.Base(csvPath))
	return nil
}

// importMenu creates drinks with new titles and replaces the recipe of drinks
// that already exist. Each drink is written in its own transaction.
func importMenu(ctx context.Context, database *gorm.DB, drinks []menuDrink) (importSummary, error) {
	var summary importSummary
	if database == nil {
		return summary, fmt.Errorf("database handle is nil")
	}

	for _, entry := range drinks {
		created := false
		err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			drink := models.Drink{Title: entry.Title}
			if err := drink.SetRecipe(entry.Entries); err != nil {
				return err
			}

			var existing models.Drink
			err := tx.Where("title = ?", entry.Title).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&drink).Error; err != nil {
					return fmt.Errorf("create drink: %w", err)
				}
				created = true
				return nil
			case err != nil:
				return fmt.Errorf("find drink: %w", err)
			}

			if err := tx.Model(&existing).Update("recipe", drink.Recipe).Error; err != nil {
				return fmt.Errorf("update drink: %w", err)
			}
			return nil
		})
		if err != nil {
			return summary, fmt.Errorf("drink %q: %w", entry.Title, err)
		}
		if created {
			summary.Created++
		} else {
			summary.Updated++
		}
	}

	return summary, nil
}

// readMenu parses a CSV with the columns Title, Ingredient, Color and Parts.
// Each row contributes one ingredient; drinks keep the order in which their
// title first appears.
func readMenu(path string) ([]menuDrink, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	columns := make(map[string]int, len(rows[0]))
	for idx, key := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(key))] = idx
	}
	for _, required := range []string{"title", "ingredient", "color", "parts"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(row []string, key string) string {
		idx := columns[key]
		if idx >= len(row) {
			return ""
		}
		return normalizeText(row[idx])
	}

	var drinks []menuDrink
	index := map[string]int{}
	for line, row := range rows[1:] {
		title := field(row, "title")
		if title == "" {
			continue
		}

		parts, err := strconv.Atoi(field(row, "parts"))
		if err != nil || parts <= 0 {
			return nil, fmt.Errorf("row %d (%s): parts must be a positive integer", line+2, title)
		}
		ingredient := recipe.Ingredient{
			Name:  field(row, "ingredient"),
			Color: field(row, "color"),
			Parts: parts,
		}

		pos, ok := index[title]
		if !ok {
			pos = len(drinks)
			index[title] = pos
			drinks = append(drinks, menuDrink{Title: title})
		}
		drinks[pos].Entries = append(drinks[pos].Entries, ingredient)
	}

	if len(drinks) == 0 {
		return nil, errors.New("csv has no drinks")
	}
	return drinks, nil
}

func normalizeText(value string) string {
	value = cleanWhitespace.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}
