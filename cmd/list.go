package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dodoapps/dodopass/internal/item"
)

var (
	listFormat   string
	listCategory string
	listQuery    string
	listFavorite bool
	listTag      string
)

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "credentials",
	Short:   "List items in the vault",
	Long: `List displays all stored items with their metadata.

Output formats:
  table    Display as formatted table (default)
  json     Output as JSON array
  simple   Simple list of titles only

Use --category, --tag, --favorite, or --search to narrow the results.`,
	Example: `  dodopass list
  dodopass list --category login
  dodopass list --search github
  dodopass list --favorite --format json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format: table, json, simple")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "filter by category: login, secure_note, credit_card, identity")
	listCmd.Flags().StringVar(&listQuery, "search", "", "filter by a search query (title, username, urls, notes, tags)")
	listCmd.Flags().BoolVar(&listFavorite, "favorite", false, "show only favorites")
	listCmd.Flags().StringVar(&listTag, "tag", "", "filter by a single tag")
}

func runList(cmd *cobra.Command, args []string) error {
	vaultPath := GetVaultPath()
	if !pathExists(vaultPath) {
		return fmt.Errorf("vault not found at %s\nRun 'dodopass create' first", vaultPath)
	}

	cfg := LoadedConfig()
	engine, err := newEngine(vaultPath, cfg.BackupRetention, true)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := unlockEngine(ctx, engine, vaultPath); err != nil {
		return err
	}
	defer engine.Lock()

	var records []*item.Record
	if listQuery != "" {
		records = engine.Search(listQuery)
	} else {
		records, err = engine.ListItems()
		if err != nil {
			return fmt.Errorf("failed to list items: %w", err)
		}
	}

	records = filterRecords(records)

	sort.Slice(records, func(i, j int) bool {
		return strings.ToLower(records[i].Title) < strings.ToLower(records[j].Title)
	})

	switch strings.ToLower(listFormat) {
	case "json":
		return outputJSON(records)
	case "simple":
		return outputSimple(records)
	case "table":
		return outputTable(records)
	default:
		return fmt.Errorf("invalid format: %s (valid: table, json, simple)", listFormat)
	}
}

func filterRecords(records []*item.Record) []*item.Record {
	var category item.Category
	if listCategory != "" {
		if c, err := item.ParseCategory(listCategory); err == nil {
			category = c
		}
	}
	tag := strings.ToLower(strings.TrimSpace(listTag))

	filtered := make([]*item.Record, 0, len(records))
	for _, r := range records {
		if category != "" && r.Category != category {
			continue
		}
		if listFavorite && !r.Favorite {
			continue
		}
		if tag != "" && !hasTag(r.Tags, tag) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.ToLower(t) == tag {
			return true
		}
	}
	return false
}

func outputSimple(records []*item.Record) error {
	for _, r := range records {
		fmt.Println(r.Title)
	}
	return nil
}

func outputJSON(records []*item.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func outputTable(records []*item.Record) error {
	if len(records) == 0 {
		fmt.Println("No items found.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	header := []string{"Title", "Category", "Summary", "Tags", "Modified"}

	var data [][]string
	for _, r := range records {
		title := r.Title
		if r.Favorite {
			title = "* " + title
		}
		data = append(data, []string{
			title,
			string(r.Category),
			summaryFor(r),
			strings.Join(r.Tags, ", "),
			formatRelativeTime(r.ModifiedAt),
		})
	}

	table.Header(header)
	_ = table.Bulk(data)
	_ = table.Render()

	fmt.Printf("\nTotal: %d item(s)\n", len(records))
	return nil
}

func summaryFor(r *item.Record) string {
	switch r.Category {
	case item.CategoryLogin:
		if r.Login != nil {
			return r.Login.Username
		}
	case item.CategorySecureNote:
		if r.SecureNote != nil {
			body := r.SecureNote.Body
			if len(body) > 30 {
				body = body[:27] + "..."
			}
			return body
		}
	case item.CategoryCreditCard:
		if r.CreditCard != nil {
			return maskCardNumber(r.CreditCard.Number)
		}
	case item.CategoryIdentity:
		if r.Identity != nil {
			return r.Identity.FullName
		}
	}
	return ""
}

func maskCardNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
