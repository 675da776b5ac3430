package cli

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/internal/view"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage documents",
	Long:  `List, show, save, delete and search documents.`,
}

var (
	docsFilter string
	docsPage   int
	docsCards  bool
)

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocsList,
}

var docsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsShow,
}

var (
	saveTitle       string
	saveSummary     string
	saveTags        []string
	saveContentFile string
	saveBlocks      []string
)

var docsSaveCmd = &cobra.Command{
	Use:   "save [doc-id]",
	Short: "Create a document, or update one when an id is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDocsSave,
}

var docsDeleteYes bool

var docsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

var searchLimit int

var docsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search titles, summaries and tags",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsSearch,
}

func init() {
	docsListCmd.Flags().StringVarP(&docsFilter, "filter", "f", "", "case-insensitive title filter")
	docsListCmd.Flags().IntVarP(&docsPage, "page", "p", 1, "page number")
	docsListCmd.Flags().BoolVar(&docsCards, "cards", false, "show the card layout")

	docsSaveCmd.Flags().StringVarP(&saveTitle, "title", "t", "", "document title")
	docsSaveCmd.Flags().StringVarP(&saveSummary, "summary", "s", "", "document summary")
	docsSaveCmd.Flags().StringSliceVar(&saveTags, "tag", nil, "tag name or id (repeatable, replaces the selection)")
	docsSaveCmd.Flags().StringVarP(&saveContentFile, "content-file", "c", "", "file holding the serialized block array")
	docsSaveCmd.Flags().StringArrayVar(&saveBlocks, "block", nil, "serialized block appended to the content (repeatable)")

	docsDeleteCmd.Flags().BoolVarP(&docsDeleteYes, "yes", "y", false, "skip the confirmation prompt")
	docsSearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")

	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsShowCmd)
	docsCmd.AddCommand(docsSaveCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	docsCmd.AddCommand(docsSearchCmd)
	rootCmd.AddCommand(docsCmd)
}

func parseDocID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid document id %q", raw)
	}
	return uint(id), nil
}

func tagNames(tags []model.TagRef) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.TagName)
	}
	return strings.Join(names, ", ")
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	variant := view.TableVariant
	if docsCards {
		variant = view.CardVariant
	}
	list := view.NewDocumentList(api, variant)
	ctx := context.Background()

	if err := list.SetFilter(ctx, docsFilter); err != nil {
		return fmt.Errorf("failed to list documents: %w", notLoggedIn(err))
	}
	if docsPage > 1 {
		if err := list.GoTo(ctx, docsPage); err != nil {
			return fmt.Errorf("failed to list documents: %w", notLoggedIn(err))
		}
	}

	s := list.State()
	if len(s.Rows) == 0 {
		cmd.Println("No documents found.")
		return nil
	}
	for _, row := range s.VisibleRows() {
		d := row.Document
		if variant == view.CardVariant {
			cmd.Printf("┌ #%d %s\n", d.ID, d.Title)
			if d.Summary != nil && *d.Summary != "" {
				cmd.Printf("│ %s\n", *d.Summary)
			}
			cmd.Printf("└ %s\n\n", d.CreatedAt.Format("2006-01-02"))
			continue
		}
		cmd.Printf("  %-6d %-40s %-30s %s\n", d.ID, d.Title, tagNames(d.Tags), d.CreatedAt.Format("2006-01-02 15:04"))
	}
	cmd.Printf("\nPage %d/%d (%d documents)\n", s.Page, s.TotalPages, s.Total)
	return nil
}

func runDocsShow(cmd *cobra.Command, args []string) error {
	id, err := parseDocID(args[0])
	if err != nil {
		return err
	}
	editor := view.NewEditor(api, nil)
	if err := editor.Open(context.Background(), id); err != nil {
		if s := editor.State(); s.LoadError != "" {
			return errors.New(s.LoadError)
		}
		return fmt.Errorf("failed to get document: %w", notLoggedIn(err))
	}

	s := editor.State()
	content, err := editor.Content().Serialize()
	if err != nil {
		return err
	}
	cmd.Printf("Document: %d\n\n", id)
	cmd.Printf("  Title:    %s\n", s.Title)
	if s.Summary != "" {
		cmd.Printf("  Summary:  %s\n", s.Summary)
	}
	if len(s.Selected) > 0 {
		cmd.Printf("  Tags:     %s\n", tagNames(s.Selected))
	}
	cmd.Println()
	cmd.Println(content)
	return nil
}

// resolveTag 按 id 或名称（不区分大小写）在可选标签中查找。
func resolveTag(palette []model.Tag, ref string) (model.Tag, bool) {
	for _, t := range palette {
		if t.ID == ref {
			return t, true
		}
	}
	for _, t := range palette {
		if strings.EqualFold(t.TagName, ref) {
			return t, true
		}
	}
	return model.Tag{}, false
}

func runDocsSave(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	blocks := view.NewJSONBlocks()
	editor := view.NewEditor(api, blocks)

	if len(args) == 1 {
		id, err := parseDocID(args[0])
		if err != nil {
			return err
		}
		if err := editor.Open(ctx, id); err != nil {
			if s := editor.State(); s.LoadError != "" {
				return errors.New(s.LoadError)
			}
			return fmt.Errorf("failed to load document: %w", notLoggedIn(err))
		}
		editor.Toggle()
	}

	flags := cmd.Flags()
	if flags.Changed("title") {
		editor.SetTitle(saveTitle)
	}
	if flags.Changed("summary") {
		editor.SetSummary(saveSummary)
	}
	if flags.Changed("tag") {
		if err := editor.LoadPalette(ctx); err != nil {
			return fmt.Errorf("failed to load tags: %w", notLoggedIn(err))
		}
		for _, t := range editor.State().Selected {
			editor.RemoveTag(t.ID)
		}
		palette := editor.State().Available
		for _, ref := range saveTags {
			tag, ok := resolveTag(palette, ref)
			if !ok {
				return fmt.Errorf("unknown tag %q", ref)
			}
			editor.SelectTag(tag)
		}
	}
	if saveContentFile != "" {
		data, err := os.ReadFile(saveContentFile)
		if err != nil {
			return err
		}
		if err := blocks.Replace(string(data)); err != nil {
			return err
		}
	}
	for _, raw := range saveBlocks {
		if err := blocks.Append(json.RawMessage(raw)); err != nil {
			return fmt.Errorf("invalid --block %q: %w", raw, err)
		}
	}

	created := editor.State().IsNew()
	if err := editor.Save(ctx); err != nil {
		if errors.Is(err, model.ErrValidation) {
			return errors.New("a title is required: pass --title")
		}
		return fmt.Errorf("failed to save document: %w", notLoggedIn(err))
	}
	if created {
		s := editor.State()
		if s.SavedID != nil {
			cmd.Printf("Document created (id %d)\n", *s.SavedID)
		} else {
			cmd.Println("Document created")
		}
	} else {
		cmd.Println("Document updated")
	}
	return nil
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseDocID(args[0])
	if err != nil {
		return err
	}
	if !docsDeleteYes && !confirm(cmd, fmt.Sprintf("Delete document %d?", id)) {
		cmd.Println("Cancelled")
		return nil
	}

	list := view.NewDocumentList(api, view.TableVariant)
	list.RequestDelete(model.Document{ID: id})
	if err := list.ConfirmDelete(context.Background()); err != nil {
		return fmt.Errorf("failed to delete document: %w", notLoggedIn(err))
	}
	cmd.Printf("Document %d deleted\n", id)
	return nil
}

func runDocsSearch(cmd *cobra.Command, args []string) error {
	hits, err := api.SearchDocuments(context.Background(), args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", notLoggedIn(err))
	}
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	cmd.Println("Results:")
	cmd.Println()
	for i := range hits {
		cmd.Printf("  [%d] #%d %s (%.2f)\n", i+1, hits[i].ID, hits[i].Title, hits[i].Score)
		if hits[i].Summary != "" {
			cmd.Printf("      %s\n", hits[i].Summary)
		}
		if len(hits[i].Tags) > 0 {
			cmd.Printf("      Tags: %s\n", strings.Join(hits[i].Tags, ", "))
		}
	}
	return nil
}
