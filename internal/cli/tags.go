package cli

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/internal/view"
	"fmt"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage tags",
}

var (
	tagsFilter    string
	tagsPage      int
	tagsDeleteYes bool
)

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags, newest first",
	Args:  cobra.NoArgs,
	RunE:  runTagsList,
}

var tagsCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagsCreate,
}

var tagsDeleteCmd = &cobra.Command{
	Use:   "delete [tag-id]",
	Short: "Delete a tag",
	Long:  `Deletes the tag permanently. Documents that already carry the tag keep their copy of it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTagsDelete,
}

func init() {
	tagsListCmd.Flags().StringVarP(&tagsFilter, "filter", "f", "", "case-insensitive name filter")
	tagsListCmd.Flags().IntVarP(&tagsPage, "page", "p", 1, "page number")
	tagsDeleteCmd.Flags().BoolVarP(&tagsDeleteYes, "yes", "y", false, "skip the confirmation prompt")

	tagsCmd.AddCommand(tagsListCmd)
	tagsCmd.AddCommand(tagsCreateCmd)
	tagsCmd.AddCommand(tagsDeleteCmd)
	rootCmd.AddCommand(tagsCmd)
}

func printTags(cmd *cobra.Command, s view.TagsState) {
	if len(s.Rows) == 0 {
		cmd.Println("No tags found.")
		return
	}
	for _, t := range s.Rows {
		cmd.Printf("  %-36s  %-24s %s\n", t.ID, t.TagName, t.CreatedAt.Format("2006-01-02 15:04"))
	}
	cmd.Printf("\nPage %d/%d (%d tags)\n", s.Page, s.TotalPages, s.Total)
}

func runTagsList(cmd *cobra.Command, _ []string) error {
	m := view.NewTagManager(api)
	ctx := context.Background()
	if err := m.SetFilter(ctx, tagsFilter); err != nil {
		return fmt.Errorf("failed to list tags: %w", notLoggedIn(err))
	}
	if tagsPage > 1 {
		if err := m.GoTo(ctx, tagsPage); err != nil {
			return fmt.Errorf("failed to list tags: %w", notLoggedIn(err))
		}
	}
	printTags(cmd, m.State())
	return nil
}

func runTagsCreate(cmd *cobra.Command, args []string) error {
	m := view.NewTagManager(api)
	m.OpenCreateDialog()
	m.SetFormName(args[0])
	if err := m.SubmitCreateDialog(context.Background()); err != nil {
		return fmt.Errorf("failed to create tag: %w", notLoggedIn(err))
	}
	cmd.Println(m.State().Notice.Text)
	return nil
}

func runTagsDelete(cmd *cobra.Command, args []string) error {
	m := view.NewTagManager(api)
	m.RequestDelete(model.Tag{ID: args[0], TagName: args[0]})
	if !tagsDeleteYes && !confirm(cmd, m.State().ConfirmText()) {
		m.CancelDelete()
		cmd.Println("Cancelled")
		return nil
	}
	if err := m.ConfirmDelete(context.Background()); err != nil {
		return fmt.Errorf("failed to delete tag: %w", notLoggedIn(err))
	}
	cmd.Printf("Tag %s deleted\n", args[0])
	return nil
}
