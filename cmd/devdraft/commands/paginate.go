package commands

import (
	"iter"

	"github.com/spf13/cobra"

	"github.com/devdraft/saligen/pkg/devdraft"
)

// NewPaginateCommand creates the paginate command group
func NewPaginateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "paginate",
		Aliases: []string{"page-all"},
		Short:   "Fetch every item of a paginated endpoint",
		Long:    "Walk a cursor or page-numbered endpoint and print the collected items as one array",
	}

	cmd.AddCommand(newPaginateCursorCommand())
	cmd.AddCommand(newPaginatePageCommand())

	return cmd
}

func newPaginateCursorCommand() *cobra.Command {
	var (
		queryParams []string
		limit       int
	)

	opts := devdraft.DefaultCursorOptions()

	cmd := &cobra.Command{
		Use:   "cursor PATH",
		Short: "Walk a cursor-paginated endpoint",
		Long: `Request PATH repeatedly, passing the previous page's next cursor, until the
response has no cursor or hasMore is false.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := parseQueryParams(queryParams)
			if err != nil {
				return err
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			items, err := collect(client.PaginateCursor(cmd.Context(), args[0], query, opts).Seq(), limit)
			if err != nil {
				return err
			}

			return outputValue(cmd.OutOrStdout(), items)
		},
	}

	cmd.Flags().StringArrayVarP(&queryParams, "query", "q", nil, "query parameter KEY=VALUE (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "stop after this many items (0 for all)")
	cmd.Flags().StringVar(&opts.CursorParam, "cursor-param", opts.CursorParam, "query parameter carrying the cursor")
	cmd.Flags().StringVar(&opts.ItemsKey, "items-key", opts.ItemsKey, "response field holding the items")
	cmd.Flags().StringVar(&opts.NextCursorKey, "next-cursor-key", opts.NextCursorKey, "response field holding the next cursor")
	cmd.Flags().StringVar(&opts.HasMoreKey, "has-more-key", opts.HasMoreKey, "response field telling whether more pages follow")

	return cmd
}

func newPaginatePageCommand() *cobra.Command {
	var (
		queryParams []string
		limit       int
	)

	opts := devdraft.DefaultPageOptions()

	cmd := &cobra.Command{
		Use:   "page PATH",
		Short: "Walk a page-numbered endpoint",
		Long:  "Request PATH with page=1, 2, ... until the page number passes the reported total page count.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := parseQueryParams(queryParams)
			if err != nil {
				return err
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			items, err := collect(client.PaginatePage(cmd.Context(), args[0], query, opts).Seq(), limit)
			if err != nil {
				return err
			}

			return outputValue(cmd.OutOrStdout(), items)
		},
	}

	cmd.Flags().StringArrayVarP(&queryParams, "query", "q", nil, "query parameter KEY=VALUE (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "stop after this many items (0 for all)")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", 0, "page size to request (not sent when 0)")
	cmd.Flags().StringVar(&opts.PageParam, "page-param", opts.PageParam, "query parameter carrying the page number")
	cmd.Flags().StringVar(&opts.PerPageParam, "per-page-param", opts.PerPageParam, "query parameter carrying the page size")
	cmd.Flags().StringVar(&opts.ItemsKey, "items-key", opts.ItemsKey, "response field holding the items")
	cmd.Flags().StringVar(&opts.TotalPagesKey, "total-pages-key", opts.TotalPagesKey, "response field holding the total page count")

	return cmd
}

// collect drains seq into one array Value. Breaking out early at limit leaves
// the remaining pages unfetched.
func collect(seq iter.Seq2[devdraft.Value, error], limit int) (devdraft.Value, error) {
	items := make([]interface{}, 0)

	for item, err := range seq {
		if err != nil {
			return devdraft.Null, err
		}

		items = append(items, item.Interface())
		if limit > 0 && len(items) >= limit {
			break
		}
	}

	return devdraft.ValueOf(items), nil
}
