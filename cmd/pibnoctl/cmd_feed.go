package main

import (
	"Pibno/internal/feed"
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	feedPages    int
	feedPageSize int
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Browse posts newest first, press Enter for the next page",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := feed.NewPaginator(newClient(), feed.WithPageSize(feedPageSize))
		out := cmd.OutOrStdout()
		in := bufio.NewReader(cmd.InOrStdin())

		shown := 0
		for page := 0; feedPages <= 0 || page < feedPages; page++ {
			if _, err := p.LoadMore(cmd.Context()); err != nil {
				return err
			}
			items := p.Items()
			for _, post := range items[shown:] {
				fmt.Fprintf(out, "%s  %-40s  %s\n", post.CreatedAt.Local().Format("2006-01-02 15:04"), post.Title, post.Author)
			}
			shown = len(items)

			if p.Exhausted() {
				fmt.Fprintln(out, "-- "+feed.StatusEnd+" --")
				return nil
			}
			if feedPages > 0 && page+1 >= feedPages {
				return nil
			}
			fmt.Fprint(out, "-- more (Enter) --")
			if _, err := in.ReadString('\n'); err == io.EOF {
				fmt.Fprintln(out)
				return nil
			}
		}
		return nil
	},
}

func init() {
	feedCmd.Flags().IntVar(&feedPages, "pages", 0, "stop after this many pages (0 = interactive)")
	feedCmd.Flags().IntVar(&feedPageSize, "page-size", feed.PageSize, "posts per page")
}
