package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Diegoproggramer/CivilCity/internal/content"
	"github.com/Diegoproggramer/CivilCity/internal/page"
	"github.com/Diegoproggramer/CivilCity/internal/prefs"
)

func newRoutesCmd(a *app) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the navigation routes of the content document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lang != "" {
				l, ok := prefs.ParseLanguage(lang)
				if !ok {
					return fmt.Errorf("unsupported language %q", lang)
				}
				lang = string(l)
			}
			doc, err := a.loadDocument(cmd.Context())
			if err != nil {
				return err
			}
			return writeRoutes(cmd.OutOrStdout(), doc, lang)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "only list this language")
	return cmd
}

func (a *app) loadDocument(ctx context.Context) (*content.Document, error) {
	loader := content.NewLoader(content.WithTimeout(a.cfg.Content.Timeout), content.WithLogger(a.logger))
	doc, err := loader.Load(ctx, a.cfg.Content.Source)
	if err != nil {
		return nil, &page.Error{Code: page.DataLinkFailure, Err: err}
	}
	return doc, nil
}

// writeRoutes prints one row per navigation entry. Page routes without
// content in that language are flagged since they render an error panel.
func writeRoutes(out io.Writer, doc *content.Document, only string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LANG\tROUTE\tKIND\tTEXT\tSTATUS")
	for _, lang := range doc.Languages() {
		if only != "" && lang != only {
			continue
		}
		for _, e := range doc.Navigation(lang) {
			status := "ok"
			if e.Kind == content.KindPage {
				if _, ok := doc.Page(lang, e.ID); !ok {
					status = string(page.ContentNotFound)
				}
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", lang, e.ID, e.Kind, e.Text, status)
		}
	}
	return tw.Flush()
}
