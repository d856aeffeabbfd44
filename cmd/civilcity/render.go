package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Diegoproggramer/CivilCity/internal/prefs"
	"github.com/Diegoproggramer/CivilCity/internal/router"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		lang  string
		theme string
		raw   bool
	)
	cmd := &cobra.Command{
		Use:   "render [route]",
		Short: "Render one route to stdout",
		Long: `Render loads the content document, renders the route (home when omitted)
and prints the navigation and page. The exit status is non-zero when the
route shows an error panel.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var storage prefs.Storage = prefs.NewFileStorage(a.cfg.Prefs.File)
			if lang != "" || theme != "" {
				// One-off overrides must not touch the saved preferences.
				mem := prefs.NewMemoryStorage()
				if v, ok, _ := storage.Get(prefs.KeyLanguage); ok {
					_ = mem.Set(prefs.KeyLanguage, v)
				}
				if v, ok, _ := storage.Get(prefs.KeyTheme); ok {
					_ = mem.Set(prefs.KeyTheme, v)
				}
				if lang != "" {
					_ = mem.Set(prefs.KeyLanguage, lang)
				}
				if theme != "" {
					_ = mem.Set(prefs.KeyTheme, theme)
				}
				storage = mem
			}
			term := &terminal{out: cmd.OutOrStdout(), raw: raw}
			rt, err := newTerminalRouter(a.cfg, a.logger, storage, term)
			if err != nil {
				return err
			}
			route := ""
			if len(args) == 1 {
				route = args[0]
			}
			return rt.Start(cmd.Context(), route)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "language for this render (fa or en)")
	cmd.Flags().StringVar(&theme, "theme", "", "theme for this render (dark or light)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print HTML instead of text")
	return cmd
}

func newBrowseCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the portal interactively",
		Long: `Browse reads one navigation intent per line from stdin. Besides route ids it
understands :theme, :lang, :where and :quit. Theme and language choices are
saved to the preferences file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			term := &terminal{out: cmd.OutOrStdout(), raw: raw}
			rt, err := newTerminalRouter(a.cfg, a.logger, prefs.NewFileStorage(a.cfg.Prefs.File), term)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := rt.Start(ctx, ""); err != nil && rt.State() != router.Ready {
				return err
			}
			return browse(ctx, rt, cmd.InOrStdin(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print HTML instead of text")
	return cmd
}

// browse runs the read loop until :quit or end of input.
func browse(ctx context.Context, rt *router.Router, in io.Reader, status io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(status, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(status)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case ":q", ":quit", ":exit":
			return nil
		case ":theme":
			p := rt.ToggleTheme(ctx)
			fmt.Fprintf(status, "theme: %s\n", p.Theme)
		case ":lang":
			p := rt.ToggleLanguage(ctx)
			fmt.Fprintf(status, "language: %s\n", p.Language)
		case ":where":
			p := rt.Preferences()
			fmt.Fprintf(status, "route: %s, language: %s, theme: %s\n", rt.Current(), p.Language, p.Theme)
		default:
			if err := rt.HandleRoute(ctx, line); err != nil {
				fmt.Fprintln(status, err)
			}
		}
	}
}
