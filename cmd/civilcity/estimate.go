package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Diegoproggramer/CivilCity/internal/estimator"
	"github.com/Diegoproggramer/CivilCity/internal/format"
	"github.com/Diegoproggramer/CivilCity/internal/i18n"
	"github.com/Diegoproggramer/CivilCity/internal/prefs"
)

func newEstimateCmd(a *app) *cobra.Command {
	var (
		area    string
		quality string
		lang    string
	)
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate construction cost with the document's parameters",
		Example: `  civilcity estimate --area 120 --quality luxury
  civilcity estimate --area ۱۲۰ --quality economic --lang fa`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, ok := prefs.ParseLanguage(lang)
			if !ok {
				return fmt.Errorf("unsupported language %q", lang)
			}
			doc, err := a.loadDocument(cmd.Context())
			if err != nil {
				return err
			}
			calc, err := estimator.FromDocument(doc)
			if err != nil {
				return err
			}
			n, err := format.ParseNumber(area)
			if err != nil {
				return fmt.Errorf("%w: %q", estimator.ErrInvalidArea, area)
			}
			est, err := calc.Estimate(n, quality)
			if errors.Is(err, estimator.ErrUnknownQuality) {
				return fmt.Errorf("%w (known: %s)", err, strings.Join(calc.Qualities(), ", "))
			}
			if err != nil {
				return err
			}
			msg := i18n.Default().Tf(string(l), "estimator.result", format.Toman(est.Cost, string(l)))
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&area, "area", "", "floor area in square meters")
	cmd.Flags().StringVar(&quality, "quality", "", "quality level")
	cmd.Flags().StringVar(&lang, "lang", string(prefs.LanguagePrimary), "output language")
	_ = cmd.MarkFlagRequired("area")
	_ = cmd.MarkFlagRequired("quality")
	return cmd
}
