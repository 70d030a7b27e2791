package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/fenilmodi00/ipo-insights/services"
	"github.com/spf13/cobra"
)

const commandTimeout = 60 * time.Second

func newIPOsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ipos",
		Short: "List IPOs with their derived phase and GMP",
		Example: `  ipoctl ipos --status open
  ipoctl ipos --category SME --q tech
  ipoctl ipos --board gmp --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			status, _ := cmd.Flags().GetString("status")
			category, _ := cmd.Flags().GetString("category")
			query, _ := cmd.Flags().GetString("q")
			board, _ := cmd.Flags().GetString("board")
			order, _ := cmd.Flags().GetString("sort")
			hasGMP, _ := cmd.Flags().GetBool("has-gmp")
			limit, _ := cmd.Flags().GetInt("limit")

			filter, ok := models.BoardFilter(board)
			if !ok {
				return fmt.Errorf("unknown board %q", board)
			}
			filter.Category, filter.Query, filter.Limit = category, query, limit
			filter.HasGMP = filter.HasGMP || hasGMP
			if order != "" {
				sortOrder, ok := models.ParseIPOSort(order)
				if !ok {
					return fmt.Errorf("unknown sort %q", order)
				}
				filter.Sort = sortOrder
			}

			if phase, ok := models.ParseLifecyclePhase(status); ok {
				filter.Phase = phase
			} else if status != "" && !strings.EqualFold(status, "all") {
				return fmt.Errorf("unknown status %q", status)
			}

			views, err := app.IPOService.ListViews(ctx, filter)
			if err != nil {
				return err
			}
			if app.JSON {
				return app.printJSON(views)
			}

			w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCOMPANY\tCATEGORY\tPHASE\tGMP\tTREND\tSUBSCRIBED\tMODE")
			for _, view := range views {
				gmp, trend := "-", "-"
				if view.GMP != nil {
					gmp = view.GMP.Latest.Value.String()
					trend = string(view.GMP.Trend)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%sx\t%s\n",
					view.Identifier(), view.CompanyName, view.Category, view.Phase,
					gmp, trend, view.Shares.Total.StringFixed(2), view.AllotmentMode)
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("status", "all", "Phase filter (upcoming, open, closed, listed, all)")
	cmd.Flags().String("category", "", "Category filter (Mainboard, SME)")
	cmd.Flags().String("q", "", "Search company name or symbol")
	cmd.Flags().String("board", "all", "Board (gmp, calendar, subscription, all)")
	cmd.Flags().String("sort", "", "Order (gmp, open_date, close_date)")
	cmd.Flags().Bool("has-gmp", false, "Only IPOs with GMP quotes")
	cmd.Flags().Int("limit", 0, "Maximum rows, 0 for all")

	return cmd
}

func newGMPCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "gmp <ipo-id>",
		Short: "Show the GMP analysis and history of an IPO",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			record, err := app.IPOService.GetRecord(ctx, args[0])
			if err != nil {
				return err
			}

			analysis, ok := services.AnalyzeGMP(record.GMP, record.PriceRange.Max.Decimal)
			history := services.GMPHistory(record.GMP)
			if app.JSON {
				return app.printJSON(map[string]interface{}{
					"hasData":  ok,
					"analysis": analysis,
					"history":  history,
				})
			}

			fmt.Fprintf(app.Out, "%s\n", record.CompanyName)
			if !ok {
				fmt.Fprintln(app.Out, "No GMP data yet")
				return nil
			}

			fmt.Fprintf(app.Out, "  Latest GMP:       %s (%s%% of %s)\n",
				analysis.Latest.Value.String(), analysis.PercentageOfPrice.StringFixed(2), record.PriceRange.Max.String())
			fmt.Fprintf(app.Out, "  Trend:            %s\n", analysis.Trend)
			fmt.Fprintf(app.Out, "  Est. listing:     %s\n", analysis.EstimatedListingPrice.String())
			fmt.Fprintf(app.Out, "  Est. profit/lot:  %s\n",
				services.EstimatedProfit(analysis.Latest.Value.Decimal, record.LotSize.Decimal).String())

			w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\nDATE\tGMP\tCHANGE")
			for _, entry := range history {
				change := "-"
				if entry.Change != nil {
					change = entry.Change.String()
					if entry.Change.IsPositive() {
						change = "+" + change
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Date, entry.Value.String(), change)
			}
			return w.Flush()
		},
	}
}

func newSubscriptionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscription <ipo-id>",
		Short: "Show share and application subscription multipliers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			view, err := app.IPOService.GetView(ctx, args[0])
			if err != nil {
				return err
			}
			if app.JSON {
				return app.printJSON(map[string]interface{}{
					"shares":       view.Shares,
					"applications": view.Applications,
				})
			}

			w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "CATEGORY\tSHARES (%s)\tAPPLICATIONS\n", view.Shares.SharesUnit)
			for _, category := range models.InvestorCategories() {
				fmt.Fprintf(w, "%s\t%sx\t%sx\n", strings.ToUpper(string(category)),
					view.Shares.PerCategory[category].StringFixed(2),
					view.Applications.PerCategory[category].StringFixed(2))
			}
			fmt.Fprintf(w, "TOTAL\t%sx\t%sx\n", view.Shares.Total.StringFixed(2), view.Applications.Total.StringFixed(2))
			return w.Flush()
		},
	}

	cmd.AddCommand(newSubscriptionSetCmd(app))
	return cmd
}

func newSubscriptionSetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <ipo-id>",
		Short: "Push offered/subscribed figures from a JSON file, deriving the multipliers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			file, _ := cmd.Flags().GetString("file")
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}

			var details models.SubscriptionDetails
			if err := json.Unmarshal(raw, &details); err != nil {
				return fmt.Errorf("failed to parse %s: %w", file, err)
			}

			if app.Config.AdminToken == "" {
				return fmt.Errorf("ADMIN_TOKEN is not set")
			}

			update, err := app.IPOService.UpdateSubscription(ctx, args[0], details, app.Config.AdminToken)
			if err != nil {
				return err
			}
			return app.printJSON(update)
		},
	}

	cmd.Flags().StringP("file", "f", "subscription.json", "subscriptionDetails JSON file")
	return cmd
}

func newCheckCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <ipo-id> <pan>",
		Short: "Check allotment status by PAN",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			token, _ := cmd.Flags().GetString("token")

			if _, err := app.Tracker.ValidateCheck(models.AllotmentAttempt{
				IPOID:   args[0],
				Mode:    models.ModeInternal,
				PANCard: args[1],
			}); err != nil {
				return err
			}

			record, err := app.IPOService.GetRecord(ctx, args[0])
			if err != nil {
				return err
			}

			result, err := app.Tracker.Check(ctx, app.Tracker.NewAttempt(*record, args[1]), token)
			if err != nil {
				return err
			}
			if app.JSON {
				return app.printJSON(result)
			}

			fmt.Fprintf(app.Out, "%s: %s\n", record.CompanyName, strings.ReplaceAll(string(result.Outcome), "_", " "))
			if result.Allotment != nil {
				fmt.Fprintf(app.Out, "  Application: %s  Applied: %s  Shares: %s\n",
					result.Allotment.ApplicationNumber, result.Allotment.AppliedDate, result.Allotment.LotSize.String())
			}
			if result.Message != "" {
				fmt.Fprintf(app.Out, "  %s\n", result.Message)
			}
			if result.Warning != "" {
				fmt.Fprintf(app.Out, "  Warning: %s\n", result.Warning)
			}
			return nil
		},
	}

	cmd.Flags().String("token", os.Getenv("IPO_TOKEN"), "Session token used to save the check to your dashboard")
	return cmd
}

func newRegistrarCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registrar <ipo-id>",
		Short: "Print the registrar allotment page and report the visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			token, _ := cmd.Flags().GetString("token")

			record, err := app.IPOService.GetRecord(ctx, args[0])
			if err != nil {
				return err
			}

			result, err := app.Tracker.Initiate(ctx, app.Tracker.NewAttempt(*record, ""), token)
			if err != nil {
				return err
			}
			if result.Notice != "" {
				fmt.Fprintln(app.Out, result.Notice)
			}
			return nil
		},
	}

	cmd.Flags().String("token", os.Getenv("IPO_TOKEN"), "Session token used to track the visit")
	return cmd
}
