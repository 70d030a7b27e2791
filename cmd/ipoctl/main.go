// Command ipoctl inspects derived IPO values and runs allotment checks from a terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	_ "time/tzdata"

	"github.com/fenilmodi00/ipo-insights/config"
	"github.com/fenilmodi00/ipo-insights/services"
	"github.com/fenilmodi00/ipo-insights/shared"
	"github.com/spf13/cobra"
)

// App holds the services shared by every command
type App struct {
	Config     *config.Config
	Backend    *services.BackendClient
	IPOService *services.IPOService
	Tracker    *services.AllotmentTracker
	Beacon     *services.Beacon
	JSON       bool
	Out        io.Writer

	apiURL   string
	timezone string
}

func main() {
	if err := newRootCmd(&App{Out: os.Stdout}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "ipoctl",
		Short:        "Inspect IPO lifecycle, GMP and subscription figures",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app.Beacon == nil {
				return nil
			}
			return app.Beacon.Close(context.Background())
		},
	}

	rootCmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Print JSON instead of tables")
	rootCmd.PersistentFlags().StringVar(&app.apiURL, "api", "", "Backend API base URL (default $API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&app.timezone, "timezone", "", "Market time zone (default $MARKET_TIMEZONE)")

	rootCmd.AddCommand(newIPOsCmd(app))
	rootCmd.AddCommand(newGMPCmd(app))
	rootCmd.AddCommand(newSubscriptionCmd(app))
	rootCmd.AddCommand(newCheckCmd(app))
	rootCmd.AddCommand(newRegistrarCmd(app))
	rootCmd.AddCommand(newHealthCmd(app))

	return rootCmd
}

func (a *App) init() error {
	if a.IPOService != nil {
		return nil
	}

	a.Config = config.LoadConfig()
	if a.apiURL != "" {
		a.Config.APIBaseURL = a.apiURL
	}
	if a.timezone != "" {
		a.Config.MarketTimezone = a.timezone
	}

	engineConfig, err := a.Config.Engine()
	if err != nil {
		return err
	}
	engineConfig.Logging.Level = "warn"
	config.SetupLogging(engineConfig.Logging)

	utility := services.NewUtilityService(services.LoadMarketLocation(a.Config.MarketTimezone))
	resolver := services.NewStatusResolver(utility)

	a.Backend = services.NewBackendClient(engineConfig.Service, shared.NewHTTPClientFactory(engineConfig.Service.HTTPRequestTimeout))
	a.Beacon = services.NewBeacon(a.Backend, engineConfig.Beacon, nil)
	a.Tracker = services.NewAllotmentTracker(a.Backend, a.Beacon, services.NavigatorFunc(a.printLink), resolver)
	a.IPOService = services.NewIPOService(a.Backend, a.Backend, a.Backend, resolver)
	return nil
}

func (a *App) printLink(ctx context.Context, target string) error {
	if err := services.ValidateRegistrarURL(ctx, target); err != nil {
		return err
	}
	_, err := fmt.Fprintf(a.Out, "Open the registrar page: %s\n", target)
	return err
}

func (a *App) printJSON(v interface{}) error {
	encoder := json.NewEncoder(a.Out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
