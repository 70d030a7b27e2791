package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-insights/jobs"
	"github.com/fenilmodi00/ipo-insights/services"
	"github.com/spf13/cobra"
)

func newHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check backend reachability and snapshot completeness",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			return app.runHealthCheck(ctx)
		},
	}
}

func (a *App) runHealthCheck(ctx context.Context) error {
	out := a.Out
	fmt.Fprintf(out, "🏥 IPO Insights Health Check - %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(out, strings.Repeat("=", 50))

	healthScore := 0
	totalTests := 4

	// Test 1: Backend listing
	fmt.Fprint(out, "📡 Backend API: ")
	records, err := a.Backend.ListIPOs(ctx)
	if err != nil {
		fmt.Fprintf(out, "❌ FAILED (%v)\n", err)
	} else {
		fmt.Fprintf(out, "✅ OK (%d IPOs)\n", len(records))
		healthScore++
	}

	// Test 2: Detail snapshots
	fmt.Fprint(out, "📦 IPO Snapshots: ")
	utility := services.NewUtilityService(services.LoadMarketLocation(a.Config.MarketTimezone))
	refresh := jobs.NewSnapshotRefreshJob(services.NewCachedSnapshotSource(a.Backend, services.NewCacheService(time.Minute, 0)), utility, 0)
	summary, err := refresh.Refresh(ctx)
	switch {
	case err != nil:
		fmt.Fprintf(out, "❌ FAILED (%v)\n", err)
	case summary.Failed > 0:
		fmt.Fprintf(out, "❌ FAILED (%d of %d unreachable)\n", summary.Failed, summary.Listed)
	default:
		fmt.Fprintf(out, "✅ OK (%d refreshed)\n", summary.Refreshed)
		healthScore++
	}

	// Test 3: Snapshot completeness
	fmt.Fprint(out, "📊 Snapshot Data: ")
	if err == nil && summary.Incomplete == 0 {
		fmt.Fprintln(out, "✅ OK")
		healthScore++
	} else {
		fmt.Fprintf(out, "❌ FAILED (%d incomplete)\n", summary.Incomplete)
	}

	// Test 4: Market time zone
	fmt.Fprint(out, "🕙 Market Zone: ")
	if zone := utility.Location().String(); zone == a.Config.MarketTimezone {
		fmt.Fprintf(out, "✅ OK (%s)\n", zone)
		healthScore++
	} else {
		fmt.Fprintf(out, "❌ FAILED (%s unavailable, using %s)\n", a.Config.MarketTimezone, zone)
	}

	fmt.Fprintln(out, strings.Repeat("-", 50))
	healthPercent := float64(healthScore) / float64(totalTests) * 100

	switch {
	case healthScore == totalTests:
		fmt.Fprintf(out, "🎉 SYSTEM HEALTHY: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	case healthScore >= totalTests/2:
		fmt.Fprintf(out, "⚠️  SYSTEM DEGRADED: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	default:
		fmt.Fprintf(out, "❌ SYSTEM UNHEALTHY: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
		return fmt.Errorf("health check failed")
	}
	return nil
}
