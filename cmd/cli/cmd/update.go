// Package cmd - update command
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"playprice/adapters/play"
	"playprice/core/apply"
	"playprice/core/diff"
	"playprice/core/eligibility"
	"playprice/core/plan"
	"playprice/core/pricebook"
	"playprice/core/reconcile"
	"playprice/core/report"
	"playprice/core/ui"
	"playprice/internal/config"
	"playprice/internal/errors"
	"playprice/internal/logging"
)

// pricePreviewCap bounds the parsed-price echo before any network call.
const pricePreviewCap = 5

var (
	csvPath             string
	packageName         string
	productID           string
	basePlanID          string
	applyChanges        bool
	fixCurrency         bool
	convertCurrency     bool
	useRecommended      bool
	batchSize           int
	regionsVersion      string
	enableAvailability  bool
	migrateExisting     bool
	migrateCutoff       string
	migrateIncreaseType string
	noColor             bool
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Reconcile a price sheet against the base plan and optionally apply it",
	Long: `Read a CSV price sheet, reconcile it against the live base plan, and
show the resulting changes. Without --apply nothing is written.

Examples:
  playprice update --csv prices.csv
  playprice update --csv prices.csv --fix-currency --apply
  playprice update --csv prices.csv --apply --migrate-existing --migrate-cutoff 2025-01-01T00:00:00Z`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&csvPath, "csv", "", "price sheet CSV path (default from config)")
	updateCmd.Flags().StringVar(&packageName, "package-name", "", "app package name")
	updateCmd.Flags().StringVar(&productID, "product-id", "", "subscription product id")
	updateCmd.Flags().StringVar(&basePlanID, "base-plan-id", "", "base plan id")
	updateCmd.Flags().BoolVar(&applyChanges, "apply", false, "write the merged prices to the platform")
	updateCmd.Flags().BoolVar(&fixCurrency, "fix-currency", false, "replace mismatched currency codes with the region's required currency")
	updateCmd.Flags().BoolVar(&convertCurrency, "convert-currency", false, "also convert the amount when fixing a currency (implies --fix-currency)")
	updateCmd.Flags().BoolVar(&useRecommended, "use-recommended", false, "override sheet prices with the platform's recommended prices")
	updateCmd.Flags().IntVar(&batchSize, "batch-size", 0, "apply prices in chunks of this size (0 = single request)")
	updateCmd.Flags().StringVar(&regionsVersion, "regions-version", "", "explicit regions version token")
	updateCmd.Flags().BoolVar(&enableAvailability, "enable-availability", false, "open updated regions to new subscribers")
	updateCmd.Flags().BoolVar(&migrateExisting, "migrate-existing", false, "migrate legacy subscriber cohorts after a successful apply")
	updateCmd.Flags().StringVar(&migrateCutoff, "migrate-cutoff", "", "oldest allowed price version time for migration (ISO 8601)")
	updateCmd.Flags().StringVar(&migrateIncreaseType, "migrate-increase-type", apply.DefaultIncreaseType, "price increase type for migration")
	updateCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// applyConfigDefaults fills flag values the user did not set from the
// config file.
func applyConfigDefaults(cmd *cobra.Command) {
	cfg := config.Get()
	if csvPath == "" {
		csvPath = cfg.CSVPath
	}
	if packageName == "" {
		packageName = cfg.PackageName
	}
	if productID == "" {
		productID = cfg.ProductID
	}
	if basePlanID == "" {
		basePlanID = cfg.BasePlanID
	}
	if regionsVersion == "" {
		regionsVersion = cfg.RegionsVersion
	}
	if !cmd.Flags().Changed("fix-currency") {
		fixCurrency = cfg.Defaults.FixCurrency
	}
	if !cmd.Flags().Changed("convert-currency") {
		convertCurrency = cfg.Defaults.ConvertCurrency
	}
	if !cmd.Flags().Changed("use-recommended") {
		useRecommended = cfg.Defaults.UseRecommended
	}
	if !cmd.Flags().Changed("batch-size") {
		batchSize = cfg.Defaults.BatchSize
	}
	if !cmd.Flags().Changed("enable-availability") {
		enableAvailability = cfg.Defaults.EnableAvailability
	}
	if convertCurrency {
		fixCurrency = true
	}
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	applyConfigDefaults(cmd)
	cfg := config.Get()
	w := ui.NewWriter(os.Stdout, noColor)

	if packageName == "" {
		return errors.Input("package name is required (--package-name or config)")
	}
	if migrateExisting && !applyChanges {
		return errors.Input("--migrate-existing requires --apply")
	}

	prices, err := pricebook.Load(csvPath)
	if err != nil {
		return err
	}
	w.Println("Parsed %d prices from %s", len(prices), csvPath)
	for i, price := range prices {
		if i == pricePreviewCap {
			w.Println("  ... and %d more", len(prices)-pricePreviewCap)
			break
		}
		w.Println("  %s: %s", price.RegionCode, price.Price.String())
	}
	w.Println("")

	token := os.Getenv(cfg.API.TokenEnv)
	client := play.NewClient(logging.Logger, cfg.API.BaseURL, packageName, productID, basePlanID, play.StaticToken(token))
	orc := play.NewOracle(client, logging.Logger)

	basePlan, err := client.GetBasePlan(ctx)
	if err != nil {
		if errors.IsType(err, errors.TypeNotFound) {
			w.Errorf("%v", err)
			w.Println("Check --package-name, --product-id, and --base-plan-id against the platform console.")
		}
		return err
	}
	w.Println("Base plan %s has %d regional configs", basePlan.BasePlanID, len(basePlan.RegionalConfigs))

	billable := orc.BillableRegions(ctx)
	filtered := eligibility.Filter(prices, billable)
	if len(filtered.Dropped) > 0 {
		w.Warning("Skipping %d non-billable regions: %v", len(filtered.Dropped), filtered.Dropped)
	}

	outcome := reconcile.Resolve(ctx, filtered, billable, orc, reconcile.Options{
		FixCurrency:     fixCurrency,
		ConvertCurrency: convertCurrency,
		UseRecommended:  useRecommended,
	})
	if len(outcome.Excluded) > 0 {
		w.Warning("Excluding %d currency-mismatched regions (pass --fix-currency to keep them)", len(outcome.Excluded))
	}
	if len(outcome.Prices) == 0 {
		return errors.Input("no prices left to apply after filtering and reconciliation")
	}

	merged := plan.Merge(basePlan.RegionalConfigs, outcome.Prices, enableAvailability)

	version, ok := plan.ResolveRegionsVersion(ctx, regionsVersion, basePlan, orc)
	if !ok {
		w.Warning("No regions version available; writing without one")
	}

	result := diff.Classify(basePlan.RegionalConfigs, merged, enableAvailability)
	report.NewRenderer(w).Render(result)

	if !applyChanges {
		w.Println("")
		w.Println("Dry-run: no changes applied (pass --apply to write)")
		return nil
	}

	logging.Info("applying merged regional prices",
		zap.Int("regions", len(merged)),
		zap.String("regions_version", version),
		zap.Int("batch_size", batchSize))
	orchestrator := apply.NewOrchestrator(client, apply.Options{
		RegionsVersion:      version,
		BatchSize:           batchSize,
		MigrateExisting:     migrateExisting,
		MigrateCutoff:       migrateCutoff,
		MigrateIncreaseType: migrateIncreaseType,
	})
	if err := orchestrator.Apply(ctx, &merged); err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}

	w.Success("Applied %d regional prices to base plan %s", len(merged), basePlanID)
	return nil
}
