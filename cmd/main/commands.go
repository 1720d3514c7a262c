package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	datasource "auction-predictor/src/data_source"
	"auction-predictor/src/models"

	"github.com/spf13/cobra"
)

// --- import ---

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load auction and metal price workbooks into the history store",
		Long: `Load auction and metal price workbooks (.xlsx or .csv) into the history store.
Paths default to data_source.auction_file, copper_file and zinc_file.

Examples:
  auction-predictor import --auctions data/auctions.xlsx
  auction-predictor import --copper data/copper.csv --zinc data/zinc.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			auctions, _ := cmd.Flags().GetString("auctions")
			copper, _ := cmd.Flags().GetString("copper")
			zinc, _ := cmd.Flags().GetString("zinc")
			if !cmd.Flags().Changed("auctions") && !cmd.Flags().Changed("copper") && !cmd.Flags().Changed("zinc") {
				auctions = a.cfg.DataSource.AuctionFile
				copper = a.cfg.DataSource.CopperFile
				zinc = a.cfg.DataSource.ZincFile
			}
			if auctions == "" && copper == "" && zinc == "" {
				return fmt.Errorf("one of --auctions, --copper or --zinc is required")
			}

			im := datasource.NewImporter(a.db, a.log.WithName("Importer"))
			ctx := cmd.Context()

			if auctions != "" {
				stats, err := im.ImportAuctions(ctx, auctions)
				if err != nil {
					return err
				}
				printStats(cmd, "auctions", stats)
			}
			for _, m := range []struct{ metal, path string }{{models.MetalCopper, copper}, {models.MetalZinc, zinc}} {
				if m.path == "" {
					continue
				}
				stats, err := im.ImportQuotes(ctx, m.metal, m.path)
				if err != nil {
					return err
				}
				printStats(cmd, m.metal, stats)
			}
			return nil
		},
	}
	cmd.Flags().String("auctions", "", "auction workbook path")
	cmd.Flags().String("copper", "", "copper price workbook path")
	cmd.Flags().String("zinc", "", "zinc price workbook path")
	return cmd
}

func printStats(cmd *cobra.Command, what string, s datasource.ImportStats) {
	unknown := 0
	for _, n := range s.Unknown {
		unknown += n
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows, %d imported, %d invalid, %d unknown product\n",
		what, s.Rows, s.Imported, s.Invalid, unknown)
}

// --- sync-market ---

func newSyncMarketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-market",
		Short: "Fetch new copper and zinc spot prices from the market API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.newMarketSync().Sync(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d quotes\n", n)
			return nil
		},
	}
}

// --- models ---

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the model artifacts found in the models directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.loadModels(cmd.Context())
			if err != nil {
				return err
			}
			list := store.List()

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd, list)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tFEATURES\tTRAINED")
			for _, m := range list {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", m.Name, m.Kind, m.Features, m.TrainedAt)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "print JSON instead of a table")
	return cmd
}

// --- predict ---

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run one prediction against the local history store",
		Long: `Run one prediction against the local history store and print the JSON result.

Example:
  auction-predictor predict --group cylinder --quantity 12.5 --date 2024-01-31 --location Mumbai`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			p, err := a.newPipeline(cmd.Context())
			if err != nil {
				return err
			}

			var req models.MPredictionRequest
			req.ProductGroup, _ = cmd.Flags().GetString("group")
			req.Quantity, _ = cmd.Flags().GetFloat64("quantity")
			req.Date, _ = cmd.Flags().GetString("date")
			req.Location, _ = cmd.Flags().GetString("location")

			result, err := p.Predict(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}
	cmd.Flags().String("group", "", "product group (cylinder or valve)")
	cmd.Flags().Float64("quantity", 0, "quantity in MT")
	cmd.Flags().String("date", "", "auction date, YYYY-MM-DD")
	cmd.Flags().String("location", "", "auction location (echoed only)")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("quantity")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

// -----------------------------------------------------------------------------

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

