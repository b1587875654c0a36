package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reporter_service/internal/filter"
)

var exportPaths = map[string]string{
	"csv":         "/filter-csv",
	"detail-csv":  "/detail-csv",
	"detail-xlsx": "/detail-xlsx",
}

var (
	exportFilters filterFlags
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:       "export csv|detail-csv|detail-xlsx",
	Short:     "Download a report export from a running server",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"csv", "detail-csv", "detail-xlsx"},
	RunE:      runExport,
}

func init() {
	exportFilters.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file, - for stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	criteria, err := filter.ReadCriteria(exportFilters.form(), filter.MapVariant)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "-" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	n, err := newClient().Download(cmd.Context(), exportPaths[args[0]], filter.Build(criteria), w)
	if err != nil {
		return err
	}
	logger.Debug("exported report", zap.String("kind", args[0]), zap.Int64("bytes", n))
	return nil
}
