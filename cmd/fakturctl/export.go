package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prasetyadi/faktur-review/constants"
	"github.com/prasetyadi/faktur-review/internal/report"
)

var (
	exportOut   string
	exportLocal bool
)

var exportCmd = &cobra.Command{
	Use:   "export [category]",
	Short: "Download the XLSX export for a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file path (default laporan_<category>_<date>.xlsx)")
	exportCmd.Flags().BoolVar(&exportLocal, "local", false, "build the workbook locally instead of downloading it")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	category := args[0]
	if !constants.IsValidReportCategory(category) {
		return fmt.Errorf("unknown category %q", category)
	}
	out := exportOut
	if out == "" {
		out = fmt.Sprintf("laporan_%s_%s.xlsx", category, time.Now().Format("20060102"))
	}

	ctx := context.Background()
	view := report.NewView(client, logger)

	if exportLocal {
		if rows := view.Load(ctx, constants.ReportCategory(category)); len(rows) == 0 {
			return fmt.Errorf("tidak ada data untuk diekspor")
		}
		if err := view.ExportLocal(out); err != nil {
			return err
		}
	} else if err := view.Export(ctx, constants.ReportCategory(category), out); err != nil {
		return err
	}

	cmd.Printf("Export tersimpan di %s\n", out)
	return nil
}
