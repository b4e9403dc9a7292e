package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prasetyadi/faktur-review/constants"
	"github.com/prasetyadi/faktur-review/internal/report"
)

var laporanCmd = &cobra.Command{
	Use:   "laporan [category]",
	Short: "List previously saved records for a category",
	Long:  "Categories: " + strings.Join(constants.ReportCategoryStrings(), ", "),
	Args:  cobra.ExactArgs(1),
	RunE:  runLaporan,
}

func init() {
	rootCmd.AddCommand(laporanCmd)
}

func runLaporan(cmd *cobra.Command, args []string) error {
	category := args[0]
	if !constants.IsValidReportCategory(category) {
		return fmt.Errorf("unknown category %q", category)
	}

	view := report.NewView(client, logger)
	rows := view.Load(context.Background(), constants.ReportCategory(category))
	if len(rows) == 0 {
		cmd.Println("Tidak ada data untuk ditampilkan.")
		return nil
	}

	if category == string(constants.ReportBuktiSetor) {
		cmd.Printf("%-6s %-12s %-20s %14s\n", "ID", "Tanggal", "Kode Setor", "Jumlah")
		for _, r := range rows {
			cmd.Printf("%-6d %-12s %-20s %14.2f\n", r.ID, r.Tanggal, r.KodeSetor, r.Jumlah)
		}
		return nil
	}

	cmd.Printf("%-6s %-12s %-22s %-30s %14s %14s\n", "ID", "Tanggal", "No. Faktur", "Lawan Transaksi", "DPP", "PPN")
	for _, r := range rows {
		cmd.Printf("%-6d %-12s %-22s %-30s %14.2f %14.2f\n", r.ID, r.Tanggal, r.NoFaktur, r.NamaLawan, r.DPP, r.PPN)
	}
	return nil
}
