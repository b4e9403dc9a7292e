package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prasetyadi/faktur-review/constants"
	"github.com/prasetyadi/faktur-review/internal/report"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete [category] [ids...]",
	Short: "Delete explicitly listed records from a category",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	category := args[0]
	if !constants.IsValidReportCategory(category) {
		return fmt.Errorf("unknown category %q", category)
	}

	ids := make([]int64, 0, len(args)-1)
	for _, raw := range args[1:] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}

	confirm := report.ConfirmFunc(func(prompt string) bool {
		if deleteYes {
			return true
		}
		cmd.Printf("%s [y/N]: ", prompt)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "ya" || answer == "yes"
	})

	ctx := context.Background()
	view := report.NewView(client, logger)
	view.Load(ctx, constants.ReportCategory(category))

	deleted, err := view.DeleteSelected(ctx, ids, confirm)
	if deleted > 0 {
		cmd.Printf("Berhasil menghapus %d data.\n", deleted)
	}
	return err
}
