package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prasetyadi/faktur-review/constants"
	"github.com/prasetyadi/faktur-review/internal/cache"
	"github.com/prasetyadi/faktur-review/internal/entity"
	"github.com/prasetyadi/faktur-review/internal/session"
)

var (
	processDomain  string
	processCompany string
	processSaveAll bool
	processNoCache bool
)

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Upload a batch of documents and review the extraction results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processDomain, "domain", string(constants.DomainFaktur), "processing domain (faktur|bukti_setor)")
	processCmd.Flags().StringVar(&processCompany, "pt", "", "company name used for input/output VAT classification (required for faktur)")
	processCmd.Flags().BoolVar(&processSaveAll, "save-all", false, "save every extracted item after review output")
	processCmd.Flags().BoolVar(&processNoCache, "no-cache", false, "skip mirroring the session to the local cache")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if !constants.IsValidDomain(processDomain) {
		return fmt.Errorf("unknown domain %q", processDomain)
	}

	opts := session.Options{
		CompanyName: processCompany,
		Logger:      logger,
		Notifier: session.NotifierFunc(func(level session.Level, message string) {
			cmd.Printf("[%s] %s\n", level, message)
		}),
	}
	if !processNoCache && cfg.Cache.Enabled {
		store, err := cache.NewStore(cfg.Cache.Dir)
		if err != nil {
			logger.Warn("cache.open_error", "error", err)
		} else {
			defer store.Close()
			opts.Store = store
		}
	}

	sess := session.New(constants.Domain(processDomain), client, opts)

	batch := sess.SelectFiles(args)
	for _, rej := range batch.Rejected {
		cmd.Printf("rejected: %s (%s)\n", rej.Path, rej.Reason)
	}
	if batch.Empty() {
		return fmt.Errorf("no acceptable files in selection")
	}

	ctx := context.Background()
	stats, err := sess.ProcessBatch(ctx)
	if err != nil {
		return err
	}

	cmd.Println()
	cmd.Printf("Files: %d  ok: %d  failed: %d  pages: %d\n", stats.Files, stats.Succeeded, stats.Failed, stats.Pages)
	for _, f := range sess.Failures() {
		cmd.Printf("  failed %s: %s\n", f.Path, f.Err)
	}

	cmd.Println()
	for i, item := range sess.Items() {
		printItem(cmd, i, item)
		if v, err := sess.ValidateItem(item.ID); err == nil && !v.Valid() {
			for field, msg := range v.Errors {
				cmd.Printf("      ! %s: %s\n", field, msg)
			}
		}
	}

	if processSaveAll {
		if err := sess.SaveAll(ctx); err != nil {
			return err
		}
	}
	return nil
}

func printItem(cmd *cobra.Command, i int, item *entity.ExtractionItem) {
	cmd.Printf("  [%d] %s p.%d  %s  (%s)\n", i+1, item.SourceFileName, item.PageNo, item.Classification, item.SaveState)
	for _, key := range []string{
		entity.FieldNoFaktur,
		entity.FieldTanggal,
		entity.FieldNamaLawan,
		entity.FieldNPWPLawan,
		entity.FieldDPP,
		entity.FieldPPN,
		entity.FieldKodeSetor,
		entity.FieldJumlah,
	} {
		if v := item.Field(key); v != "" {
			cmd.Printf("      %-22s %s\n", key, v)
		}
	}
}
