package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prasetyadi/faktur-review/constants"
	"github.com/prasetyadi/faktur-review/internal/cache"
	"github.com/prasetyadi/faktur-review/internal/session"
)

var reviewSaveAll bool

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Resume the cached session and review its items",
	Long: `review restores the item list mirrored by the last process run, prints
each item with its validation state, and can retry saving what is still
unsaved or errored. Files are never restored; re-run process to add items.`,
	Args: cobra.NoArgs,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewSaveAll, "save-all", false, "save every unsaved or errored item after review output")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	if !cfg.Cache.Enabled {
		return fmt.Errorf("session cache is disabled (FAKTUR_CACHE_ENABLED=false)")
	}
	store, err := cache.NewStore(cfg.Cache.Dir)
	if err != nil {
		return fmt.Errorf("open session cache: %w", err)
	}
	defer store.Close()

	sess := session.New(constants.DomainFaktur, client, session.Options{
		Logger: logger,
		Store:  store,
		Notifier: session.NotifierFunc(func(level session.Level, message string) {
			cmd.Printf("[%s] %s\n", level, message)
		}),
	})
	return reviewSession(cmd, sess, reviewSaveAll)
}

func reviewSession(cmd *cobra.Command, sess *session.Session, saveAll bool) error {
	restored := sess.RestoreSnapshot()
	if restored == 0 {
		cmd.Println("Tidak ada sesi tersimpan.")
		return nil
	}
	cmd.Printf("Melanjutkan sesi: %d item.\n\n", restored)

	for i, item := range sess.Items() {
		printItem(cmd, i, item)
		if item.SaveError != "" {
			cmd.Printf("      ! gagal disimpan: %s\n", item.SaveError)
		}
		if v, err := sess.ValidateItem(item.ID); err == nil && !v.Valid() {
			for field, msg := range v.Errors {
				cmd.Printf("      ! %s: %s\n", field, msg)
			}
		}
	}

	if saveAll {
		return sess.SaveAll(context.Background())
	}
	return nil
}
