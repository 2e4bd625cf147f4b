package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect or reset the saved voice list",
		Args:  cobra.NoArgs,
		RunE:  runCacheInfo,
	}

	cacheInfoCmd = &cobra.Command{
		Use:   "info",
		Short: "Show what is saved and when it expires",
		Args:  cobra.NoArgs,
		RunE:  runCacheInfo,
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved voice list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			store.ClearCache(cmd.Context())
			fmt.Println("Cleared saved voices.")
			return nil
		},
	}

	cacheRefreshCmd = &cobra.Command{
		Use:   "refresh",
		Short: "Download the voice list again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := loadVoices(cmd.Context(), true)
			if err != nil {
				return err
			}
			fmt.Printf("Saved %s voices.\n", humanize.Comma(int64(len(store.Voices()))))
			return nil
		},
	}
)

func init() {
	cacheCmd.AddCommand(cacheInfoCmd, cacheClearCmd, cacheRefreshCmd)
}

func runCacheInfo(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	fmt.Printf("Storage: %s\n", cfg.Storage.Backend)
	if cfg.Storage.Dir != "" {
		fmt.Printf("Directory: %s\n", cfg.Storage.Dir)
	}

	info, ok := store.CacheInfo(cmd.Context())
	if !ok {
		fmt.Println(faint("No saved voice list."))
		return nil
	}

	expires := info.CachedAt.Add(info.Age + info.ExpiresIn)
	fmt.Printf("Voices: %s\n", humanize.Comma(int64(info.VoiceCount)))
	fmt.Printf("Saved: %s (%s)\n", humanize.Time(info.CachedAt), info.CachedAt.Local().Format(time.DateTime))
	fmt.Printf("Version: %s\n", info.Version)
	if info.Expired {
		fmt.Println(warn("Expired " + humanize.Time(expires)))
	} else {
		fmt.Printf("Expires: %s\n", humanize.Time(expires))
	}
	return nil
}
