// Package main provides the entry point for the prosodify CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prosodify/prosodify/internal/config"
	"github.com/prosodify/prosodify/internal/storage"
	"github.com/prosodify/prosodify/internal/voicecache"
	"github.com/prosodify/prosodify/internal/voicesource"
	"github.com/prosodify/prosodify/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	locale     string
	mouse      bool

	cfg     config.Config
	store   *voicecache.Store
	backend storage.Backend

	rootCmd = &cobra.Command{
		Use:   "prosodify",
		Short: "Pick text-to-speech voices, even offline",
		Long: paragraph(
			fmt.Sprintf("\nBrowse text-to-speech voices and their speaking styles, %s.", keyword("cached for offline use")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return closeStore()
		},
		RunE: runPicker,
	}
)

func loadConfig(cmd *cobra.Command) error {
	switch {
	case cmd.Flags().Changed("config"):
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	case viper.ConfigFileUsed() == "" && configFile != "":
		// freshly written default config
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			log.Debug("Could not read default configuration", "path", configFile, "err", err)
		}
	}

	var err error
	cfg, err = config.LoadFromViper(viper.GetViper())
	if err != nil {
		return err
	}

	level, _ := log.ParseLevel(cfg.Log.Level)
	if debug || viper.GetBool("debug") {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	return nil
}

// openStore builds the process-wide voice store on first use.
func openStore() (*voicecache.Store, error) {
	if store != nil {
		return store, nil
	}

	st, err := storage.Open(cfg.StorageOptions(), log.WithPrefix("storage"))
	if err != nil {
		return nil, fmt.Errorf("unable to open storage: %w", err)
	}
	backend = st

	src := voicesource.New(cfg.Endpoint,
		voicesource.WithPaths(cfg.VoicesPath, cfg.StylesPath),
		voicesource.WithMinInterval(cfg.MinRefreshInterval),
		voicesource.WithLogger(log.WithPrefix("voicesource")),
	)

	opts := []voicecache.Option{
		voicecache.WithSource(src),
		voicecache.WithCacheDuration(cfg.CacheDuration),
		voicecache.WithVersion(cfg.SchemaVersion),
		voicecache.WithFetchTimeout(cfg.FetchTimeout),
		voicecache.WithLogger(log.WithPrefix("voicecache")),
	}
	if st != nil {
		opts = append(opts, voicecache.WithStorage(st))
	}

	store = voicecache.Init(opts...)
	return store, nil
}

func closeStore() error {
	if backend == nil {
		return nil
	}
	err := backend.Close()
	backend = nil
	if err != nil && !errors.Is(err, storage.ErrClosed) {
		return fmt.Errorf("unable to close storage: %w", err)
	}
	return nil
}

func runPicker(*cobra.Command, []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	uiCfg, err := ui.LoadConfig()
	if err != nil {
		return err
	}
	uiCfg.Locale = locale
	uiCfg.EnableMouse = mouse

	sel, err := ui.NewProgram(uiCfg, store).Run()
	if err != nil {
		return fmt.Errorf("unable to run picker: %w", err)
	}
	if !sel.Chosen {
		return nil
	}

	fmt.Printf("%s\t%s\n", sel.Voice.ID, sel.Style)
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closeStore()
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", configFile, "config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "only show voices whose locale starts with this, e.g. en- or de-DE")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel")
	_ = rootCmd.Flags().MarkHidden("mouse")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(voicesCmd, stylesCmd, cacheCmd, serveCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "prosodify")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "prosodify")}, dirs...)
	}

	if c := os.Getenv("PROSODIFY_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("prosodify")
	viper.SetConfigType("yaml")
	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		configFile = used
		return
	}

	configFile = filepath.Join(dirs[0], "prosodify.yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
