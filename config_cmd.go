package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# voices API the picker reads from
endpoint: "http://localhost:3000"
# voices_path: "/api/voices"
# styles_path: "/api/voice-styles"

# how long a saved voice list stays fresh
cache_duration: 24h
# saved lists written under another version are ignored
schema_version: "1.1"
# upper bound for each request to the voices API
fetch_timeout: 30s
# minimum spacing between voice list downloads (0 disables)
min_refresh_interval: 0s

storage:
  # disk, memory, nats or none
  backend: "disk"
  # dir: "~/.cache/prosodify"
  # zstd level for saved lists (0 disables compression)
  compression_level: 3
  nats:
    url: "nats://127.0.0.1:4222"
    bucket: "prosodify"

# prosodify serve
server:
  addr: ":3000"
  # how long an Azure voice list is reused
  cache_ttl: 1h
  locale_prefix: "en-"
  voice_type: "Neural"
  # azure:
  #   key: ""      # or AZURE_SPEECH_KEY
  #   region: ""   # or AZURE_SPEECH_REGION

log:
  # debug, info, warn or error
  level: "info"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the prosodify config file",
	Long:    paragraph(fmt.Sprintf("\n%s the prosodify config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("prosodify config\nprosodify config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		// the file may be invalid; that is what this command is for
		return nil
	},
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Prosodify", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if configFile == "" {
			return errors.New("no config file location")
		}
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
