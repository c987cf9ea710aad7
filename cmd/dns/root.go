package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"namereg/internal/settings"
)

var (
	settingsFile string
	current      *app
)

var rootCmd = &cobra.Command{
	Use:           "dns",
	Short:         "Register human-readable names and resolve their services",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		current, err = openApp(cmd.Context(), s)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&settingsFile, "settings", "s", "",
		"settings file (default: built-in settings rooted at ~/.namereg)")
	rootCmd.PersistentFlags().String("home", "", "directory holding the identity and name configuration")
	rootCmd.PersistentFlags().String("discovery", "", "URL of the discovery service for the discovery backends")
	rootCmd.PersistentFlags().String("records-backend", "", "record store backend: memory, fs, badger, http or discovery")
	rootCmd.PersistentFlags().String("records-url", "", "URL of the records service for the http backend")
	rootCmd.PersistentFlags().String("storage-backend", "", "blob storage backend: memory, fs, s3, http or discovery")
	rootCmd.PersistentFlags().String("storage-url", "", "URL of the storage service for the http backend")
	rootCmd.PersistentFlags().String("log-level", "", "log level")

	_ = viper.BindPFlag("home", rootCmd.PersistentFlags().Lookup("home"))
	_ = viper.BindPFlag("discovery", rootCmd.PersistentFlags().Lookup("discovery"))
	_ = viper.BindPFlag("records.backend", rootCmd.PersistentFlags().Lookup("records-backend"))
	_ = viper.BindPFlag("records.url", rootCmd.PersistentFlags().Lookup("records-url"))
	_ = viper.BindPFlag("storage.backend", rootCmd.PersistentFlags().Lookup("storage-backend"))
	_ = viper.BindPFlag("storage.url", rootCmd.PersistentFlags().Lookup("storage-url"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.SetEnvPrefix("NAMEREG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		registerCmd,
		publishCmd,
		forgetCmd,
		deleteCmd,
		namesCmd,
		servicesCmd,
		addServiceCmd,
		removeServiceCmd,
		resolveCmd,
		browseCmd,
		keysCmd,
	)
}

// loadSettings reads the settings file, or the defaults, and applies flag and
// NAMEREG_* environment overrides.
func loadSettings() (*settings.Settings, error) {
	var s *settings.Settings
	if settingsFile != "" {
		loaded, err := settings.Load(settingsFile)
		if err != nil {
			return nil, err
		}
		s = loaded
	} else {
		s = settings.Default()
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		s.Expand(cwd)
	}

	for key, dst := range map[string]*string{
		"home":            &s.Home,
		"discovery":       &s.Discovery,
		"records.backend": &s.Records.Backend,
		"records.url":     &s.Records.URL,
		"storage.backend": &s.Storage.Backend,
		"storage.url":     &s.Storage.URL,
		"log.level":       &s.Log.Level,
	} {
		if v := viper.GetString(key); v != "" {
			*dst = settings.SubstituteString(v, "")
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
