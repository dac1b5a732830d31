package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/citecheck/internal/model"
)

// Version is set at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "citecheck",
	Short: "Citecheck - verify the case citations in appellate briefs",
	Long: `Citecheck checks every case a brief cites against a local corpus of
authority texts.

It extracts each citation with its proposition, resolves it to an authority
file, checks the citation, year, court, and quotations mechanically, and asks
a language model to grade how well the authority supports the brief. The
report sorts every citation into accuracy issues, relevance gaps, advocacy
extensions, and critiques.

Citecheck is a reviewer's aid. Its verdicts need a lawyer's confirmation.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("citecheck %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.citecheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.citecheck")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CITECHECK_LLM_PROVIDER overrides llm.provider, and so on
	viper.SetEnvPrefix("CITECHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(model.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so that environment variables reach
// Unmarshal even when no config file mentions them
func setDefaults(cfg *model.Config) {
	viper.SetDefault("corpus.dir", cfg.Corpus.Dir)
	viper.SetDefault("corpus.header_bytes", cfg.Corpus.HeaderBytes)
	viper.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	viper.SetDefault("extraction.timeout", cfg.Extraction.Timeout)
	viper.SetDefault("extraction.model", cfg.Extraction.Model)
	viper.SetDefault("verification.timeout", cfg.Verification.Timeout)
	viper.SetDefault("verification.max_retries", cfg.Verification.MaxRetries)
	viper.SetDefault("verification.backoff", cfg.Verification.Backoff)
	viper.SetDefault("verification.second_pass", cfg.Verification.SecondPass)
	viper.SetDefault("verification.model", cfg.Verification.Model)
	viper.SetDefault("rate_limiting.requests_per_second", cfg.RateLimiting.RequestsPerSecond)
	viper.SetDefault("rate_limiting.burst_size", cfg.RateLimiting.BurstSize)
	viper.SetDefault("llm.provider", cfg.LLM.Provider)
	viper.SetDefault("llm.model", cfg.LLM.Model)
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.base_url", cfg.LLM.BaseURL)
	viper.SetDefault("llm.timeout", cfg.LLM.Timeout)
	viper.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)
	viper.SetDefault("llm.http_proxy", "")
	viper.SetDefault("llm.https_proxy", "")
	viper.SetDefault("llm.no_proxy", "")
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("cache.ttl", cfg.Cache.TTL)
	viper.SetDefault("output.path", cfg.Output.Path)
	viper.SetDefault("output.json_path", cfg.Output.JSONPath)
	viper.SetDefault("output.include_footer", cfg.Output.IncludeFooter)
}

// loadConfig merges defaults, config file, and environment
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	return cfg, nil
}

// setupLogging installs the default slog handler on stderr. Verbose output
// includes per-citation resolution and cache traffic.
func setupLogging() {
	level := slog.LevelInfo
	if verbose || viper.GetBool("output.verbose") {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
