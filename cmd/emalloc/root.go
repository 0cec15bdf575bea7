package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ericrobbins/emalloc/internal/logger"
)

const envPrefix = "EMALLOC"

var (
	// Global flags
	cfgFile   string
	verbose   bool
	quiet     bool
	jsonOut   bool
	logLevel  string
	logFormat string
	locale    string

	// numbers formats integers for the selected locale.
	numbers = message.NewPrinter(language.English)
)

var rootCmd = &cobra.Command{
	Use:   "emalloc",
	Short: "Exercise power-of-two tracked buffers",
	Long: `emalloc drives the tracked buffer allocator from the command line.
It runs the growth self-test, shows how sizes round to capacities, and
reports allocator statistics.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./emalloc.yaml or $HOME/.emalloc.yaml)")
	pf.BoolP("verbose", "v", false, "Enable verbose output")
	pf.BoolP("quiet", "q", false, "Suppress all output except errors")
	pf.Bool("json", false, "Output in JSON format")
	pf.String("log-level", "warn", "Log level: debug, info, warn, error")
	pf.String("log-format", string(logger.FormatText), "Log format: text or json")
	pf.String("locale", "en", "Locale used to format numbers")

	for _, name := range []string{"verbose", "quiet", "json", "log-level", "log-format", "locale"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}
}

// initConfig reads the config file and EMALLOC_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("emalloc")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			printError("reading config %s: %v\n", cfgFile, err)
		}
	}
}

// setup resolves global settings once flags, config and environment are merged.
func setup(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	verbose = viper.GetBool("verbose")
	quiet = viper.GetBool("quiet")
	jsonOut = viper.GetBool("json")
	logLevel = viper.GetString("log-level")
	logFormat = viper.GetString("log-format")
	locale = viper.GetString("locale")

	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	numbers = message.NewPrinter(tag)

	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Options{
		Enabled: true,
		Level:   level,
		Format:  logger.Format(logFormat),
		Writer:  os.Stderr,
	}); err != nil {
		return err
	}

	if used := viper.ConfigFileUsed(); used != "" {
		printVerbose("Using config file: %s\n", used)
	}
	return nil
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// num formats n with the locale's digit grouping.
func num(n uint) string {
	return numbers.Sprintf("%d", n)
}
