package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/hlspan/internal/config"
	"github.com/zjrosen/hlspan/internal/log"
	"github.com/zjrosen/hlspan/internal/paths"
)

var (
	version    = "dev"
	cfgFile    string
	debugFlag  bool
	cfg        config.Config
	configErr  error
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "hlspan [source-file]",
	Short: "Highlight token spans inside their source lines",
	Long: `Highlights text spans in source code, one table row per span.

If a file path is provided, the source is read from the file. Otherwise it is
read from stdin until a delimiter line of 10 or more '=' characters.

After the source, spans are read from stdin, one per line:

    <start> <end> [token_name]

where start and end are character indices (or byte offsets with --bytes).

Examples:
  # Source from a file, spans from a lexer
  mylexer main.ml | hlspan main.ml

  # Everything on stdin
  printf 'let x = 1\n==========\n4 5 Ident\n' | hlspan

  # Use the built-in example lexer and redraw on every save
  hlspan --lex --watch prog.mini`,
	Version:           version,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	RunE:              runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/hlspan/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log (path from HLSPAN_LOG, default debug.log)")

	// Rendering flags are persistent so subcommands such as demo accept them.
	flags := rootCmd.PersistentFlags()
	flags.BoolP("bytes", "b", false, "interpret span input as byte offsets instead of character indices")
	flags.IntP("tab-width", "t", 4, "tab size used when rendering source")
	flags.StringP("separator", "s", "lf", `line separator: lf, crlf (lowercase aliases), or a literal such as '\r\n'`)
	flags.Bool("show-span", false, "add a start..end column")
	flags.Bool("show-line", false, "add a line number column")
	flags.Int("max-width", 0, "truncate rendered lines to this width (0 = no limit)")
	flags.String("color", config.ColorAuto, "color output: auto, always, or never")
	flags.Bool("skip-invalid", false, "skip malformed span lines instead of aborting")

	rootCmd.Flags().Bool("lex", false, "tokenize the source with the built-in example lexer instead of reading spans")
	rootCmd.Flags().BoolP("watch", "w", false, "redraw the table whenever the source file changes")

	// Bind flags to viper
	_ = viper.BindPFlag("bytes", flags.Lookup("bytes"))
	_ = viper.BindPFlag("tab_width", flags.Lookup("tab-width"))
	_ = viper.BindPFlag("separator", flags.Lookup("separator"))
	_ = viper.BindPFlag("show_span", flags.Lookup("show-span"))
	_ = viper.BindPFlag("show_line", flags.Lookup("show-line"))
	_ = viper.BindPFlag("max_width", flags.Lookup("max-width"))
	_ = viper.BindPFlag("color", flags.Lookup("color"))
	_ = viper.BindPFlag("skip_invalid", flags.Lookup("skip-invalid"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("tab_width", defaults.TabWidth)
	viper.SetDefault("separator", defaults.Separator)
	viper.SetDefault("bytes", defaults.Bytes)
	viper.SetDefault("show_span", defaults.ShowSpan)
	viper.SetDefault("show_line", defaults.ShowLine)
	viper.SetDefault("max_width", defaults.MaxWidth)
	viper.SetDefault("color", defaults.Color)
	viper.SetDefault("skip_invalid", defaults.SkipInvalid)
	viper.SetDefault("theme.foreground", defaults.Theme.Foreground)
	viper.SetDefault("theme.background", defaults.Theme.Background)
	viper.SetDefault("theme.border", defaults.Theme.Border)

	viper.SetEnvPrefix("HLSPAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config lookup order:
	// 1. --config flag
	// 2. .hlspan/config.yaml (current directory)
	// 3. ~/.config/hlspan/config.yaml (user config)
	if path, found := paths.ResolveConfig(cfgFile, "."); found {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			configErr = fmt.Errorf("reading config: %w", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil && configErr == nil {
		configErr = fmt.Errorf("decoding config: %w", err)
	}
}

// setupLogging initializes the debug log when --debug or HLSPAN_DEBUG is set.
func setupLogging(_ *cobra.Command, _ []string) error {
	debug := os.Getenv("HLSPAN_DEBUG") != "" || debugFlag
	if debug {
		logPath := os.Getenv("HLSPAN_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}

		cleanup, err := log.Init(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		logCleanup = cleanup

		log.Info(log.CatConfig, "hlspan starting", "version", version, "config", viper.ConfigFileUsed())
	}

	return configErr
}

func runRoot(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	applyColorMode(cfg.Color)

	lex, _ := cmd.Flags().GetBool("lex")
	watch, _ := cmd.Flags().GetBool("watch")
	opts := runOptions{Lex: lex, Watch: watch}
	if len(args) == 1 {
		opts.SourcePath = args[0]
	}

	return run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, opts)
}

// applyColorMode forces or disables color output. "auto" keeps the terminal
// detection lipgloss performs on stdout.
func applyColorMode(mode string) {
	switch mode {
	case config.ColorAlways:
		lipgloss.SetColorProfile(termenv.TrueColor)
	case config.ColorNever:
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Execute runs the root command
func Execute() error {
	defer func() {
		if logCleanup != nil {
			logCleanup()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
