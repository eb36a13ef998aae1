// Package cli implements the rescuectl command surface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tracerat/rescuectl/internal/api"
	"github.com/tracerat/rescuectl/internal/config"
	"github.com/tracerat/rescuectl/internal/observability"
)

// Version is set at build time.
var Version = "dev"

// JSONOutput wraps replies in an {ok, data} object (default is raw reply).
var JSONOutput bool

var (
	cfgPath    string
	flagHost   string
	flagToken  string
	flagPlain  bool
	flagAPIVer string
	flagWait   int
)

var rootCmd = &cobra.Command{
	Use:           "rescuectl",
	Short:         "Push rescue case updates to the dispatch API",
	Long:          "rescuectl talks to the rescue dispatch API over a persistent WebSocket connection, correlating each reply back to the call that requested it.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "Path to a YAML config file")
	pf.StringVar(&flagHost, "host", "", "API hostname (overrides config)")
	pf.StringVar(&flagToken, "token", "", "Bearer token (overrides config)")
	pf.BoolVar(&flagPlain, "plaintext", false, "Use ws:// instead of wss://")
	pf.StringVar(&flagAPIVer, "api-version", "", "API version to declare: v2.0 or v2.1")
	pf.IntVar(&flagWait, "timeout", 0, "Reply timeout in seconds")
	pf.BoolVar(&JSONOutput, "json", false, "Wrap output in an {ok, data} object")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig merges the config file with command-line overrides and
// validates the result. A missing token is prompted for on a TTY.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return cfg, err
		}
	}

	if flagHost != "" {
		cfg.Hostname = flagHost
	}
	if flagToken != "" {
		cfg.Token = flagToken
	}
	if cmd.Flags().Changed("plaintext") {
		cfg.Plaintext = flagPlain
	}
	if flagAPIVer != "" {
		cfg.APIVersion = flagAPIVer
	}
	if flagWait > 0 {
		cfg.TimeoutSeconds = flagWait
	}

	if cfg.Token == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		token, err := promptToken()
		if err != nil {
			return cfg, err
		}
		cfg.Token = token
	}

	return cfg, cfg.Validate()
}

// promptToken reads a bearer token without echoing it.
func promptToken() (string, error) {
	fmt.Fprint(os.Stderr, "API token (empty for none): ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// newHandler builds the versioned handler for the configured API version.
func newHandler(cfg config.Config) (*api.Handler, error) {
	logger := observability.NewLogger("rescuectl")
	acfg := api.Config{
		Hostname:     cfg.Hostname,
		Token:        cfg.Token,
		Plaintext:    cfg.Plaintext,
		ReplyTimeout: cfg.ReplyTimeout(),
		Logger:       &logger,
	}
	switch cfg.APIVersion {
	case api.VersionV20:
		return api.NewHandlerV20(acfg), nil
	case api.VersionV21:
		return api.NewHandlerV21(acfg), nil
	default:
		return nil, fmt.Errorf("unsupported api version %q", cfg.APIVersion)
	}
}

// outputReply writes the API reply to stdout. Pretty prints on a TTY.
func outputReply(reply json.RawMessage) error {
	if JSONOutput {
		return outputJSON(os.Stdout, map[string]any{"ok": true, "data": reply})
	}
	return outputJSON(os.Stdout, reply)
}

// outputJSON writes a JSON value to the given writer.
func outputJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if term.IsTerminal(int(os.Stdout.Fd())) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

// PrintError writes an error to stderr, colored when appropriate.
func PrintError(err error) {
	if JSONOutput {
		_ = outputJSON(os.Stderr, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	if shouldUseColor() {
		color.New(color.FgRed).Fprint(os.Stderr, "Error:")
		fmt.Fprintf(os.Stderr, " %s\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// shouldUseColor determines if color output should be used.
func shouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
