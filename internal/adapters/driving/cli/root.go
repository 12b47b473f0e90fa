package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/suitetalk/internal/core/ports/driving"
)

var (
	// Version is set by main through SetVersion.
	version = "dev"

	// Global flags.
	verbose        bool
	profileName    string
	configPath     string
	concurrency    int
	continueOnFail bool
	outputFormat   string

	bootstrap         Bootstrap
	operationRegistry driving.OperationRegistry

	// active holds the services built for this invocation.
	active  *Services
	cleanup func()
)

// Options are the global flag values handed to Bootstrap.
type Options struct {
	Profile    string
	ConfigPath string
	Verbose    bool
	// OnAuthURL is called with the authorization URL during auth login.
	OnAuthURL func(authURL string)
}

// Services holds the service implementations for one profile.
type Services struct {
	Operations driving.OperationService
	Auth       driving.AuthService
	Profile    string
	// Concurrency and ContinueOnFail are the profile defaults; flags override them.
	Concurrency    int
	ContinueOnFail bool
}

// Bootstrap builds the services for the selected profile. The returned
// cleanup func releases anything opened for them.
type Bootstrap func(opts Options) (*Services, func(), error)

// SetBootstrap sets the function that builds services once flags are parsed.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetOperationRegistry sets the registry used by the operations command.
func SetOperationRegistry(r driving.OperationRegistry) {
	operationRegistry = r
}

// SetServices injects ready-made services, bypassing Bootstrap.
func SetServices(s *Services) {
	active = s
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "suitetalk",
	Short: "Run NetSuite REST operations from the command line",
	Long: `suitetalk runs record, SuiteQL and raw REST operations against a NetSuite account.

Each invocation reads input items, applies one operation per item and writes
one JSON object per output row. Accounts are configured as profiles in
~/.suitetalk/config.toml and authenticate with OAuth 1.0a token-based
authentication or OAuth 2.0.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is cancelled on interrupt by the caller.
func ExecuteContext(ctx context.Context) error {
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")
	flags.StringVarP(&profileName, "profile", "p", "", "profile to use (default: default_profile from the config file)")
	flags.StringVar(&configPath, "config", "", "config file (default: ~/.suitetalk/config.toml)")
	flags.IntVarP(&concurrency, "concurrency", "c", 0, "items processed in parallel (default: profile setting)")
	flags.BoolVar(&continueOnFail, "continue-on-fail", false, "emit {error} rows for failing items instead of stopping")
	flags.StringVarP(&outputFormat, "output", "o", "jsonl", "output format: jsonl or json")
}

// loadServices builds the services for the selected profile on first use.
func loadServices(cmd *cobra.Command) (*Services, error) {
	if active != nil {
		return active, nil
	}
	if bootstrap == nil {
		return nil, errors.New("services not configured")
	}

	errOut := cmd.ErrOrStderr()
	s, c, err := bootstrap(Options{
		Profile:    profileName,
		ConfigPath: configPath,
		Verbose:    verbose,
		OnAuthURL:  func(authURL string) { printAuthURL(errOut, authURL) },
	})
	if err != nil {
		return nil, err
	}
	active = s
	cleanup = c
	return s, nil
}

// batchOptions merges the profile defaults with explicit flags.
func batchOptions(cmd *cobra.Command, s *Services) driving.BatchOptions {
	opts := driving.BatchOptions{
		Concurrency:    s.Concurrency,
		ContinueOnFail: s.ContinueOnFail,
	}
	if cmd.Flags().Changed("concurrency") {
		opts.Concurrency = concurrency
	}
	if cmd.Flags().Changed("continue-on-fail") {
		opts.ContinueOnFail = continueOnFail
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return opts
}
