package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/fixedrec/pkg/config"
	"github.com/ssargent/fixedrec/pkg/di"
	"github.com/ssargent/fixedrec/pkg/logging"
	"github.com/ssargent/fixedrec/pkg/store"
)

// skipStore marks commands that run without opening the store
const skipStore = "skip-store"

var container *di.Container

// SetContainer injects the dependency container used by every command
func SetContainer(c *di.Container) {
	container = c
}

type envKey struct{}

// env is the per-invocation state built by the root command
type env struct {
	configPath string
	cfg        *config.Config
	logger     *logging.Logger
	store      *store.Store
}

func envFrom(cmd *cobra.Command) (*env, error) {
	e, ok := cmd.Context().Value(envKey{}).(*env)
	if !ok {
		return nil, fmt.Errorf("command environment not initialized")
	}
	return e, nil
}

// storeFrom returns the open store for cmd
func storeFrom(cmd *cobra.Command) (*store.Store, error) {
	e, err := envFrom(cmd)
	if err != nil {
		return nil, err
	}
	if e.store == nil {
		return nil, fmt.Errorf("store not opened for %s", cmd.Name())
	}
	return e.store, nil
}

// app owns the store opened for one command tree
type app struct {
	env *env
}

// close releases the store if a command opened one
func (a *app) close() error {
	if a.env == nil || a.env.store == nil {
		return nil
	}
	err := a.env.store.Close()
	a.env.store = nil
	return err
}

// NewRootCommand builds the fixedrec command tree
func NewRootCommand() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "fixedrec",
		Short: "fixedrec - fixed-layout instrument record store",
		Long: `fixedrec stores 30-byte instrument records in a slab of fixed-size slots,
optionally memory-mapped, with securityId, cusip and enabled indexes kept
current on every write.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return a.close() },
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to config file (default: OS-specific location)")
	flags.StringP("data-dir", "d", "", "Data directory for the store")
	flags.Int("capacity", 0, "Number of record slots")
	flags.Bool("mmap", true, "Memory-map the slab file")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text, json or none")

	root.AddCommand(
		newInitCmd(),
		newPutCmd(),
		newGetCmd(),
		newDeleteCmd(),
		newListCmd(),
		newQueryCmd(),
		newStatsCmd(),
		newCheckpointCmd(),
		newExportCmd(),
		newImportCmd(),
		newServeCmd(),
		newServiceCmd(),
	)
	return root, a
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	root, a := newRootCommand()
	err := root.Execute()
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
		root.PrintErrln("Error:", err)
	}
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file if present and applies flag overrides
func loadConfig(cmd *cobra.Command) (string, *config.Config, error) {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return "", nil, err
		}
		cfg = loaded
	}

	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("capacity") {
		cfg.Store.Capacity, _ = flags.GetInt("capacity")
	}
	if flags.Changed("mmap") {
		cfg.Store.Mmap, _ = flags.GetBool("mmap")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format, _ = flags.GetString("log-format")
	}
	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}
	return configPath, cfg, nil
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	configPath, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	e := &env{configPath: configPath, cfg: cfg, logger: logger}
	if cmd.Annotations[skipStore] == "" {
		if container == nil {
			container = di.NewContainer()
		}
		opener := container.GetStoreFactory().CreateStoreOpener()
		s, recovery, err := opener.OpenStore(ctx, cfg.StoreConfig(logger))
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		if recovery.SlotsSkipped > 0 {
			cmd.PrintErrf("Recovered store: %d damaged slots cleared\n", recovery.SlotsSkipped)
		}
		e.store = s
	}

	a.env = e
	cmd.SetContext(context.WithValue(ctx, envKey{}, e))
	return nil
}
