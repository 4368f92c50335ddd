package cli

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/aiwu-analytics/pkg/catalog"
	"github.com/platinummonkey/aiwu-analytics/pkg/observability"
	"github.com/platinummonkey/aiwu-analytics/pkg/storage"
	"github.com/platinummonkey/aiwu-analytics/pkg/storage/sqlstore"
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	driver      string
	dsn         string
	tablePrefix string
	fixture     string
	catalogPath string
	timezone    string
	logLevel    string
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "aiwu-statsctl",
		Short:         "Inspect AIWU plugin telemetry from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.driver, "driver", "mysql", "Database driver (mysql, postgres, sqlite3)")
	flags.StringVar(&opts.dsn, "dsn", "", "Database DSN")
	flags.StringVar(&opts.tablePrefix, "prefix", storage.DefaultConfig().TablePrefix, "WordPress table prefix")
	flags.StringVar(&opts.fixture, "fixture", "", "Read events from a JSON fixture instead of a database")
	flags.StringVar(&opts.catalogPath, "catalog", "", "YAML catalog file (default: built-in vocabulary)")
	flags.StringVar(&opts.timezone, "timezone", "UTC", "Time zone for day boundaries")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level")

	root.AddCommand(newReportCommand(opts))
	root.AddCommand(newCatalogCommand(opts))

	return root
}

func (o *globalOptions) logger(cmd *cobra.Command) *logrus.Logger {
	return observability.NewLogger(observability.ParseLevel(o.logLevel), observability.TextFormat, cmd.ErrOrStderr())
}

func (o *globalOptions) storageConfig() storage.Config {
	cfg := storage.DefaultConfig()
	cfg.Driver = o.driver
	cfg.DSN = o.dsn
	cfg.TablePrefix = o.tablePrefix
	if o.fixture != "" {
		cfg.Driver = "memory"
		cfg.FixturePath = o.fixture
	}
	return cfg
}

func (o *globalOptions) openStore() (storage.EventStore, error) {
	cfg := o.storageConfig()
	if cfg.Driver != "memory" && cfg.DSN == "" {
		return nil, fmt.Errorf("either --dsn or --fixture is required")
	}
	store, err := sqlstore.OpenEventStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}
	return store, nil
}

func (o *globalOptions) loadCatalog() (*catalog.Catalog, error) {
	if o.catalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(o.catalogPath)
}

func (o *globalOptions) location() (*time.Location, error) {
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", o.timezone, err)
	}
	return loc, nil
}
