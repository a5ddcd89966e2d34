// The migrate CLI manages the polisgate postgres schema: the permission
// catalog, role and assignment tables, authority records and the audit
// trail. It reads the same .env.<env> configuration as the server.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/polisgate/polisgate/internal/infrastructure/config"
	"github.com/polisgate/polisgate/internal/infrastructure/database"
)

const migrationsDir = "internal/infrastructure/database/migrations/postgres"

type migrateApp struct {
	env string
	pg  *database.Postgres
	mig *migrate.Migrate
}

func main() {
	app := &migrateApp{}

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the polisgate database schema",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.connect()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
	}
	root.PersistentFlags().StringVarP(&app.env, "env", "e", "dev", "environment (.env.<env> file to load)")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.mig.Up(); err != nil {
					if errors.Is(err, migrate.ErrNoChange) {
						cmd.Println("schema already up to date")
						return nil
					}
					return fmt.Errorf("migrate up: %w", err)
				}
				cmd.Println("schema migrated")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("steps must be a positive integer, got %q", args[0])
					}
					steps = n
				}
				if err := app.mig.Steps(-steps); err != nil {
					if errors.Is(err, migrate.ErrNoChange) {
						cmd.Println("nothing to roll back")
						return nil
					}
					return fmt.Errorf("migrate down: %w", err)
				}
				cmd.Printf("rolled back %d migration(s)\n", steps)
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				version, dirty, err := app.mig.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					cmd.Println("no migrations applied yet")
					return nil
				}
				if err != nil {
					return fmt.Errorf("read schema version: %w", err)
				}
				if dirty {
					cmd.Printf("version %d (dirty: last migration failed, repair with force)\n", version)
				} else {
					cmd.Printf("version %d\n", version)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Override the recorded schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("version must be an integer, got %q", args[0])
				}
				if err := app.mig.Force(version); err != nil {
					return fmt.Errorf("force version: %w", err)
				}
				cmd.Printf("schema version forced to %d\n", version)
				return nil
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect loads configuration, opens the database and prepares the
// migrate instance against the project's migrations directory.
func (a *migrateApp) connect() error {
	if err := config.InitConfig(a.env); err != nil {
		return fmt.Errorf("init config for env %q: %w", a.env, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a.pg, err = database.NewPostgres(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	driver, err := database.NewMigrateDriver(a.pg.DB)
	if err != nil {
		a.close()
		return err
	}

	path, err := migrationsPath()
	if err != nil {
		a.close()
		return err
	}
	a.mig, err = migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		a.close()
		return fmt.Errorf("create migrate instance: %w", err)
	}
	return nil
}

// close tears down whatever connect managed to build. Closing the migrate
// instance closes the underlying database connection with it.
func (a *migrateApp) close() {
	if a.mig != nil {
		a.mig.Close()
		a.mig = nil
		a.pg = nil
		return
	}
	if a.pg != nil {
		a.pg.Close()
		a.pg = nil
	}
}

// migrationsPath locates the migrations directory relative to the module
// root, so the CLI works from any subdirectory of a checkout.
func migrationsPath() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, migrationsDir), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above %s; run from inside the repository", dir)
		}
		dir = parent
	}
}
