// Command migrate applies the receipt and checkpoint schema to PostgreSQL.
//
// The target database comes from -dsn, then TALLY_DB_DSN, then the
// [database] section of config.toml with its TALLY_DB_* overrides.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/tally/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "TALLY_DB_DSN"

type options struct {
	dsn     string
	dir     string
	up      bool
	down    bool
	steps   int
	version bool
	force   int
	forced  bool
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal("env file load failed: ", err)
	}

	opts := parseFlags()
	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.dsn, "dsn", "", "database URL (overrides config)")
	flag.StringVar(&o.dir, "config", ".", "directory holding config.toml")
	flag.BoolVar(&o.up, "up", false, "apply all pending migrations")
	flag.BoolVar(&o.down, "down", false, "revert all migrations")
	flag.IntVar(&o.steps, "steps", 0, "apply N migrations (negative reverts)")
	flag.BoolVar(&o.version, "version", false, "print the current schema version")
	flag.IntVar(&o.force, "force", -1, "mark the schema as VERSION without running it")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			o.forced = true
		}
	})
	return o
}

func resolveDSN(o options) (string, error) {
	if o.dsn != "" {
		return o.dsn, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}
	db, err := config.LoadDatabase(o.dir)
	if err != nil {
		return "", err
	}
	return db.URL(), nil
}

func run(o options) error {
	if !o.up && !o.down && !o.version && !o.forced && o.steps == 0 {
		fmt.Fprintln(os.Stderr, "usage: migrate [-dsn URL] [-config DIR] -up|-down|-steps N|-version|-force N")
		flag.PrintDefaults()
		return nil
	}

	dsn, err := resolveDSN(o)
	if err != nil {
		return fmt.Errorf("resolve database: %w", err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	switch {
	case o.version:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("version: none")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case o.forced:
		if err := m.Force(o.force); err != nil {
			return fmt.Errorf("force version %d: %w", o.force, err)
		}
		fmt.Printf("forced to version %d\n", o.force)
	case o.up:
		return report(m.Up(), "schema up to date")
	case o.down:
		return report(m.Down(), "schema reverted")
	default:
		return report(m.Steps(o.steps), fmt.Sprintf("applied %d steps", o.steps))
	}
	return nil
}

func report(err error, done string) error {
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Println("no change")
	case err != nil:
		return err
	default:
		fmt.Println(done)
	}
	return nil
}
