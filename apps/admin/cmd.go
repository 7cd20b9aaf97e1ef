package main

import (
	"context"
	"fmt"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/schoolsite/core"
	"github.com/trezcool/schoolsite/core/account"
	"github.com/trezcool/schoolsite/core/crud"
	"github.com/trezcool/schoolsite/core/school"
	"github.com/trezcool/schoolsite/storage/database"
	"github.com/trezcool/schoolsite/storage/supabase"
)

var (
	// mockable
	readPasswordFunc = term.ReadPassword
	openDBFunc       = database.Open
	migrateFunc      = database.RunMigrations

	errEmptyPassword = errors.New("password must not be empty")
	errNoStorage     = errors.New("the memory backend keeps nothing to seed")
)

const seedAll = "all"

type commandLine struct {
	conf   *core.Config
	logger core.Logger

	// gateways returns the school gateways of the configured backend.
	gateways func(ctx context.Context) (school.Gateways, func() error, error)
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "admin",
		Short:        "School website administration",
		SilenceUsage: true,
	}
	root.AddCommand(cli.migrateCmd(), cli.seedCmd(), cli.hashPasswordCmd())
	return root
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run database migrations (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := cli.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			return migrateFunc(cmd.Context(), db, args[0], args[1:]...)
		},
	}
}

func (cli *commandLine) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "seed ENTITY|all",
		Short:     "Insert the sample " + strings.Join(school.Slugs, ", ") + " through the configured backend",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: append([]string{seedAll}, school.Slugs...),
		RunE: func(cmd *cobra.Command, args []string) error {
			slugs := []string{args[0]}
			if args[0] == seedAll {
				slugs = school.Slugs
			}

			gws, closeFn, err := cli.gatewaysFunc()(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			entities := school.Entities(gws, school.Options{})
			for _, slug := range slugs {
				n, err := seed(cmd.Context(), entities[slug])
				if err != nil {
					return errors.Wrapf(err, "seeding %s", slug)
				}
				cmd.Printf("%s: %d record(s) created\n", slug, n)
			}
			return nil
		},
	}
}

func (cli *commandLine) hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hashpassword",
		Short: "Prompt for a password and print its hash for ADMIN_PASSWORDHASH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Print("Enter password:")
			pwd, err := readPasswordFunc(int(syscall.Stdin))
			cmd.Println()
			if err != nil {
				return errors.Wrap(err, "reading password")
			}
			if len(pwd) == 0 {
				return errEmptyPassword
			}
			hash, err := account.HashPassword(string(pwd))
			if err != nil {
				return errors.Wrap(err, "hashing password")
			}
			cmd.Println(hash)
			return nil
		},
	}
}

// seed creates the samples of ent. Ids are assigned by the backend.
func seed(ctx context.Context, ent crud.Entity) (int, error) {
	var n int
	for _, rec := range ent.Samples {
		if _, err := ent.Gateway.Create(ctx, crud.Payload(ent.Schema, rec)); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (cli *commandLine) openDB() (*sqlx.DB, error) {
	conf := *cli.conf
	if b := conf.Gateway.Backend; b == core.BackendPostgres || b == core.BackendSQLite {
		conf.Database.Engine = b
	}
	db, err := openDBFunc(&conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	return db, nil
}

func (cli *commandLine) gatewaysFunc() func(ctx context.Context) (school.Gateways, func() error, error) {
	if cli.gateways != nil {
		return cli.gateways
	}
	return cli.openGateways
}

func (cli *commandLine) openGateways(ctx context.Context) (school.Gateways, func() error, error) {
	switch cli.conf.Gateway.Backend {
	case core.BackendSupabase:
		client := supabase.NewClient(cli.conf.Supabase)
		return supabase.NewGateways(client), func() error { return nil }, nil

	case core.BackendPostgres, core.BackendSQLite:
		db, err := cli.openDB()
		if err != nil {
			return school.Gateways{}, nil, err
		}
		if err = database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return school.Gateways{}, nil, errors.Wrap(err, "migrating database")
		}
		if err = database.NewDepartmentRepository(db).Seed(ctx, school.SampleDepartments()...); err != nil {
			_ = db.Close()
			return school.Gateways{}, nil, err
		}
		cli.logger.Info(fmt.Sprintf("seeding %s database", cli.conf.Gateway.Backend))
		return database.NewGateways(db), db.Close, nil
	}
	return school.Gateways{}, nil, errNoStorage
}
