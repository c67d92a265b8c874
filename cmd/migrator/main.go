package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/quiz-studio/internal/config"
	"github.com/gokatarajesh/quiz-studio/internal/db/migrations"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load("configs/.env")
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "migrator",
		Short:         "Apply the embedded quiz schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		providerCmd("up", "Apply all pending migrations", func(ctx context.Context, p *goose.Provider) error {
			results, err := p.Up(ctx)
			if err != nil {
				return err
			}
			log.Info().Int("applied", len(results)).Msg("migrations applied successfully")
			return nil
		}),
		providerCmd("down", "Roll back the most recent migration", func(ctx context.Context, p *goose.Provider) error {
			result, err := p.Down(ctx)
			if err != nil {
				return err
			}
			if result != nil && result.Source != nil {
				log.Info().Int64("version", result.Source.Version).Msg("migration rolled back successfully")
			}
			return nil
		}),
		providerCmd("status", "Print the state of every migration", func(ctx context.Context, p *goose.Provider) error {
			statuses, err := p.Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				fmt.Printf("%-8s %-40s %s\n", s.State, s.Source.Path, s.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		}),
	)
	return cmd
}

func providerCmd(use, short string, run func(context.Context, *goose.Provider) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			var pg config.Postgres
			if err := config.LoadSection(&pg); err != nil {
				return err
			}

			db, err := sql.Open("pgx", pg.DSN())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			ctx := cmd.Context()
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}
			log.Info().Str("host", pg.Host).Int("port", pg.Port).Str("database", pg.Database).Msg("connected to database")

			p, err := migrations.NewProvider(db)
			if err != nil {
				return err
			}
			return run(ctx, p)
		},
	}
}
