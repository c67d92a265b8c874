// Package cli holds the quizctl command tree for working with the local
// Redis mirror.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/quiz-studio/internal/client"
	"github.com/gokatarajesh/quiz-studio/internal/config"
	"github.com/gokatarajesh/quiz-studio/internal/domain"
	"github.com/gokatarajesh/quiz-studio/internal/mirror"
	"github.com/gokatarajesh/quiz-studio/internal/quiz"
	"github.com/gokatarajesh/quiz-studio/internal/trivia"
)

type rootOptions struct {
	redis  config.Redis
	mirror config.Mirror
	logger zerolog.Logger
}

// Execute runs quizctl with process arguments.
func Execute(logger zerolog.Logger) error {
	cmd, err := NewRootCmd(logger)
	if err != nil {
		return err
	}
	return cmd.Execute()
}

// NewRootCmd builds the quizctl command tree. Flag defaults come from the
// REDIS_* and MIRROR_* environment variables.
func NewRootCmd(logger zerolog.Logger) (*cobra.Command, error) {
	opts := &rootOptions{logger: logger}
	if err := config.LoadSection(&opts.redis); err != nil {
		return nil, err
	}
	if err := config.LoadSection(&opts.mirror); err != nil {
		return nil, err
	}
	if opts.redis.Addr == "" {
		opts.redis.Addr = "localhost:6379"
	}

	cmd := &cobra.Command{
		Use:           "quizctl",
		Short:         "Sync and browse the local quiz mirror",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.redis.Addr, "redis-addr", opts.redis.Addr, "redis address holding the mirror")
	cmd.PersistentFlags().StringVar(&opts.mirror.KeyPrefix, "prefix", opts.mirror.KeyPrefix, "mirror key prefix")

	cmd.AddCommand(newSyncCmd(opts))
	cmd.AddCommand(newQuizzesCmd(opts))
	cmd.AddCommand(newResultsCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newImportCmd())
	return cmd, nil
}

// open connects to the mirror; the returned func releases the connection.
func (o *rootOptions) open() (*mirror.Store, func(), error) {
	if o.redis.Addr == "" {
		return nil, nil, fmt.Errorf("redis address is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     o.redis.Addr,
		Password: o.redis.Password,
		DB:       o.redis.DB,
	})
	store := mirror.New(rdb, mirror.WithKeyPrefix(o.mirror.KeyPrefix))
	return store, func() { _ = rdb.Close() }, nil
}

func newSyncCmd(opts *rootOptions) *cobra.Command {
	var apiURL, username, password string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull the account's quizzes and results from the API into the mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("QUIZ_PASSWORD")
			}
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password (or QUIZ_PASSWORD) are required")
			}

			store, done, err := opts.open()
			if err != nil {
				return err
			}
			defer done()

			api := client.New(apiURL, nil)
			if _, err := api.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			report, err := mirror.NewSyncer(store, api, opts.logger).Pull(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d quizzes and %d results for %s in %s\n",
				report.Quizzes, report.Results, username, report.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080/api", "API base URL")
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newQuizzesCmd(opts *rootOptions) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "quizzes",
		Short: "List mirrored quizzes, public ones by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := opts.open()
			if err != nil {
				return err
			}
			defer done()

			ctx := cmd.Context()
			var quizzes []domain.Quiz
			if owner == "" {
				quizzes, err = store.ListPublicQuizzes(ctx)
			} else {
				var u domain.User
				if u, err = store.GetUserByUsername(ctx, owner); err != nil {
					return fmt.Errorf("lookup %q: %w", owner, err)
				}
				quizzes, err = store.ListQuizzesByOwner(ctx, u.ID)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), quizzes)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "list every quiz authored by this username")
	return cmd
}

func newResultsCmd(opts *rootOptions) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List a user's mirrored results, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := opts.open()
			if err != nil {
				return err
			}
			defer done()

			u, err := store.GetUserByUsername(cmd.Context(), username)
			if err != nil {
				return fmt.Errorf("lookup %q: %w", username, err)
			}
			results, err := store.ListResultsByUser(cmd.Context(), u.ID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "username")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard figures computed from the mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := opts.open()
			if err != nil {
				return err
			}
			defer done()

			ctx := cmd.Context()
			u, err := store.GetUserByUsername(ctx, username)
			if err != nil {
				return fmt.Errorf("lookup %q: %w", username, err)
			}
			owned, err := store.ListQuizzesByOwner(ctx, u.ID)
			if err != nil {
				return err
			}
			results, err := store.ListResultsByUser(ctx, u.ID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), quiz.ComputeStats(owned, results))
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "username")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newImportCmd() *cobra.Command {
	var (
		apiURL, username, password string
		source, difficulty, apiKey string
		sourceURL                  string
		title, description         string
		amount                     int
		public                     bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create a quiz on the API from a public trivia source",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("QUIZ_PASSWORD")
			}
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password (or QUIZ_PASSWORD) are required")
			}

			var src trivia.Source
			switch source {
			case "opentdb":
				src = trivia.NewOpenTDBClient(sourceURL, nil)
			case "triviaapi":
				src = trivia.NewTriviaAPIClient(sourceURL, apiKey, nil)
			default:
				return fmt.Errorf("unknown trivia source %q", source)
			}

			ctx := cmd.Context()
			items, err := src.Fetch(ctx, amount, difficulty)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", source, err)
			}
			draft, err := trivia.BuildDraft(title, description, public, items, rand.New(rand.NewSource(time.Now().UnixNano())))
			if err != nil {
				return err
			}

			api := client.New(apiURL, nil)
			if _, err := api.Login(ctx, username, password); err != nil {
				return err
			}
			q, err := api.CreateQuiz(ctx, draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created quiz %s with %d questions\n", q.ID, len(q.Questions))
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080/api", "API base URL")
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&source, "source", "opentdb", "trivia source: opentdb or triviaapi")
	cmd.Flags().StringVar(&sourceURL, "source-url", "", "override the trivia source base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("TRIVIA_API_KEY"), "key for triviaapi")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "easy, medium or hard")
	cmd.Flags().IntVar(&amount, "amount", 10, "number of questions to request")
	cmd.Flags().StringVar(&title, "title", "", "quiz title")
	cmd.Flags().StringVar(&description, "description", "", "quiz description")
	cmd.Flags().BoolVar(&public, "public", false, "list the quiz publicly")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
