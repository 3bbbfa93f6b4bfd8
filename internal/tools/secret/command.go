package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/alokah-labs/superapp-backend/internal/config"
	"github.com/alokah-labs/superapp-backend/internal/database"
	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/security"
	"github.com/alokah-labs/superapp-backend/internal/tools/common"
	"github.com/alokah-labs/superapp-backend/internal/tools/ui"
)

type options struct {
	envFile string
	ci      bool
}

// NewRootCommand manages AUTH secrets from the operator's shell, for
// rotations that should not go through a logged-in super admin session.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "secret", Short: "AUTH secret tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newAddCommand(opts), newStatusCommand(opts))
	return cmd
}

func newAddCommand(opts *options) *cobra.Command {
	var value string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a new hashed AUTH secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "secret add", func(ctx context.Context) ([]string, error) {
				if len(strings.TrimSpace(value)) < 8 {
					return nil, fmt.Errorf("secret must be at least 8 characters")
				}
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				sqlDB, _ := db.DB()
				defer func() { _ = sqlDB.Close() }()

				hash, err := security.HashSecret(value)
				if err != nil {
					return nil, err
				}
				record := &domain.Secret{
					SecretHash: hash,
					Type:       domain.SecretTypeAuth,
					ExpiresAt:  time.Now().Add(cfg.AuthSecretTTL),
				}
				if err := db.WithContext(ctx).Create(record).Error; err != nil {
					return nil, err
				}
				return []string{
					"auth secret stored",
					"expires_at: " + record.ExpiresAt.Format(time.RFC3339),
				}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "secret add", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "secret plaintext")
	return cmd
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the latest AUTH secret's expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "secret status", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				sqlDB, _ := db.DB()
				defer func() { _ = sqlDB.Close() }()

				var record domain.Secret
				err = db.WithContext(ctx).
					Where("type = ?", domain.SecretTypeAuth).
					Order("created_at DESC").
					First(&record).Error
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return []string{"no auth secret stored"}, nil
					}
					return nil, err
				}
				state := "valid"
				if time.Now().After(record.ExpiresAt) {
					state = "expired"
				}
				return []string{
					"latest auth secret: " + state,
					"created_at: " + record.CreatedAt.Format(time.RFC3339),
					"expires_at: " + record.ExpiresAt.Format(time.RFC3339),
				}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "secret status", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run(title, fn)
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
