package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/civicreport/civicreport-api/internal/config"
	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/repository"
	"github.com/civicreport/civicreport-api/internal/service"
	"github.com/civicreport/civicreport-api/pkg/database"
	"github.com/civicreport/civicreport-api/pkg/denylist"
	jwtPkg "github.com/civicreport/civicreport-api/pkg/jwt"
	"github.com/civicreport/civicreport-api/pkg/logger"
	"github.com/civicreport/civicreport-api/pkg/storage"
	"github.com/civicreport/civicreport-api/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "manage",
		Short:        "Administrative tasks for the civicreport API",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(), newCreateSuperuserCmd())
	return root
}

func setup() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := database.NewDatabase(cfg.Database, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := setup()
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.AutoMigrate(db); err != nil {
				return err
			}
			log.Info("schema up to date")
			return nil
		},
	}
}

func newCreateSuperuserCmd() *cobra.Command {
	var req models.RegisterRequest

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff account that can moderate any issue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := setup()
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.AutoMigrate(db); err != nil {
				return err
			}

			auth := service.NewAuthService(
				repository.NewUserRepository(db),
				jwtPkg.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenLifetime, cfg.JWT.RefreshTokenLifetime),
				denylist.NewMemory(),
				noStorage{},
				nil,
				utils.NewValidator(),
				cfg.JWT.RotateRefreshTokens,
				log,
			)

			user, err := auth.CreateSuperuser(context.Background(), req)
			if err != nil {
				var verr *service.ValidationError
				if errors.As(err, &verr) {
					for field, msgs := range verr.Fields {
						for _, m := range msgs {
							fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, m)
						}
					}
					return errors.New("invalid superuser details")
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created (id %d).\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "password, at least 8 characters (required)")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "admin", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// noStorage satisfies storage.StorageService for commands that never upload.
type noStorage struct{}

var _ storage.StorageService = noStorage{}

func (noStorage) Upload(context.Context, string, io.Reader, int64, string) error {
	return errors.New("uploads are not available from the CLI")
}
func (noStorage) Delete(context.Context, string) error { return nil }
func (noStorage) URL(key string) string                 { return key }
