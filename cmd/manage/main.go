package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"permanence-system/internal/repositories"
	"permanence-system/internal/services"
	"permanence-system/migrations"
	"permanence-system/pkg/config"
	"permanence-system/pkg/database/postgresql"
	"permanence-system/pkg/filestorage"
	applogger "permanence-system/pkg/logger"
	"permanence-system/seeders"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "manage",
	Short: "Administration du registre de permanence",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.New()
		logger = applogger.NewLogger(cfg.Log)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func connect(ctx context.Context) (*pgxpool.Pool, error) {
	return postgresql.ConnectDB(ctx, cfg.Postgres, logger)
}

// migrate
var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status|reset]",
	Short:     "Appliquer les migrations SQL",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "down", "status", "reset"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := postgresql.Migrate(cfg.Postgres.DSN, migrations.FS, args[0]); err != nil {
			return err
		}
		logger.Info("Миграции выполнены", zap.String("command", args[0]))
		return nil
	},
}

// seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Remplir la base",
}

var seedAdminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Créer le compte administrateur",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if len(password) < 8 {
			return fmt.Errorf("le mot de passe doit contenir au moins 8 caractères")
		}

		ctx := cmd.Context()
		db, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		return seeders.New(db, logger).SeedAdmin(ctx, email, password)
	},
}

var seedDemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Créer des sites, utilisateurs et permanences de démonstration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := seeders.New(db, logger).SeedDemo(ctx); err != nil {
			return err
		}
		fmt.Printf("Comptes de démonstration: *@registre.local / %s\n", seeders.DemoPassword)
		return nil
	},
}

// settings
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Maintenance des paramètres",
}

var settingsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remettre à NULL les valeurs de fichiers invalides",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer redisClient.Close()

		files, err := filestorage.NewLocalFileStorage(cfg.PDF.StorageDir)
		if err != nil {
			return err
		}

		svc := services.NewSettingService(
			repositories.NewSettingRepository(db, logger),
			repositories.NewRedisCacheRepository(redisClient),
			files,
			cfg.Settings,
			logger,
		)
		keys, err := svc.CleanFileValues(ctx)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Println("Aucune valeur à nettoyer.")
			return nil
		}
		for _, k := range keys {
			fmt.Printf("  ✓ %s\n", k)
		}
		fmt.Printf("%d paramètre(s) nettoyé(s).\n", len(keys))
		return nil
	},
}

func init() {
	seedAdminCmd.Flags().String("email", "admin@registre.local", "email de l'administrateur")
	seedAdminCmd.Flags().String("password", "", "mot de passe (8 caractères minimum)")

	seedCmd.AddCommand(seedAdminCmd, seedDemoCmd)
	settingsCmd.AddCommand(settingsCleanCmd)
	rootCmd.AddCommand(migrateCmd, seedCmd, settingsCmd)
}
