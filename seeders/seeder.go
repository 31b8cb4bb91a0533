package seeders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"permanence-system/pkg/utils"
)

// DemoPassword: пароль всех демо-пользователей.
const DemoPassword = "password"

type Seeder struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func New(db *pgxpool.Pool, logger *zap.Logger) *Seeder {
	return &Seeder{db: db, logger: logger}
}

// SeedAdmin создаёт администратора, если пользователя с таким email ещё нет.
func (s *Seeder) SeedAdmin(ctx context.Context, email, password string) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO users (nom, prenom, matricule, email, password, role, is_active)
		VALUES ('ADMIN', 'System', 'ADM001', $1, $2, 'admin', TRUE)
		ON CONFLICT (email) DO NOTHING`, email, hash)
	if err != nil {
		return fmt.Errorf("ошибка при создании администратора: %w", err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Info("Администратор уже существует, пропускаем", zap.String("email", email))
		return nil
	}
	s.logger.Info("Администратор создан", zap.String("email", email))
	return nil
}

// SeedDemo наполняет пустую базу демонстрационным реестром. Повторный запуск
// ничего не меняет: если permanences уже есть, сидер выходит.
func (s *Seeder) SeedDemo(ctx context.Context) error {
	var count int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM permanences").Scan(&count); err != nil {
		return fmt.Errorf("ошибка при проверке permanences: %w", err)
	}
	if count > 0 {
		s.logger.Info("Демо-данные уже есть, пропускаем", zap.Int("permanences", count))
		return nil
	}

	hash, err := utils.HashPassword(DemoPassword)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	siteIDs := make([]uint64, len(demoSites))
	for i, site := range demoSites {
		if siteIDs[i], err = upsertSite(ctx, tx, site); err != nil {
			return err
		}
	}

	officerIDs := make([]uint64, len(demoOfficers))
	for i, u := range demoOfficers {
		if officerIDs[i], err = upsertUser(ctx, tx, u, hash); err != nil {
			return err
		}
	}
	ncoIDs := make([]uint64, len(demoNCOs))
	for i, u := range demoNCOs {
		if ncoIDs[i], err = upsertUser(ctx, tx, u, hash); err != nil {
			return err
		}
	}
	if _, err = upsertUser(ctx, tx, demoViewer, hash); err != nil {
		return err
	}

	today := time.Now().Truncate(24 * time.Hour)
	for _, sh := range demoShifts {
		date := today.AddDate(0, 0, sh.DayOffset)
		var validatedAt *time.Time
		if sh.Statut == "validee" {
			at := date.Add(20*time.Hour + 30*time.Minute)
			validatedAt = &at
		}

		var shiftID uint64
		err := tx.QueryRow(ctx, `
			INSERT INTO permanences (date, heure_debut, heure_fin, officier_id, statut, validated_at)
			VALUES ($1, '08:00', '20:00', $2, $3, $4) RETURNING id`,
			date, officerIDs[sh.Officer], sh.Statut, validatedAt,
		).Scan(&shiftID)
		if err != nil {
			return fmt.Errorf("ошибка при создании permanence на %s: %w", date.Format("2006-01-02"), err)
		}

		for i, nco := range sh.NCOs {
			_, err := tx.Exec(ctx, `
				INSERT INTO permanence_sous_officier (permanence_id, sous_officier_id, site_id)
				VALUES ($1, $2, $3)`, shiftID, ncoIDs[nco], siteIDs[sh.Sites[i]])
			if err != nil {
				return fmt.Errorf("ошибка при назначении sous-officier: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.logger.Info("Демо-данные созданы",
		zap.Int("sites", len(demoSites)),
		zap.Int("users", len(demoOfficers)+len(demoNCOs)+1),
		zap.Int("permanences", len(demoShifts)),
	)
	return nil
}

func upsertSite(ctx context.Context, tx pgx.Tx, site siteSeed) (uint64, error) {
	var id uint64
	err := tx.QueryRow(ctx, `
		INSERT INTO sites (nom, code, localisation, is_active) VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET nom = EXCLUDED.nom
		RETURNING id`, site.Nom, site.Code, site.Localisation, site.IsActive).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка при создании site %s: %w", site.Code, err)
	}
	return id, nil
}

func upsertUser(ctx context.Context, tx pgx.Tx, u userSeed, hash string) (uint64, error) {
	var fonction *string
	if u.Fonction != "" {
		fonction = &u.Fonction
	}

	var id uint64
	err := tx.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", u.Email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("ошибка при проверке пользователя %s: %w", u.Email, err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO users (nom, prenom, matricule, email, password, role, fonction, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE) RETURNING id`,
		u.Nom, u.Prenom, u.Matricule, u.Email, hash, u.Role, fonction,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка при создании пользователя %s: %w", u.Email, err)
	}
	return id, nil
}
