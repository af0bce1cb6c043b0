package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"focusquest/internal/database"
	"focusquest/internal/logger"
	"focusquest/internal/models"
	"focusquest/internal/repository"

	"github.com/sirupsen/logrus"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData is a JSON export of one child's ledger and adherence records
type BackupData struct {
	Version      string                      `json:"version"`
	ExportedAt   time.Time                   `json:"exported_at"`
	DatabaseType string                      `json:"database_type"`
	Parent       *models.Parent              `json:"parent"`
	Child        *models.Child               `json:"child"`
	Profile      *models.ChildRewardProfile  `json:"profile"`
	Events       []models.RewardEvent        `json:"events"`
	Catalog      []models.RewardCatalogItem  `json:"catalog"`
	Redemptions  []models.RedemptionRequest  `json:"redemptions"`
	Reminders    []models.MedicationReminder `json:"reminders"`
	Doses        []models.MedicationDoseLog  `json:"doses"`
	Settings     *models.MedicationSettings  `json:"settings"`
}

// BackupService exports a child's records
type BackupService struct {
	db          *database.DB
	family      *repository.FamilyRepository
	rewards     *repository.RewardRepository
	catalog     *repository.CatalogRepository
	redemptions *repository.RedemptionRepository
	reminders   *repository.MedicationRepository
	doses       *repository.DoseLogRepository
	settings    *repository.SettingsRepository
	now         func() time.Time
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{
		db:          db,
		family:      repository.NewFamilyRepository(db),
		rewards:     repository.NewRewardRepository(db),
		catalog:     repository.NewCatalogRepository(db),
		redemptions: repository.NewRedemptionRepository(db),
		reminders:   repository.NewMedicationRepository(db),
		doses:       repository.NewDoseLogRepository(db),
		settings:    repository.NewSettingsRepository(db),
		now:         time.Now,
	}
}

// Collect gathers everything stored for a child
func (s *BackupService) Collect(ctx context.Context, childID string) (*BackupData, error) {
	child, err := s.family.GetChildByID(ctx, childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrChildNotFound
	}

	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   s.now().UTC(),
		DatabaseType: s.db.GetDialect().DriverName(),
		Child:        child,
	}

	if backup.Parent, err = s.family.GetParentByID(ctx, child.ParentID); err != nil {
		return nil, fmt.Errorf("failed to export parent: %w", err)
	}
	if backup.Profile, err = s.rewards.GetProfile(ctx, childID); err != nil {
		return nil, fmt.Errorf("failed to export profile: %w", err)
	}
	if backup.Events, err = s.rewards.ListEvents(ctx, childID, time.Unix(0, 0), 0); err != nil {
		return nil, fmt.Errorf("failed to export events: %w", err)
	}
	if backup.Catalog, err = s.catalog.ListByChild(ctx, childID, false); err != nil {
		return nil, fmt.Errorf("failed to export catalog: %w", err)
	}
	if backup.Redemptions, err = s.redemptions.ListByChild(ctx, childID, ""); err != nil {
		return nil, fmt.Errorf("failed to export redemptions: %w", err)
	}
	if backup.Reminders, err = s.reminders.ListByChild(ctx, childID); err != nil {
		return nil, fmt.Errorf("failed to export reminders: %w", err)
	}
	if backup.Doses, err = s.doses.ListByChild(ctx, childID, time.Unix(0, 0), s.now().AddDate(1, 0, 0)); err != nil {
		return nil, fmt.Errorf("failed to export doses: %w", err)
	}
	if backup.Settings, err = s.settings.Get(ctx, childID); err != nil {
		return nil, fmt.Errorf("failed to export settings: %w", err)
	}
	return backup, nil
}

// Export writes a child's backup as indented JSON
func (s *BackupService) Export(ctx context.Context, childID string, w io.Writer) error {
	backup, err := s.Collect(ctx, childID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"child_id":    childID,
		"events":      len(backup.Events),
		"redemptions": len(backup.Redemptions),
		"reminders":   len(backup.Reminders),
		"doses":       len(backup.Doses),
	}).Info("child data exported")
	return nil
}

// ExportToFile writes a child's backup to outputPath
func (s *BackupService) ExportToFile(ctx context.Context, childID, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.Export(ctx, childID, file); err != nil {
		return err
	}
	return file.Close()
}
