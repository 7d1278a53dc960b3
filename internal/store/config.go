package store

import (
	"context"
	"time"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/nilerrors"
)

const maintenanceTag = "maintenance"

// MaintenanceConfig is the singleton maintenance-mode document.
// Absence is equivalent to inactive.
type MaintenanceConfig struct {
	Type      string     `json:"_type"`
	Active    bool       `json:"active"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
}

// GetMaintenance loads the current maintenance state; absence reports
// inactive rather than an error.
func (s *Store) GetMaintenance(ctx context.Context) (MaintenanceConfig, error) {
	doc, ok, err := s.primary.FindOne(ctx, tableConfig, database.Doc{"_type": maintenanceTag})
	if err != nil {
		return MaintenanceConfig{}, nilerrors.Wrap(nilerrors.DatabaseError, "loading maintenance config", err)
	}
	if !ok {
		return MaintenanceConfig{Type: maintenanceTag, Active: false}, nil
	}
	var cfg MaintenanceConfig
	if err := decode(doc, &cfg); err != nil {
		return MaintenanceConfig{}, err
	}
	return cfg, nil
}

// StartMaintenance upserts the singleton to {active:true, startedAt:now}.
func (s *Store) StartMaintenance(ctx context.Context) error {
	now := database.Now()
	_, existing, err := s.primary.FindOne(ctx, tableConfig, database.Doc{"_type": maintenanceTag})
	if err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "loading maintenance config", err)
	}
	if existing {
		_, err := s.primary.UpdateOne(ctx, tableConfig, database.Doc{"_type": maintenanceTag}, database.Doc{
			"$set": database.Doc{"active": true, "startedAt": now},
		})
		if err != nil {
			return nilerrors.Wrap(nilerrors.DatabaseError, "starting maintenance", err)
		}
		return nil
	}

	cfg := MaintenanceConfig{Type: maintenanceTag, Active: true, StartedAt: &now}
	doc, err := encode(cfg)
	if err != nil {
		return err
	}
	doc["_id"] = maintenanceTag
	if err := s.primary.InsertOne(ctx, tableConfig, doc); err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "starting maintenance", err)
	}
	return nil
}

// StopMaintenance deletes the singleton document.
func (s *Store) StopMaintenance(ctx context.Context) error {
	_, err := s.primary.DeleteOne(ctx, tableConfig, database.Doc{"_type": maintenanceTag})
	if err != nil {
		return nilerrors.Wrap(nilerrors.DatabaseError, "stopping maintenance", err)
	}
	return nil
}
