package store

import (
	"fmt"

	"github.com/existflow/wbsync/internal/auth"
	"github.com/existflow/wbsync/internal/model"
)

const (
	// SeedAdminID is the admin user every new document starts with
	SeedAdminID = "u1"
	// SeedActor is recorded as updated_by on the seed commit
	SeedActor = "system"
	// UnknownActor is recorded when a writer does not name itself
	UnknownActor = "unknown"
)

// seedSettings returns the config block of a fresh document
func seedSettings() (model.Settings, error) {
	hash, err := auth.HashSecret(auth.DefaultAdminSecret)
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to hash default secret: %w", err)
	}
	return model.Settings{
		AdminPasswordHash: hash,
		PollingInterval:   int(model.DefaultPollingInterval.Milliseconds()),
	}, nil
}

// seedDocument builds the default document: one admin and one sample task
// running from today for a week. Meta is left for the caller to stamp.
func seedDocument(today model.Date) (*model.Document, error) {
	settings, err := seedSettings()
	if err != nil {
		return nil, err
	}

	sample := model.NewTask(model.NewTaskID(), "Sample task", today, today.AddDays(7))
	sample.AssigneeID = model.Ref(SeedAdminID)

	return &model.Document{
		Config: settings,
		Users: []model.User{
			{ID: SeedAdminID, Name: "Administrator", Role: model.RoleAdmin},
		},
		Tasks: []model.Task{sample},
	}, nil
}
