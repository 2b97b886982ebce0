package projects

import (
	"context"

	"github.com/google/uuid"

	"github.com/rejlers/edrs-backend/internal/application"
	"github.com/rejlers/edrs-backend/internal/domain/activity"
	domain "github.com/rejlers/edrs-backend/internal/domain/projects"
)

// Service implements use-cases untuk Project
type Service struct {
	Repo     domain.Repository
	Activity activity.Recorder
	Clock    application.Clock
}

// Command untuk create/update project
type UpsertProjectCommand struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Type         string `json:"project_type"`
	Standard     string `json:"engineering_standard"`
	FieldName    string `json:"field_name"`
	FacilityCode string `json:"facility_code"`
	ProcessUnit  string `json:"process_unit"`
	Client       string `json:"client_company"`
	Contractor   string `json:"engineering_contractor"`
}

// Create registers a new project
func (s *Service) Create(ctx context.Context, caller string, cmd UpsertProjectCommand) (*domain.Project, error) {
	now := s.Clock.Now()
	p := &domain.Project{
		ID:           domain.ProjectID(uuid.New().String()),
		Name:         cmd.Name,
		Description:  cmd.Description,
		Type:         domain.ProjectType(cmd.Type),
		Standard:     domain.Standard(cmd.Standard),
		FieldName:    cmd.FieldName,
		FacilityCode: cmd.FacilityCode,
		ProcessUnit:  cmd.ProcessUnit,
		Client:       cmd.Client,
		Contractor:   cmd.Contractor,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.Activity.Record(ctx, activity.Entry{
		Actor:        caller,
		Action:       "project.created",
		ResourceType: "project",
		ResourceID:   string(p.ID),
		Details:      map[string]any{"name": p.Name, "project_type": string(p.Type)},
		Timestamp:    now,
	})
	return p, nil
}

// Update modifies an existing project in place
func (s *Service) Update(ctx context.Context, caller string, id domain.ProjectID, cmd UpsertProjectCommand) (*domain.Project, error) {
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cmd.Name != "" {
		p.Name = cmd.Name
	}
	if cmd.Description != "" {
		p.Description = cmd.Description
	}
	if cmd.Type != "" {
		p.Type = domain.ProjectType(cmd.Type)
	}
	if cmd.Standard != "" {
		p.Standard = domain.Standard(cmd.Standard)
	}
	if cmd.FieldName != "" {
		p.FieldName = cmd.FieldName
	}
	if cmd.FacilityCode != "" {
		p.FacilityCode = cmd.FacilityCode
	}
	if cmd.ProcessUnit != "" {
		p.ProcessUnit = cmd.ProcessUnit
	}
	if cmd.Client != "" {
		p.Client = cmd.Client
	}
	if cmd.Contractor != "" {
		p.Contractor = cmd.Contractor
	}
	p.UpdatedAt = s.Clock.Now()

	if err := s.Repo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.Activity.Record(ctx, activity.Entry{
		Actor:        caller,
		Action:       "project.updated",
		ResourceType: "project",
		ResourceID:   string(p.ID),
		Timestamp:    p.UpdatedAt,
	})
	return p, nil
}

func (s *Service) Get(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	return s.Repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit int) ([]*domain.Project, error) {
	return s.Repo.List(ctx, limit)
}

// Deactivate soft-deletes; diagrams stay queryable by direct ID
func (s *Service) Deactivate(ctx context.Context, caller string, id domain.ProjectID) error {
	if err := s.Repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.Activity.Record(ctx, activity.Entry{
		Actor:        caller,
		Action:       "project.deactivated",
		ResourceType: "project",
		ResourceID:   string(id),
		Timestamp:    s.Clock.Now(),
	})
	return nil
}

func (s *Service) Summary(ctx context.Context, id domain.ProjectID) (*domain.Summary, error) {
	// 404 kalau project tidak ada, bukan summary kosong
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.Repo.Summary(ctx, id)
}
