package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/repository"
)

// ImportService loads employees and form templates from Excel workbooks,
// the format HR exports from the personnel system.
type ImportService struct {
	users  *repository.UserRepository
	org    *OrgService
	forms  *repository.FormRepository
	logger *zap.Logger
}

func NewImportService(users *repository.UserRepository, org *OrgService, forms *repository.FormRepository, logger *zap.Logger) *ImportService {
	return &ImportService{users: users, org: org, forms: forms, logger: logger}
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportEmployees reads the first sheet of an HR workbook. Expected columns:
// personnel code, username, full name, unit code, role code. The header row
// is skipped. Existing people (matched by personnel code) are updated in
// place; new ones get an account with a disabled random password until an
// admin activates them.
func (s *ImportService) ImportEmployees(ctx context.Context, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	result := &ImportResult{}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 5 {
			result.Skipped++
			continue
		}
		personnelCode := strings.TrimSpace(row[0])
		username := strings.TrimSpace(row[1])
		fullName := strings.TrimSpace(row[2])
		unitCode := strings.TrimSpace(row[3])
		roleCode := strings.TrimSpace(row[4])
		if personnelCode == "" || username == "" {
			result.Skipped++
			continue
		}

		created, err := s.upsertEmployee(ctx, personnelCode, username, fullName, unitCode, roleCode)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d (%s): %v", i+1, personnelCode, err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.logger.Info("employee import finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *ImportService) upsertEmployee(ctx context.Context, personnelCode, username, fullName, unitCode, roleCode string) (bool, error) {
	unit, err := s.org.repo.UnitByCode(ctx, unitCode)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if unit == nil {
		unit = &entity.Unit{ID: uuid.NewString(), UnitCode: unitCode, Name: unitCode}
		if err := s.org.repo.SaveUnit(ctx, unit); err != nil {
			return false, fmt.Errorf("create unit %s: %w", unitCode, err)
		}
	}

	jobRole, err := s.org.repo.JobRoleByCode(ctx, roleCode)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if jobRole == nil {
		jobRole = &entity.JobRole{ID: uuid.NewString(), Code: roleCode, Name: roleCode}
		if err := s.org.repo.SaveJobRole(ctx, jobRole); err != nil {
			return false, fmt.Errorf("create job role %s: %w", roleCode, err)
		}
	}

	profile, err := s.org.repo.ProfileByPersonnelCode(ctx, personnelCode)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	if profile != nil {
		profile.UnitID = &unit.ID
		profile.JobRoleID = &jobRole.ID
		if profile.User != nil && fullName != "" && profile.User.FullName != fullName {
			profile.User.FullName = fullName
			if err := s.users.Update(ctx, profile.User); err != nil {
				return false, err
			}
		}
		// Save through OrgService so the profile cache is invalidated.
		return false, s.org.SaveProfile(ctx, profile)
	}

	hash, err := HashPassword(uuid.NewString())
	if err != nil {
		return false, err
	}
	user := &entity.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		FullName:     fullName,
		IsActive:     false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, fmt.Errorf("create account %s: %w", username, err)
	}

	profile = &entity.EmployeeProfile{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		PersonnelCode: personnelCode,
		UnitID:        &unit.ID,
		JobRoleID:     &jobRole.ID,
	}
	return true, s.org.SaveProfile(ctx, profile)
}

// ImportFormTemplate reads a form definition workbook into a new draft
// template version. Sheet layout: column A order, B title, C description,
// D weight, then pairs of (label, value) columns for the options. Rows
// with no option pairs become decorative criteria.
func (s *ImportService) ImportFormTemplate(ctx context.Context, r io.Reader, code, name string) (*entity.FormTemplate, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	version, err := s.forms.MaxVersion(ctx, code)
	if err != nil {
		return nil, err
	}

	tpl := &entity.FormTemplate{
		ID:      uuid.NewString(),
		Code:    code,
		Version: version + 1,
		Name:    name,
		Status:  entity.TemplateStatusDraft,
	}

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 2 || strings.TrimSpace(row[1]) == "" {
			continue
		}
		order, _ := strconv.Atoi(strings.TrimSpace(row[0]))
		if order == 0 {
			order = i
		}
		crit := entity.FormCriterion{
			ID:         uuid.NewString(),
			TemplateID: tpl.ID,
			Order:      order,
			Title:      strings.TrimSpace(row[1]),
			Weight:     1,
		}
		if len(row) > 2 {
			crit.Description = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			if w, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64); err == nil && w > 0 {
				crit.Weight = w
			}
		}
		for col := 4; col+1 < len(row); col += 2 {
			label := strings.TrimSpace(row[col])
			rawValue := strings.TrimSpace(row[col+1])
			if label == "" {
				continue
			}
			value, err := strconv.ParseFloat(rawValue, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: option %q has non-numeric value %q", i+1, label, rawValue)
			}
			crit.Options = append(crit.Options, entity.FormOption{
				ID:          uuid.NewString(),
				CriterionID: crit.ID,
				Order:       len(crit.Options) + 1,
				Label:       label,
				Value:       value,
			})
		}
		tpl.Criteria = append(tpl.Criteria, crit)
	}

	if len(tpl.Criteria) == 0 {
		return nil, fmt.Errorf("workbook has no criteria rows")
	}

	if err := s.forms.Create(ctx, tpl); err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}

	s.logger.Info("form template imported",
		zap.String("code", code),
		zap.Int("version", tpl.Version),
		zap.Int("criteria", len(tpl.Criteria)),
	)
	return tpl, nil
}
