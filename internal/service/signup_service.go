package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ingenia-api/internal/dto"
	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/internal/permission"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/export"
)

type signupRequestRepository interface {
	FindPendingByEmail(ctx context.Context, email string) (*models.SignupRequest, error)
	FindByID(ctx context.Context, id string) (*models.SignupRequest, error)
	Create(ctx context.Context, req *models.SignupRequest) error
	List(ctx context.Context, filter models.SignupRequestFilter) ([]models.SignupRequest, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus, orgID *string) error
	Delete(ctx context.Context, id string) error
}

type organizationRepository interface {
	List(ctx context.Context) ([]models.Organization, error)
	FindByID(ctx context.Context, id string) (*models.Organization, error)
	Create(ctx context.Context, name string) (*models.Organization, error)
}

type approvalProfileRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
	ApproveByEmail(ctx context.Context, email string, role models.Role, orgID string) error
}

// SignupService runs the access-request workflow.
type SignupService struct {
	requests  signupRequestRepository
	orgs      organizationRepository
	profiles  approvalProfileRepository
	csv       *export.CSVExporter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	timeout   time.Duration
}

// NewSignupService constructs the workflow service.
func NewSignupService(requests signupRequestRepository, orgs organizationRepository, profiles approvalProfileRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, timeout time.Duration) *SignupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignupService{
		requests:  requests,
		orgs:      orgs,
		profiles:  profiles,
		csv:       export.NewCSVExporter(true),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		timeout:   timeout,
	}
}

// Submit files a pending request. At most one pending request may exist per email and approved
// accounts cannot request again.
func (s *SignupService) Submit(ctx context.Context, actor models.Actor, req dto.SubmitSignupRequest) (*models.SignupRequest, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	var created *models.SignupRequest
	err := s.call(ctx, "signup_submit", func(ctx context.Context) error {
		if _, err := s.requests.FindPendingByEmail(ctx, req.Email); err == nil {
			return appErrors.Clone(appErrors.ErrConflict, "a pending request already exists for this email")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if profile, err := s.profiles.FindByEmail(ctx, req.Email); err == nil && profile.Approved {
			return appErrors.Clone(appErrors.ErrConflict, "this account is already approved, sign in instead")
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		record := &models.SignupRequest{
			Email:         req.Email,
			RequestedRole: req.RequestedRole,
			Notes:         strings.TrimSpace(req.Notes),
		}
		if req.OrgID != nil && *req.OrgID != "" {
			orgID := *req.OrgID
			record.OrgID = &orgID
		} else if req.OrgName != nil && strings.TrimSpace(*req.OrgName) != "" {
			name := strings.TrimSpace(*req.OrgName)
			record.OrgName = &name
		}
		if actor.Authenticated() {
			uid := actor.UserID()
			record.UserID = &uid
		}
		if err := s.requests.Create(ctx, record); err != nil {
			return err
		}
		created = record
		return nil
	})
	if err != nil {
		return nil, appErrors.Remote(err, "failed to submit access request")
	}
	s.logger.Info("signup request submitted", zap.String("signup_id", created.ID), zap.String("role", string(created.RequestedRole)))
	return created, nil
}

// List returns requests newest first. Organization admins only see their own organization.
func (s *SignupService) List(ctx context.Context, actor models.Actor, status models.RequestStatus) ([]models.SignupRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	filter := models.SignupRequestFilter{Status: status}
	if !permission.IsPlatformAdmin(actor.Profile) {
		if actor.OrgID() == nil {
			return []models.SignupRequest{}, nil
		}
		filter.OrgID = actor.OrgID()
	}

	var items []models.SignupRequest
	err := s.call(ctx, "signup_list", func(ctx context.Context) error {
		var err error
		items, err = s.requests.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, appErrors.Remote(err, "failed to list access requests")
	}
	return items, nil
}

// ListOrganizations returns every organization to platform admins and only their own to
// organization admins.
func (s *SignupService) ListOrganizations(ctx context.Context, actor models.Actor) ([]models.Organization, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	orgs := []models.Organization{}
	err := s.call(ctx, "organization_list", func(ctx context.Context) error {
		if permission.IsPlatformAdmin(actor.Profile) {
			list, err := s.orgs.List(ctx)
			if err != nil {
				return err
			}
			orgs = list
			return nil
		}
		if actor.OrgID() == nil {
			return nil
		}
		org, err := s.orgs.FindByID(ctx, *actor.OrgID())
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		orgs = append(orgs, *org)
		return nil
	})
	if err != nil {
		return nil, appErrors.Remote(err, "failed to list organizations")
	}
	return orgs, nil
}

// Approve grants the requested role inside the resolved organization and marks the request
// approved. Platform admins resolve the chosen organization, then the request's own, then create
// one from the proposed name. Organization admins always approve into their own organization.
func (s *SignupService) Approve(ctx context.Context, actor models.Actor, id string, chosenOrgID *string) (*dto.ApproveSignupResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var result *dto.ApproveSignupResult
	err := s.call(ctx, "signup_approve", func(ctx context.Context) error {
		req, err := s.loadActionable(ctx, actor, id)
		if err != nil {
			return err
		}
		orgID, err := s.resolveOrganization(ctx, actor, req, chosenOrgID)
		if err != nil {
			return err
		}
		if err := s.profiles.ApproveByEmail(ctx, req.Email, req.RequestedRole, orgID); err != nil {
			return err
		}
		if err := s.requests.UpdateStatus(ctx, req.ID, models.RequestApproved, &orgID); err != nil {
			return err
		}
		req.Status = models.RequestApproved
		req.OrgID = &orgID
		result = &dto.ApproveSignupResult{Request: *req, OrgID: orgID}
		return nil
	})
	if err != nil {
		return nil, appErrors.Remote(err, "failed to approve access request")
	}
	s.logger.Info("signup request approved",
		zap.String("signup_id", id),
		zap.String("org_id", result.OrgID),
		zap.String("approved_by", actor.UserID()),
	)
	return result, nil
}

// Reject marks the request rejected without touching any profile.
func (s *SignupService) Reject(ctx context.Context, actor models.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	err := s.call(ctx, "signup_reject", func(ctx context.Context) error {
		req, err := s.loadActionable(ctx, actor, id)
		if err != nil {
			return err
		}
		return s.requests.UpdateStatus(ctx, req.ID, models.RequestRejected, nil)
	})
	if err != nil {
		return appErrors.Remote(err, "failed to reject access request")
	}
	s.logger.Info("signup request rejected", zap.String("signup_id", id), zap.String("rejected_by", actor.UserID()))
	return nil
}

// Remove deletes a request in any state.
func (s *SignupService) Remove(ctx context.Context, actor models.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	err := s.call(ctx, "signup_remove", func(ctx context.Context) error {
		req, err := s.load(ctx, actor, id)
		if err != nil {
			return err
		}
		return s.requests.Delete(ctx, req.ID)
	})
	if err != nil {
		return appErrors.Remote(err, "failed to remove access request")
	}
	return nil
}

// ExportCSV renders the visible requests as a spreadsheet friendly CSV document.
func (s *SignupService) ExportCSV(ctx context.Context, actor models.Actor, status models.RequestStatus) ([]byte, error) {
	items, err := s.List(ctx, actor, status)
	if err != nil {
		return nil, err
	}
	table := export.Table{
		Headers: []string{"id", "email", "requested_role", "org_id", "org_name", "notes", "status", "created_at"},
		Rows:    make([][]string, 0, len(items)),
	}
	for _, item := range items {
		table.Rows = append(table.Rows, []string{
			item.ID,
			item.Email,
			string(item.RequestedRole),
			derefString(item.OrgID),
			derefString(item.OrgName),
			item.Notes,
			string(item.Status),
			item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	data, err := s.csv.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render access requests")
	}
	return data, nil
}

func (s *SignupService) load(ctx context.Context, actor models.Actor, id string) (*models.SignupRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "access request not found")
		}
		return nil, err
	}
	if !canActOn(actor, req) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "request belongs to another organization")
	}
	return req, nil
}

// loadActionable loads a request that is still awaiting a decision.
func (s *SignupService) loadActionable(ctx context.Context, actor models.Actor, id string) (*models.SignupRequest, error) {
	req, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request was already "+string(req.Status))
	}
	return req, nil
}

func (s *SignupService) resolveOrganization(ctx context.Context, actor models.Actor, req *models.SignupRequest, chosen *string) (string, error) {
	if !permission.IsPlatformAdmin(actor.Profile) {
		if org := actor.OrgID(); org != nil && *org != "" {
			return *org, nil
		}
		return "", appErrors.Clone(appErrors.ErrValidation, "no organization could be determined for this request")
	}
	if chosen != nil && *chosen != "" {
		if _, err := s.orgs.FindByID(ctx, *chosen); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", appErrors.Clone(appErrors.ErrValidation, "chosen organization does not exist")
			}
			return "", err
		}
		return *chosen, nil
	}
	if req.OrgID != nil && *req.OrgID != "" {
		return *req.OrgID, nil
	}
	if req.OrgName != nil && strings.TrimSpace(*req.OrgName) != "" {
		org, err := s.orgs.Create(ctx, *req.OrgName)
		if err != nil {
			return "", err
		}
		s.logger.Info("organization created for signup request", zap.String("org_id", org.ID), zap.String("signup_id", req.ID))
		return org.ID, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "no organization could be determined for this request")
}

func (s *SignupService) call(ctx context.Context, name string, fn func(context.Context) error) error {
	return timedCall(ctx, s.metrics, s.timeout, name, fn)
}

// canActOn restricts organization admins to requests addressed to their own organization.
func canActOn(actor models.Actor, req *models.SignupRequest) bool {
	if permission.IsPlatformAdmin(actor.Profile) {
		return true
	}
	own := actor.OrgID()
	return own != nil && req.OrgID != nil && *own == *req.OrgID
}

func requireAdmin(actor models.Actor) error {
	if !actor.Authenticated() {
		return appErrors.Clone(appErrors.ErrAuthRequired, "sign in required")
	}
	if !permission.IsAdmin(actor.Profile) {
		return appErrors.Clone(appErrors.ErrForbidden, "administrators only")
	}
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
