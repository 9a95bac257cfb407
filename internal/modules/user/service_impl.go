package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sokoplace/soko-backend/internal/database"
	"github.com/sokoplace/soko-backend/internal/httpx"
	"github.com/sokoplace/soko-backend/internal/modules/audit"
	"github.com/sokoplace/soko-backend/internal/policy"
	"github.com/sokoplace/soko-backend/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

type service struct {
	repo     Repository
	recorder audit.Recorder
}

// NewService creates a new user service.
func NewService(repo Repository, recorder audit.Recorder) Service {
	return &service{repo: repo, recorder: recorder}
}

func (s *service) RegisterUser(ctx context.Context, req RegisterRequest) (*User, error) {
	fields := []validation.Field{
		{Name: "email", Value: req.Email, Validators: []validation.Validator{validation.Email}},
		{Name: "first_name", Value: req.FirstName, Validators: []validation.Validator{validation.PersonName}},
		{Name: "last_name", Value: req.LastName, Validators: []validation.Validator{validation.PersonName}},
	}
	if req.Phone != "" {
		fields = append(fields, validation.Field{Name: "phone", Value: req.Phone, Validators: []validation.Validator{validation.Phone}})
	}
	if errs := validation.RunAll(fields...); len(errs) > 0 {
		return nil, httpx.Validation(errs[0].Code, errs[0].Field+": "+errs[0].Message)
	}
	if len(req.Password) < 8 {
		return nil, httpx.Validation("PASSWORD_TOO_SHORT", "password must be at least 8 characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hashedPassword),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         policy.RoleBuyer,
		IsActive:     true,
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, httpx.Conflict("EMAIL_TAKEN", "an account with this email already exists")
		}
		return nil, err
	}
	return u, nil
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httpx.NotFound("user not found")
		}
		return nil, err
	}
	return u, nil
}

func (s *service) ListUsers(ctx context.Context, role string) ([]*User, error) {
	return s.repo.ListUsers(ctx, role)
}

// UpdateUser applies admin changes to another account. Granting admin
// requires master_admin; every change is audited.
func (s *service) UpdateUser(ctx context.Context, actorID, targetID string, req AdminUpdateRequest) (*User, error) {
	actor, err := s.repo.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	target, err := s.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		newRole, ok := policy.ParseRole(*req.Role)
		if !ok {
			return nil, httpx.Validation("INVALID_ROLE", "unknown role")
		}
		if policy.IsAdmin(newRole) && !policy.Allows(actor.Role, policy.ActionGrantAdmin) {
			return nil, httpx.Forbidden("FORBIDDEN", "only a master admin may grant admin roles")
		}
		if err := s.repo.UpdateRole(ctx, targetID, newRole); err != nil {
			return nil, err
		}
		s.recorder.Record(ctx, audit.Event{
			ActorID:      &actor.ID,
			ActorRole:    string(actor.Role),
			Action:       audit.ActionUserRoleChanged,
			ResourceType: "user",
			ResourceID:   targetID,
			Outcome:      audit.OutcomeSuccess,
			Detail:       audit.Detail(map[string]string{"from": string(target.Role), "to": string(newRole)}),
		})
		target.Role = newRole
	}

	if req.IsActive != nil && *req.IsActive != target.IsActive {
		if err := s.repo.SetActive(ctx, targetID, *req.IsActive); err != nil {
			return nil, err
		}
		if !*req.IsActive {
			s.recorder.Record(ctx, audit.Event{
				ActorID:      &actor.ID,
				ActorRole:    string(actor.Role),
				Action:       audit.ActionUserDeactivated,
				ResourceType: "user",
				ResourceID:   targetID,
				Outcome:      audit.OutcomeSuccess,
			})
		}
		target.IsActive = *req.IsActive
	}

	return target, nil
}
