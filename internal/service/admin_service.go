package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/selah-im/intake_server/config"
	"github.com/selah-im/intake_server/internal/model"
	"github.com/selah-im/intake_server/internal/model/dto"
	"github.com/selah-im/intake_server/internal/pkg/jwt"
	"github.com/selah-im/intake_server/internal/repository"
)

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrAdminDisabled       = errors.New("admin login is not configured")
	ErrInvalidStatus       = errors.New("unknown review status")
	ErrApplicationNotFound = repository.ErrApplicationNotFound
	ErrStatusConflict      = repository.ErrStatusConflict
)

// AdminService backs the review dashboard.
type AdminService struct {
	repo *repository.ApplicationRepository
	cfg  *config.AdminConfig
	log  *zap.Logger
}

func NewAdminService(repo *repository.ApplicationRepository, cfg *config.AdminConfig, log *zap.Logger) *AdminService {
	return &AdminService{repo: repo, cfg: cfg, log: log}
}

// Login checks the single configured operator and issues a session token.
func (s *AdminService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if s.cfg.PasswordHash == "" || s.cfg.JWTSecret == "" {
		return nil, ErrAdminDisabled
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.cfg.Username)) == 1
	// always run bcrypt so a wrong username costs the same as a wrong password
	passErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(req.Password))
	if !userOK || passErr != nil {
		s.log.Warn("admin login rejected", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(s.cfg.Username, s.cfg.JWTSecret, s.cfg.ExpireHours)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(time.Duration(s.cfg.ExpireHours) * time.Hour).UTC().Format(time.RFC3339),
	}, nil
}

func (s *AdminService) List(ctx context.Context, status string, page, pageSize int) ([]dto.ApplicationListItem, int64, error) {
	if status != "" && !model.ValidStatus(status) {
		return nil, 0, ErrInvalidStatus
	}

	apps, total, err := s.repo.List(ctx, status, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]dto.ApplicationListItem, 0, len(apps))
	for _, app := range apps {
		item := dto.ApplicationListItem{
			ID:                          app.ID,
			PreferredName:               app.PreferredName,
			Email:                       app.Email,
			BetaStatus:                  app.BetaStatus,
			ContemplativeReadinessScore: app.ContemplativeReadinessScore,
			WelcomeEmailSent:            app.WelcomeEmailSent,
			CreatedAt:                   app.CreatedAt.UTC().Format(time.RFC3339),
		}
		if result, err := app.Analysis(); err == nil && result != nil {
			item.Recommendation = result.AdminRecommendation.Decision
		}
		items = append(items, item)
	}

	return items, total, nil
}

func (s *AdminService) Get(ctx context.Context, id string) (*dto.ApplicationDetail, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &dto.ApplicationDetail{Application: app}
	result, err := app.Analysis()
	if err != nil {
		s.log.Warn("stored analysis unreadable", zap.String("application_id", id), zap.Error(err))
	} else {
		detail.Analysis = result
	}
	return detail, nil
}

// UpdateStatus records a review decision. Moves are forward only.
func (s *AdminService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateStatusRequest, reviewer string) (*model.Application, error) {
	if !model.ValidStatus(req.Status) {
		return nil, ErrInvalidStatus
	}

	if err := s.repo.TransitionStatus(ctx, id, req.Status, req.Notes, reviewer); err != nil {
		return nil, err
	}

	s.log.Info("application reviewed",
		zap.String("application_id", id),
		zap.String("status", req.Status),
		zap.String("reviewer", reviewer))

	return s.repo.GetByID(ctx, id)
}

func (s *AdminService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	avg, err := s.repo.AverageScore(ctx)
	if err != nil {
		return nil, err
	}

	sent, err := s.repo.CountEmailsSent(ctx)
	if err != nil {
		return nil, err
	}

	stats := &dto.StatsResponse{
		ByStatus:       make(map[string]int64, 4),
		AverageScore:   avg,
		EmailsSent:     sent,
		AwaitingReview: counts[model.StatusPending],
	}
	for _, status := range []string{model.StatusPending, model.StatusAccepted, model.StatusWaitlist, model.StatusDeclined} {
		stats.ByStatus[status] = counts[status]
		stats.Total += counts[status]
	}
	return stats, nil
}
