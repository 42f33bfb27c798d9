package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/selah-im/intake_server/internal/model"
)

// columns set once at creation
var immutableColumns = map[string]bool{
	"id":                true,
	"preferred_name":    true,
	"email":             true,
	"discovery_story":   true,
	"tech_relationship": true,
	"created_at":        true,
}

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new record and fills in its id.
func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	if app.BetaStatus == "" {
		app.BetaStatus = model.StatusPending
	}
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		return &PersistenceError{Op: "create application", Err: err}
	}
	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, &PersistenceError{Op: "get application", ID: id, Err: err}
	}
	return &app, nil
}

// UpdateFields applies a partial update. Writing the same values twice is
// not an error.
func (r *ApplicationRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	for col := range fields {
		if immutableColumns[col] {
			return ErrImmutableField
		}
	}

	db := r.db.WithContext(ctx)

	// RowsAffected is zero for a no-op update on MySQL, so check existence first
	var count int64
	if err := db.Model(&model.Application{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return &PersistenceError{Op: "update application", ID: id, Err: err}
	}
	if count == 0 {
		return &PersistenceError{Op: "update application", ID: id, Err: ErrApplicationNotFound}
	}
	if len(fields) == 0 {
		return nil
	}

	if err := db.Model(&model.Application{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return &PersistenceError{Op: "update application", ID: id, Err: err}
	}
	return nil
}

// TransitionStatus moves a record to a review status, but only from a status
// that allows it. The check and the write happen in one statement.
func (r *ApplicationRepository) TransitionStatus(ctx context.Context, id, to, notes, reviewer string) error {
	sources := model.TransitionSources(to)
	if len(sources) == 0 {
		return ErrStatusConflict
	}

	now := time.Now()
	updates := map[string]interface{}{
		"beta_status": to,
		"reviewed_at": &now,
		"reviewed_by": reviewer,
	}
	if notes != "" {
		updates["admin_notes"] = notes
	}

	db := r.db.WithContext(ctx)
	result := db.Model(&model.Application{}).
		Where("id = ? AND beta_status IN ?", id, sources).
		Updates(updates)
	if result.Error != nil {
		return &PersistenceError{Op: "transition application", ID: id, Err: result.Error}
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// distinguish a missing record from a disallowed move
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrStatusConflict
}

// List returns one page of records, newest first.
func (r *ApplicationRepository) List(ctx context.Context, status string, page, pageSize int) ([]*model.Application, int64, error) {
	var apps []*model.Application
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Application{})
	if status != "" {
		query = query.Where("beta_status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &PersistenceError{Op: "count applications", Err: err}
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&apps).Error; err != nil {
		return nil, 0, &PersistenceError{Op: "list applications", Err: err}
	}

	return apps, total, nil
}

// CountByStatus returns the number of records per review status.
func (r *ApplicationRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		BetaStatus string
		Count      int64
	}
	err := r.db.WithContext(ctx).Model(&model.Application{}).
		Select("beta_status, COUNT(*) AS count").
		Group("beta_status").
		Scan(&rows).Error
	if err != nil {
		return nil, &PersistenceError{Op: "count by status", Err: err}
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.BetaStatus] = row.Count
	}
	return counts, nil
}

// AverageScore returns the mean readiness score over analyzed records, or
// nil when none have been analyzed.
func (r *ApplicationRepository) AverageScore(ctx context.Context) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.WithContext(ctx).Model(&model.Application{}).
		Select("AVG(contemplative_readiness_score)").
		Where("contemplative_readiness_score IS NOT NULL").
		Scan(&avg).Error
	if err != nil {
		return nil, &PersistenceError{Op: "average score", Err: err}
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

func (r *ApplicationRepository) CountEmailsSent(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("welcome_email_sent = ?", true).
		Count(&count).Error
	if err != nil {
		return 0, &PersistenceError{Op: "count emails sent", Err: err}
	}
	return count, nil
}

// FindStalled returns pending records created before the cutoff that the
// async phase never finished.
func (r *ApplicationRepository) FindStalled(ctx context.Context, before time.Time, limit int) ([]*model.Application, error) {
	var apps []*model.Application
	err := r.db.WithContext(ctx).
		Where("beta_status = ? AND claude_analysis IS NULL AND created_at < ?", model.StatusPending, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&apps).Error
	if err != nil {
		return nil, &PersistenceError{Op: "find stalled", Err: err}
	}
	return apps, nil
}
