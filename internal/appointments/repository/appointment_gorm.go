package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appointmentserrors "consultly/internal/appointments/errors"
	"consultly/pkg/config"
	sqltx "consultly/pkg/db/sql"
	"consultly/pkg/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormAppointmentRepository struct {
	cfg       *config.Config
	db        *gorm.DB
	txManager sqltx.TransactionManager
}

func NewGormAppointmentRepository(cfg *config.Config) AppointmentRepository {
	return &gormAppointmentRepository{
		cfg:       cfg,
		db:        cfg.Client.SQL,
		txManager: sqltx.NewTransactionManager(cfg.Client.SQL),
	}
}

// activeSlotIndex lets at most one PENDING or SCHEDULED appointment start at a
// consultant's slot. Postgres and SQLite both accept partial indexes.
const activeSlotIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_active_slot
	ON appointments (consultant_id, start_at)
	WHERE status IN ('PENDING', 'SCHEDULED')`

// AutoMigrate creates or updates the appointments table and its indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Appointment{}); err != nil {
		return err
	}
	if err := db.Exec(activeSlotIndex).Error; err != nil {
		return fmt.Errorf("failed to create active slot index: %w", err)
	}
	return nil
}

// isDuplicateKey covers dialects with an error translator (postgres) and the
// raw SQLite constraint message.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *gormAppointmentRepository) conn(ctx context.Context, timeout time.Duration) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := withTimeout(ctx, timeout)
	return sqltx.Conn(ctx, r.db).WithContext(ctx), cancel
}

func (r *gormAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	db, cancel := r.conn(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	appointment.ID = uuid.NewString()
	appointment.StartAt = appointment.StartAt.UTC()
	appointment.EndAt = appointment.EndAt.UTC()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	if err := db.Create(appointment).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %v", appointmentserrors.ErrSlotTaken, err)
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *gormAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	db, cancel := r.conn(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if err := uuid.Validate(id); err != nil {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	var appointment model.Appointment
	if err := db.First(&appointment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointmentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}
	return &appointment, nil
}

func (r *gormAppointmentRepository) UpdateStatus(ctx context.Context, id string, from []model.Status, to model.Status) (*model.Appointment, error) {
	db, cancel := r.conn(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := uuid.Validate(id); err != nil {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	result := db.Model(&model.Appointment{}).
		Where("id = ? AND status IN ?", id, statusStrings(from)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update appointment status: %w", result.Error)
	}

	var appointment model.Appointment
	if err := db.First(&appointment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointmentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to reload appointment: %w", err)
	}
	if result.RowsAffected == 0 {
		return nil, appointmentserrors.ErrStatusChanged
	}
	return &appointment, nil
}

func (r *gormAppointmentRepository) FindOverlap(
	ctx context.Context,
	consultantID string,
	start, end time.Time,
	statuses []model.Status,
) ([]*model.Appointment, error) {
	db, cancel := r.conn(ctx, r.cfg.ReadTimeout)
	defer cancel()

	appointments := []*model.Appointment{}
	err := db.
		Where("consultant_id = ? AND status IN ? AND start_at < ? AND end_at > ?",
			consultantID, statusStrings(statuses), end.UTC(), start.UTC()).
		Order("start_at ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	return appointments, nil
}

func (r *gormAppointmentRepository) ListByParty(
	ctx context.Context,
	partyID string,
	role model.Role,
	statuses []model.Status,
) ([]*model.Appointment, error) {
	db, cancel := r.conn(ctx, r.cfg.ReadTimeout)
	defer cancel()

	appointments := []*model.Appointment{}
	err := db.
		Where(partyField(role)+" = ? AND status IN ?", partyID, statusStrings(statuses)).
		Order("start_at ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *gormAppointmentRepository) ExecuteTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *gormAppointmentRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql handle: %w", err)
	}
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
