package service

import (
	"context"
	"errors"
	"time"

	"consultly/internal/appointments/calendar"
	appointmentserrors "consultly/internal/appointments/errors"
	"consultly/internal/appointments/repository"
	"consultly/internal/appointments/validator"
	"consultly/internal/notifications"
	"consultly/pkg/config"
	apperrors "consultly/pkg/errors"
	"consultly/pkg/model"
	"consultly/pkg/sanitizer"
)

const (
	appointmentStore = "Appointment store"
	lockStore        = "Slot lock store"
)

type AppointmentService interface {
	GetAvailability(ctx context.Context, caller model.Identity, consultantID, date string) ([]model.Slot, error)
	LockSlot(ctx context.Context, caller model.Identity, req *model.LockSlotRequest) (*model.LockSlotResponse, error)
	ReleaseSlot(ctx context.Context, caller model.Identity, consultantID, startAt string) error

	Create(ctx context.Context, caller model.Identity, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	Accept(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error)
	Reject(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error)
	Cancel(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error)
	Complete(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error)

	ClientAppointments(ctx context.Context, caller model.Identity) ([]*model.Appointment, error)
	ClientHistory(ctx context.Context, caller model.Identity) ([]*model.Appointment, error)
	ConsultantAppointments(ctx context.Context, caller model.Identity) ([]*model.Appointment, error)
	ConsultantHistory(ctx context.Context, caller model.Identity) ([]*model.Appointment, error)

	Ready(ctx context.Context) error
}

type appointmentService struct {
	repo      repository.AppointmentRepository
	lockRepo  repository.SlotLockRepository
	validator *validator.AppointmentValidator
	notifier  notifications.Notifier
	calendar  *calendar.Calendar
	lockTTL   time.Duration
	cfg       *config.Config
	now       func() time.Time
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	lockRepo repository.SlotLockRepository,
	validator *validator.AppointmentValidator,
	notifier notifications.Notifier,
	cal *calendar.Calendar,
	cfg *config.Config,
) AppointmentService {
	return &appointmentService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator,
		notifier:  notifier,
		calendar:  cal,
		lockTTL:   cfg.SlotLockTTL,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *appointmentService) GetAvailability(ctx context.Context, caller model.Identity, consultantID, date string) ([]model.Slot, error) {
	if !validator.IsPartyID(consultantID) {
		return nil, apperrors.InvalidInput("Invalid consultant ID")
	}
	day, err := calendar.ParseDate(date)
	if err != nil {
		return nil, apperrors.InvalidInput("date must be in YYYY-MM-DD format")
	}

	now := s.now()
	windows := s.calendar.GenerateSlots(day, now)
	slots := make([]model.Slot, 0, len(windows))
	if len(windows) == 0 {
		return slots, nil
	}

	dayWindow := s.calendar.DayWindow(day)
	booked, err := s.repo.FindOverlap(ctx, consultantID, dayWindow.Start, dayWindow.End, model.ActiveStatuses)
	if err != nil {
		return nil, s.unavailable(appointmentStore, err)
	}

	for _, w := range windows {
		slot := model.Slot{Start: w.Start, End: w.End, Status: model.SlotFree}

		if overlapsAny(booked, w) {
			slot.Status = model.SlotBooked
			slots = append(slots, slot)
			continue
		}

		lock, err := s.lockRepo.Peek(ctx, consultantID, w.Start)
		if err != nil {
			return nil, s.unavailable(lockStore, err)
		}
		if lock != nil {
			lockedByMe := lock.Holder == caller.ID
			slot.Status = model.SlotLocked
			slot.LockedByMe = &lockedByMe
			if secs := ceilSeconds(lock.TTL(now)); secs > 0 {
				slot.ExpiresIn = &secs
			}
		}
		slots = append(slots, slot)
	}

	return slots, nil
}

func (s *appointmentService) LockSlot(ctx context.Context, caller model.Identity, req *model.LockSlotRequest) (*model.LockSlotResponse, error) {
	if caller.Role != model.RoleClient {
		return nil, apperrors.Forbidden("Only clients can lock slots")
	}
	if err := s.validator.ValidateLockSlot(req); err != nil {
		return nil, validationError("Invalid lock request", err)
	}

	start, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return nil, apperrors.InvalidInput("startAt must be an ISO 8601 timestamp")
	}
	if err := s.calendar.CheckSlotStart(start); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}
	if err := s.calendar.CheckFuture(start, s.now()); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	acquired, err := s.lockRepo.Acquire(ctx, req.ConsultantID, start, caller.ID, s.lockTTL)
	if err != nil {
		return nil, s.unavailable(lockStore, err)
	}
	if !acquired {
		return nil, apperrors.SlotLocked("Slot temporarily unavailable")
	}

	s.cfg.Log.Info("Slot locked",
		"consultant_id", req.ConsultantID,
		"client_id", caller.ID,
		"start_at", start.UTC(),
		"ttl", s.lockTTL,
	)
	return &model.LockSlotResponse{ExpiresIn: int(s.lockTTL / time.Second)}, nil
}

func (s *appointmentService) ReleaseSlot(ctx context.Context, caller model.Identity, consultantID, startAt string) error {
	if caller.Role != model.RoleClient {
		return apperrors.Forbidden("Only clients can release slots")
	}
	if !validator.IsPartyID(consultantID) {
		return apperrors.InvalidInput("Invalid consultant ID")
	}
	start, err := time.Parse(time.RFC3339, startAt)
	if err != nil {
		return apperrors.InvalidInput("startAt must be an ISO 8601 timestamp")
	}

	lock, err := s.lockRepo.Peek(ctx, consultantID, start)
	if err != nil {
		return s.unavailable(lockStore, err)
	}
	if lock == nil {
		return nil
	}
	if lock.Holder != caller.ID {
		return apperrors.Forbidden("Slot is locked by another user")
	}

	if err := s.lockRepo.Release(ctx, consultantID, start); err != nil {
		return s.unavailable(lockStore, err)
	}
	s.cfg.Log.Info("Slot released", "consultant_id", consultantID, "client_id", caller.ID, "start_at", start.UTC())
	return nil
}

func (s *appointmentService) Create(ctx context.Context, caller model.Identity, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if caller.Role != model.RoleClient {
		return nil, apperrors.Forbidden("Only clients can create appointments")
	}
	if err := s.validator.ValidateCreate(req); err != nil {
		s.cfg.Log.Warn("Appointment validation failed", "client_id", caller.ID, "error", err)
		return nil, validationError("Invalid appointment request", err)
	}

	start, errStart := time.Parse(time.RFC3339, req.StartAt)
	end, errEnd := time.Parse(time.RFC3339, req.EndAt)
	if errStart != nil || errEnd != nil {
		return nil, apperrors.InvalidInput("startAt and endAt must be ISO 8601 timestamps")
	}
	if err := s.calendar.CheckShape(start, end); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}
	if err := s.calendar.CheckFuture(start, s.now()); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	lock, err := s.lockRepo.Peek(ctx, req.ConsultantID, start)
	if err != nil {
		return nil, s.unavailable(lockStore, err)
	}
	if lock == nil {
		return nil, apperrors.LockExpired("Slot lock expired. Please select slot again.")
	}
	if lock.Holder != caller.ID {
		return nil, apperrors.SlotLocked("Slot is locked by another user")
	}

	appointment := &model.Appointment{
		ConsultantID: req.ConsultantID,
		ClientID:     caller.ID,
		StartAt:      start.UTC(),
		EndAt:        end.UTC(),
		Purpose:      sanitizer.SanitizePurpose(req.Purpose),
		Status:       model.StatusPending,
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindOverlap(txCtx, appointment.ConsultantID, appointment.StartAt, appointment.EndAt, model.ActiveStatuses)
		if err != nil {
			return s.unavailable(appointmentStore, err)
		}
		if len(existing) > 0 {
			return apperrors.Conflict("Slot already booked")
		}
		// The store's unique active-slot constraint catches a concurrent
		// create that passed the overlap check at the same time.
		if err := s.repo.Create(txCtx, appointment); err != nil {
			if errors.Is(err, appointmentserrors.ErrSlotTaken) {
				return apperrors.Conflict("Slot already booked")
			}
			return s.unavailable(appointmentStore, err)
		}
		return nil
	})
	if err != nil {
		if !apperrors.IsAppError(err) {
			err = s.unavailable(appointmentStore, err)
		}
		s.cfg.Log.Warn("Failed to create appointment",
			"consultant_id", appointment.ConsultantID,
			"client_id", caller.ID,
			"start_at", appointment.StartAt,
			"error", err,
		)
		return nil, err
	}

	if err := s.lockRepo.Release(ctx, appointment.ConsultantID, appointment.StartAt); err != nil {
		s.cfg.Log.Warn("Failed to release slot lock after booking",
			"appointment_id", appointment.ID,
			"error", err,
		)
	}

	s.cfg.Log.Info("Appointment created",
		"id", appointment.ID,
		"consultant_id", appointment.ConsultantID,
		"client_id", appointment.ClientID,
		"start_at", appointment.StartAt,
	)
	s.notify(ctx, model.EventAppointmentRequested, appointment, appointment.ConsultantID)

	return appointment, nil
}

// transition describes one lifecycle move and who may make it.
type transition struct {
	name         string
	actor        model.Role
	roleMessage  string
	from         []model.Status
	to           model.Status
	event        model.EventType
	stateMessage string
}

var (
	acceptTransition = transition{
		name:         "accept",
		actor:        model.RoleConsultant,
		roleMessage:  "Only consultants can accept appointments",
		from:         []model.Status{model.StatusPending},
		to:           model.StatusScheduled,
		event:        model.EventAppointmentAccepted,
		stateMessage: "Only pending appointments allowed",
	}
	rejectTransition = transition{
		name:         "reject",
		actor:        model.RoleConsultant,
		roleMessage:  "Only consultants can reject appointments",
		from:         []model.Status{model.StatusPending},
		to:           model.StatusRejected,
		event:        model.EventAppointmentRejected,
		stateMessage: "Only pending appointments allowed",
	}
	cancelTransition = transition{
		name:         "cancel",
		actor:        model.RoleClient,
		roleMessage:  "Only clients can cancel appointments",
		from:         []model.Status{model.StatusPending, model.StatusScheduled},
		to:           model.StatusCancelled,
		event:        model.EventAppointmentCancelled,
		stateMessage: "Cannot cancel this appointment",
	}
	completeTransition = transition{
		name:         "complete",
		actor:        model.RoleConsultant,
		roleMessage:  "Only consultants can complete appointments",
		from:         []model.Status{model.StatusScheduled},
		to:           model.StatusCompleted,
		event:        model.EventAppointmentCompleted,
		stateMessage: "Only scheduled appointments can be completed",
	}
)

func (s *appointmentService) Accept(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error) {
	return s.apply(ctx, caller, id, acceptTransition)
}

func (s *appointmentService) Reject(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error) {
	return s.apply(ctx, caller, id, rejectTransition)
}

func (s *appointmentService) Cancel(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error) {
	return s.apply(ctx, caller, id, cancelTransition)
}

func (s *appointmentService) Complete(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error) {
	return s.apply(ctx, caller, id, completeTransition)
}

func (s *appointmentService) apply(ctx context.Context, caller model.Identity, id string, t transition) (*model.Appointment, error) {
	if caller.Role != t.actor {
		return nil, apperrors.Forbidden(t.roleMessage)
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(id, err)
	}
	if ownerOf(existing, t.actor) != caller.ID {
		return nil, apperrors.Forbidden("You do not have access to this appointment")
	}
	if !existing.Status.In(t.from) {
		return nil, apperrors.InvalidState(t.stateMessage)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, t.from, t.to)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrStatusChanged) {
			return nil, apperrors.InvalidState(t.stateMessage)
		}
		return nil, s.lookupError(id, err)
	}

	s.cfg.Log.Info("Appointment status changed",
		"id", id,
		"action", t.name,
		"from", existing.Status,
		"to", updated.Status,
	)
	s.notify(ctx, t.event, updated, counterpartOf(updated, t.actor))

	return updated, nil
}

func (s *appointmentService) ClientAppointments(ctx context.Context, caller model.Identity) ([]*model.Appointment, error) {
	return s.list(ctx, caller, model.RoleClient, model.ActiveStatuses, "Only clients can view appointments")
}

func (s *appointmentService) ClientHistory(ctx context.Context, caller model.Identity) ([]*model.Appointment, error) {
	return s.list(ctx, caller, model.RoleClient, model.HistoryStatuses, "Only clients can view appointments")
}

func (s *appointmentService) ConsultantAppointments(ctx context.Context, caller model.Identity) ([]*model.Appointment, error) {
	return s.list(ctx, caller, model.RoleConsultant, model.ActiveStatuses, "Only consultants can view appointments")
}

func (s *appointmentService) ConsultantHistory(ctx context.Context, caller model.Identity) ([]*model.Appointment, error) {
	return s.list(ctx, caller, model.RoleConsultant, model.HistoryStatuses, "Only consultants can view appointments")
}

func (s *appointmentService) list(ctx context.Context, caller model.Identity, role model.Role, statuses []model.Status, forbidden string) ([]*model.Appointment, error) {
	if caller.Role != role {
		return nil, apperrors.Forbidden(forbidden)
	}
	appointments, err := s.repo.ListByParty(ctx, caller.ID, role, statuses)
	if err != nil {
		return nil, s.unavailable(appointmentStore, err)
	}
	return appointments, nil
}

func (s *appointmentService) Ready(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return apperrors.UnavailableWithCause(appointmentStore, err)
	}
	if err := s.lockRepo.Ping(ctx); err != nil {
		return apperrors.UnavailableWithCause(lockStore, err)
	}
	return nil
}

// notify never fails the operation that triggered it.
func (s *appointmentService) notify(ctx context.Context, eventType model.EventType, a *model.Appointment, recipientID string) {
	event := model.NewAppointmentEvent(eventType, a, recipientID, s.now())
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to send appointment notification",
			"event_type", eventType,
			"appointment_id", a.ID,
			"recipient_id", recipientID,
			"error", err,
		)
	}
}

func (s *appointmentService) lookupError(id string, err error) error {
	switch {
	case errors.Is(err, appointmentserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Appointment", id)
	case errors.Is(err, appointmentserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid appointment ID format")
	default:
		return s.unavailable(appointmentStore, err)
	}
}

func (s *appointmentService) unavailable(store string, err error) error {
	s.cfg.Log.Error("Store operation failed", "store", store, "error", err)
	return apperrors.UnavailableWithCause(store, err)
}

func validationError(message string, err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return apperrors.Validation(message, fieldErrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func overlapsAny(appointments []*model.Appointment, w calendar.Window) bool {
	for _, a := range appointments {
		if a.Overlaps(w.Start, w.End) {
			return true
		}
	}
	return false
}

func ownerOf(a *model.Appointment, role model.Role) string {
	if role == model.RoleConsultant {
		return a.ConsultantID
	}
	return a.ClientID
}

func counterpartOf(a *model.Appointment, actor model.Role) string {
	if actor == model.RoleConsultant {
		return a.ClientID
	}
	return a.ConsultantID
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
