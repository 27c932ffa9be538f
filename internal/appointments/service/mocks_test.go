package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	appointmentserrors "consultly/internal/appointments/errors"
	"consultly/pkg/model"
)

// ────────────────────────────────────────────────
// Appointment store: in-memory by default, overridable per call
// ────────────────────────────────────────────────

type mockAppointmentRepository struct {
	mu           sync.Mutex
	appointments map[string]*model.Appointment
	nextID       int

	createFunc      func(ctx context.Context, a *model.Appointment) error
	findOverlapFunc func(ctx context.Context, consultantID string, start, end time.Time, statuses []model.Status) ([]*model.Appointment, error)
	updateFunc      func(ctx context.Context, id string, from []model.Status, to model.Status) (*model.Appointment, error)
	listFunc        func(ctx context.Context, partyID string, role model.Role, statuses []model.Status) ([]*model.Appointment, error)
	pingFunc        func(ctx context.Context) error
}

func newMockAppointmentRepository(seed ...*model.Appointment) *mockAppointmentRepository {
	m := &mockAppointmentRepository{appointments: map[string]*model.Appointment{}}
	for _, a := range seed {
		copied := *a
		m.appointments[a.ID] = &copied
	}
	return m
}

func (m *mockAppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.Status.In(model.ActiveStatuses) {
		for _, existing := range m.appointments {
			if existing.ConsultantID == a.ConsultantID && existing.StartAt.Equal(a.StartAt) && existing.Status.In(model.ActiveStatuses) {
				return fmt.Errorf("%w: %s", appointmentserrors.ErrSlotTaken, existing.ID)
			}
		}
	}
	m.nextID++
	a.ID = fmt.Sprintf("appt-%d", m.nextID)
	copied := *a
	m.appointments[a.ID] = &copied
	return nil
}

func (m *mockAppointmentRepository) FindByID(_ context.Context, id string) (*model.Appointment, error) {
	if strings.HasPrefix(id, "bad") {
		return nil, appointmentserrors.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, appointmentserrors.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockAppointmentRepository) UpdateStatus(ctx context.Context, id string, from []model.Status, to model.Status) (*model.Appointment, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, from, to)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, appointmentserrors.ErrNotFound
	}
	if !a.Status.In(from) {
		return nil, appointmentserrors.ErrStatusChanged
	}
	a.Status = to
	copied := *a
	return &copied, nil
}

func (m *mockAppointmentRepository) FindOverlap(ctx context.Context, consultantID string, start, end time.Time, statuses []model.Status) ([]*model.Appointment, error) {
	if m.findOverlapFunc != nil {
		return m.findOverlapFunc(ctx, consultantID, start, end, statuses)
	}
	return m.overlapping(consultantID, start, end, statuses), nil
}

func (m *mockAppointmentRepository) overlapping(consultantID string, start, end time.Time, statuses []model.Status) []*model.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Appointment{}
	for _, a := range m.appointments {
		if a.ConsultantID == consultantID && a.Status.In(statuses) && a.Overlaps(start, end) {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out
}

func (m *mockAppointmentRepository) ListByParty(ctx context.Context, partyID string, role model.Role, statuses []model.Status) ([]*model.Appointment, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, partyID, role, statuses)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Appointment{}
	for _, a := range m.appointments {
		owner := a.ClientID
		if role == model.RoleConsultant {
			owner = a.ConsultantID
		}
		if owner == partyID && a.Status.In(statuses) {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

// ExecuteTransaction gives no isolation between callers; only the unique
// active-slot check in Create stops a double booking.
func (m *mockAppointmentRepository) ExecuteTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *mockAppointmentRepository) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

func (m *mockAppointmentRepository) get(id string) *model.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appointments[id]
}

// ────────────────────────────────────────────────
// Lock store driven by the test clock
// ────────────────────────────────────────────────

type fakeLock struct {
	holder    string
	expiresAt time.Time
}

type mockSlotLockRepository struct {
	mu    sync.Mutex
	now   func() time.Time
	locks map[string]fakeLock

	releases int
	err      error
}

func newMockSlotLockRepository(now func() time.Time) *mockSlotLockRepository {
	return &mockSlotLockRepository{now: now, locks: map[string]fakeLock{}}
}

func (m *mockSlotLockRepository) live(key string) (fakeLock, bool) {
	l, ok := m.locks[key]
	if !ok || !l.expiresAt.After(m.now()) {
		return fakeLock{}, false
	}
	return l, true
}

func (m *mockSlotLockRepository) Acquire(_ context.Context, consultantID string, slotStart time.Time, clientID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	prefix := model.SlotLockConsultantPrefix(consultantID)
	for key := range m.locks {
		if l, ok := m.live(key); ok && l.holder == clientID && strings.HasPrefix(key, prefix) {
			delete(m.locks, key)
		}
	}
	key := model.SlotLockKey(consultantID, slotStart)
	if _, held := m.live(key); held {
		return false, nil
	}
	m.locks[key] = fakeLock{holder: clientID, expiresAt: m.now().Add(ttl)}
	return true, nil
}

func (m *mockSlotLockRepository) Release(_ context.Context, consultantID string, slotStart time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.releases++
	delete(m.locks, model.SlotLockKey(consultantID, slotStart))
	return nil
}

func (m *mockSlotLockRepository) Peek(_ context.Context, consultantID string, slotStart time.Time) (*model.SlotLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	key := model.SlotLockKey(consultantID, slotStart)
	l, ok := m.live(key)
	if !ok {
		return nil, nil
	}
	return &model.SlotLock{Key: key, Holder: l.holder, ExpiresAt: l.expiresAt}, nil
}

func (m *mockSlotLockRepository) Ping(context.Context) error {
	return m.err
}

func (m *mockSlotLockRepository) heldBy(consultantID, clientID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for key := range m.locks {
		if l, ok := m.live(key); ok && l.holder == clientID && strings.HasPrefix(key, model.SlotLockConsultantPrefix(consultantID)) {
			keys = append(keys, key)
		}
	}
	return keys
}

// ────────────────────────────────────────────────
// Notifier
// ────────────────────────────────────────────────

type mockNotifier struct {
	mu     sync.Mutex
	events []model.AppointmentEvent
	err    error
}

func (m *mockNotifier) Notify(_ context.Context, event model.AppointmentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *mockNotifier) sent() []model.AppointmentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AppointmentEvent(nil), m.events...)
}
