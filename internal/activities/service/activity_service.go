package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
)

// Store is the persistence the service needs. Insert and Update must re-check
// overlaps atomically with the write.
type Store interface {
	Get(ctx context.Context, id string) (*domain.Activity, error)
	ListByOwnerAndDate(ctx context.Context, ownerID string, date domain.Date) ([]domain.Activity, error)
	ListByOwners(ctx context.Context, ownerIDs []string, from, to *domain.Date) ([]domain.Activity, error)
	ListSubmittedOn(ctx context.Context, date domain.Date) ([]domain.Activity, error)
	Insert(ctx context.Context, a domain.Activity) error
	Update(ctx context.Context, a domain.Activity, expected domain.Status) error
	UpdateStatus(ctx context.Context, id string, from, to domain.Status, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// Directory resolves who a supervisor may read.
type Directory interface {
	SuperviseeIDs(ctx context.Context, supervisorID string) ([]string, error)
}

// ViewCache stores computed dashboards keyed by the owners they read.
type ViewCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, ownerIDs []string, v any) error
	InvalidateOwner(ctx context.Context, ownerID string) error
}

// Observer receives outcome counts.
type Observer interface {
	Rejected(kind string)
	Transitioned(from, to domain.Status)
	BatchOutcome(succeeded bool)
}

// ActivityService orchestrates validation, overlap detection and the
// lifecycle around the store. The owner is always the authenticated caller.
type ActivityService struct {
	store Store
	dir   Directory
	cache ViewCache
	obs   Observer
	now   func() time.Time
	loc   *time.Location
	newID func() string
}

// Option customises an ActivityService.
type Option func(*ActivityService)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *ActivityService) { s.now = now }
}

// WithLocation sets the timezone "today" is taken in.
func WithLocation(loc *time.Location) Option {
	return func(s *ActivityService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithCache(c ViewCache) Option {
	return func(s *ActivityService) { s.cache = c }
}

func WithObserver(o Observer) Option {
	return func(s *ActivityService) { s.obs = o }
}

// WithIDGenerator replaces uuid generation for new activities.
func WithIDGenerator(f func() string) Option {
	return func(s *ActivityService) { s.newID = f }
}

// NewActivityService creates a new ActivityService
func NewActivityService(store Store, dir Directory, opts ...Option) *ActivityService {
	s := &ActivityService{
		store: store,
		dir:   dir,
		cache: noCache{},
		obs:   noObserver{},
		now:   time.Now,
		loc:   time.UTC,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar date in the configured location.
func (s *ActivityService) Today() domain.Date {
	return domain.DateOf(s.now().In(s.loc))
}

// CreateInput is the client-supplied part of a new activity.
type CreateInput struct {
	Date         string
	StartTime    string
	EndTime      string
	ProjectID    string
	Priority     string
	Description  string
	Observations string
	Results      string
	Draft        bool
}

// Create validates, overlap-checks and stores a new activity for ownerID.
func (s *ActivityService) Create(ctx context.Context, ownerID string, in CreateInput) (*domain.Activity, error) {
	logger := NewLogger(ctx)

	v, err := domain.Validate(domain.Candidate{Date: in.Date, StartTime: in.StartTime, EndTime: in.EndTime}, domain.ModeCreate, s.Today())
	if err != nil {
		return nil, s.reject(logger, "create", err)
	}
	priority, err := domain.ParsePriority(in.Priority)
	if err != nil {
		return nil, s.reject(logger, "create", err)
	}

	now := s.now()
	a := domain.Activity{
		ID:           s.newID(),
		OwnerID:      ownerID,
		ProjectID:    in.ProjectID,
		Date:         v.Date,
		Window:       v.Window,
		Status:       domain.InitialStatus(in.Draft),
		Priority:     priority,
		Description:  in.Description,
		Observations: in.Observations,
		Results:      in.Results,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	existing, err := s.store.ListByOwnerAndDate(ctx, ownerID, a.Date)
	if err != nil {
		logger.LogErrorf("create", "owner_id=%s error=%v", ownerID, err)
		return nil, err
	}
	if err := domain.CheckOverlap(a, existing); err != nil {
		return nil, s.reject(logger, "create", err)
	}

	if err := s.store.Insert(ctx, a); err != nil {
		if errors.Is(err, domain.ErrOverlapsExistingActivity) {
			return nil, s.reject(logger, "create", err)
		}
		logger.LogErrorf("create", "owner_id=%s error=%v", ownerID, err)
		return nil, err
	}

	s.invalidate(ctx, logger, ownerID)
	logger.LogInfof("create", "activity_id=%s owner_id=%s date=%s window=%s status=%s", a.ID, ownerID, a.Date, a.Window, a.Status)
	return &a, nil
}

// Get returns one of ownerID's activities. Other owners' activities are
// reported as not found.
func (s *ActivityService) Get(ctx context.Context, ownerID, id string) (*domain.Activity, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// ListMine lists ownerID's activities within an optional inclusive range.
func (s *ActivityService) ListMine(ctx context.Context, ownerID string, from, to *domain.Date) ([]domain.Activity, error) {
	return s.store.ListByOwners(ctx, []string{ownerID}, from, to)
}

// UpdateInput is a partial edit; nil fields are left unchanged.
type UpdateInput struct {
	Date         *string
	StartTime    *string
	EndTime      *string
	ProjectID    *string
	Priority     *string
	Description  *string
	Observations *string
	Results      *string
	Status       *string
}

func (in UpdateInput) touchesSchedule() bool {
	return in.Date != nil || in.StartTime != nil || in.EndTime != nil
}

func (in UpdateInput) statusOnly() bool {
	return in.Status != nil && !in.touchesSchedule() &&
		in.ProjectID == nil && in.Priority == nil && in.Description == nil &&
		in.Observations == nil && in.Results == nil
}

// Update applies a partial edit. Schedule changes are re-validated without
// the past-date rule and re-checked for overlaps excluding the activity
// itself; a status change must be a legal transition.
func (s *ActivityService) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*domain.Activity, error) {
	logger := NewLogger(ctx)

	current, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	next := *current
	if in.Status != nil {
		to, err := domain.ParseStatus(*in.Status)
		if err != nil {
			return nil, s.reject(logger, "update", err)
		}
		next.Status = to
	}
	if next.Status == current.Status && in.statusOnly() {
		if err := domain.CheckTransition(current.Status, next.Status); err != nil {
			return nil, s.reject(logger, "update", err)
		}
		return current, nil
	}
	if !domain.CanEdit(current.Status) {
		return nil, s.reject(logger, "update", &domain.TransitionError{From: current.Status, To: next.Status})
	}
	if err := domain.CheckTransition(current.Status, next.Status); err != nil {
		return nil, s.reject(logger, "update", err)
	}

	if in.touchesSchedule() {
		c := domain.Candidate{
			Date:      current.Date.String(),
			StartTime: current.Window.Start.String(),
			EndTime:   current.Window.End.String(),
		}
		if in.Date != nil {
			c.Date = *in.Date
		}
		if in.StartTime != nil {
			c.StartTime = *in.StartTime
		}
		if in.EndTime != nil {
			c.EndTime = *in.EndTime
		}
		v, err := domain.Validate(c, domain.ModeUpdate, s.Today())
		if err != nil {
			return nil, s.reject(logger, "update", err)
		}
		next.Date = v.Date
		next.Window = v.Window
	}

	if in.Priority != nil {
		p, err := domain.ParsePriority(*in.Priority)
		if err != nil {
			return nil, s.reject(logger, "update", err)
		}
		next.Priority = p
	}
	if in.ProjectID != nil {
		next.ProjectID = *in.ProjectID
	}
	if in.Description != nil {
		next.Description = *in.Description
	}
	if in.Observations != nil {
		next.Observations = *in.Observations
	}
	if in.Results != nil {
		next.Results = *in.Results
	}
	next.UpdatedAt = s.now()

	if in.touchesSchedule() {
		existing, err := s.store.ListByOwnerAndDate(ctx, ownerID, next.Date)
		if err != nil {
			logger.LogErrorf("update", "activity_id=%s error=%v", id, err)
			return nil, err
		}
		if err := domain.CheckOverlap(next, existing); err != nil {
			return nil, s.reject(logger, "update", err)
		}
	}

	if err := s.store.Update(ctx, next, current.Status); err != nil {
		if domain.ErrorKind(err) != "internal" {
			return nil, s.reject(logger, "update", err)
		}
		logger.LogErrorf("update", "activity_id=%s error=%v", id, err)
		return nil, err
	}

	if next.Status != current.Status {
		s.obs.Transitioned(current.Status, next.Status)
	}
	s.invalidate(ctx, logger, ownerID)
	logger.LogInfof("update", "activity_id=%s status=%s", id, next.Status)
	return &next, nil
}

// Start moves a pending activity to in_progress.
func (s *ActivityService) Start(ctx context.Context, ownerID, id string) (*domain.Activity, error) {
	return s.transition(ctx, ownerID, id, domain.ActionStart)
}

// Complete moves a pending or in-progress activity to completed.
func (s *ActivityService) Complete(ctx context.Context, ownerID, id string) (*domain.Activity, error) {
	return s.transition(ctx, ownerID, id, domain.ActionComplete)
}

// Cancel moves a non-completed, non-terminal activity to cancelled.
func (s *ActivityService) Cancel(ctx context.Context, ownerID, id string) (*domain.Activity, error) {
	return s.transition(ctx, ownerID, id, domain.ActionCancel)
}

// Submit moves a draft or completed activity to submitted. Submitting twice
// is not an error.
func (s *ActivityService) Submit(ctx context.Context, ownerID, id string) (*domain.Activity, error) {
	return s.transition(ctx, ownerID, id, domain.ActionSubmit)
}

func (s *ActivityService) transition(ctx context.Context, ownerID, id string, action domain.Action) (*domain.Activity, error) {
	logger := NewLogger(ctx)
	op := string(action)

	a, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	to, err := domain.Apply(a.Status, action)
	if err != nil {
		return nil, s.reject(logger, op, err)
	}
	if to == a.Status {
		return a, nil
	}

	at := s.now()
	if err := s.store.UpdateStatus(ctx, id, a.Status, to, at); err != nil {
		if errors.Is(err, domain.ErrIllegalTransition) {
			return nil, s.reject(logger, op, err)
		}
		logger.LogErrorf(op, "activity_id=%s error=%v", id, err)
		return nil, err
	}

	s.obs.Transitioned(a.Status, to)
	logger.LogInfof(op, "activity_id=%s from=%s to=%s", id, a.Status, to)
	a.Status = to
	a.UpdatedAt = at
	s.invalidate(ctx, logger, ownerID)
	return a, nil
}

// BatchFailure is one id a batch operation could not process.
type BatchFailure struct {
	ID  string
	Err error
}

// BatchResult reports per-id outcomes.
type BatchResult struct {
	Succeeded []string
	Failed    []BatchFailure
}

// SubmitMany submits every id independently: one failure neither blocks nor
// rolls back the others.
func (s *ActivityService) SubmitMany(ctx context.Context, ownerID string, ids []string) BatchResult {
	res := BatchResult{Succeeded: []string{}, Failed: []BatchFailure{}}
	for _, id := range ids {
		if _, err := s.Submit(ctx, ownerID, id); err != nil {
			res.Failed = append(res.Failed, BatchFailure{ID: id, Err: err})
			s.obs.BatchOutcome(false)
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
		s.obs.BatchOutcome(true)
	}
	NewLogger(ctx).LogInfof("submit_many", "owner_id=%s succeeded=%d failed=%d", ownerID, len(res.Succeeded), len(res.Failed))
	return res
}

// Delete removes an activity that has not been submitted.
func (s *ActivityService) Delete(ctx context.Context, ownerID, id string) error {
	logger := NewLogger(ctx)

	a, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := domain.CheckDelete(a.Status); err != nil {
		return s.reject(logger, "delete", err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrIllegalTransition) {
			return s.reject(logger, "delete", err)
		}
		logger.LogErrorf("delete", "activity_id=%s error=%v", id, err)
		return err
	}

	s.invalidate(ctx, logger, ownerID)
	logger.LogInfof("delete", "activity_id=%s", id)
	return nil
}

func (s *ActivityService) reject(logger *Logger, op string, err error) error {
	kind := domain.ErrorKind(err)
	s.obs.Rejected(kind)
	logger.LogWarnf(op, "rejected kind=%s error=%v", kind, err)
	return err
}

func (s *ActivityService) invalidate(ctx context.Context, logger *Logger, ownerID string) {
	if err := s.cache.InvalidateOwner(ctx, ownerID); err != nil {
		logger.LogWarnf("invalidate_cache", "owner_id=%s error=%v", ownerID, err)
	}
}

type noCache struct{}

func (noCache) Get(context.Context, string, any) (bool, error)   { return false, nil }
func (noCache) Set(context.Context, string, []string, any) error { return nil }
func (noCache) InvalidateOwner(context.Context, string) error    { return nil }

type noObserver struct{}

func (noObserver) Rejected(string)                           {}
func (noObserver) Transitioned(domain.Status, domain.Status) {}
func (noObserver) BatchOutcome(bool)                         {}
