package usecase

import (
	"context"
	"errors"
	"math"

	"advisor-booking/internal/converter"
	"advisor-booking/internal/delivery/dto"
	"advisor-booking/internal/domain/entity"
	"advisor-booking/internal/domain/repository"
	"advisor-booking/internal/service"
	"advisor-booking/internal/slot"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAdvisorNotFound       = errors.New("advisor not found")
	ErrAdvisorNotOwned       = errors.New("you can only edit your own advisor profile")
	ErrDuplicateWorkingDay   = errors.New("working hours for this day already exist")
	ErrInvalidWorkingHours   = errors.New("working hours must be HH:MM with start before end")
	ErrInvalidWorkingWeekday = errors.New("invalid day of week")
)

const (
	defaultSearchPageSize = 10
	maxSearchPageSize     = 50
)

type AdvisorUsecase interface {
	GetAdvisor(ctx context.Context, id uuid.UUID) (*dto.AdvisorResponse, error)
	SearchAdvisors(ctx context.Context, query *dto.AdvisorSearchQuery) (*dto.AdvisorSearchResponse, error)
	AddWorkingHours(ctx context.Context, advisorID uuid.UUID, req *dto.WorkingHoursRequest) ([]dto.WorkingHoursResponse, error)
	ReplaceWorkingHours(ctx context.Context, advisorID uuid.UUID, req *dto.ReplaceWorkingHoursRequest) ([]dto.WorkingHoursResponse, error)
	SetAvailable(ctx context.Context, advisorID uuid.UUID, available bool) error
}

type advisorUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	advisorRepo      repository.AdvisorRepository
	workingHoursRepo repository.WorkingHoursRepository
	auditService     service.AuditService
	slots            SlotStore
}

func NewAdvisorUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	advisorRepo repository.AdvisorRepository,
	workingHoursRepo repository.WorkingHoursRepository,
	auditService service.AuditService,
	slots SlotStore,
) AdvisorUsecase {
	return &advisorUsecase{
		db:               db,
		log:              log,
		advisorRepo:      advisorRepo,
		workingHoursRepo: workingHoursRepo,
		auditService:     auditService,
		slots:            slots,
	}
}

func (u *advisorUsecase) GetAdvisor(ctx context.Context, id uuid.UUID) (*dto.AdvisorResponse, error) {
	advisor, err := u.advisorRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find advisor %s: %+v", id, err)
		return nil, err
	}
	if advisor == nil {
		return nil, ErrAdvisorNotFound
	}
	return converter.AdvisorToResponse(advisor), nil
}

func (u *advisorUsecase) SearchAdvisors(ctx context.Context, query *dto.AdvisorSearchQuery) (*dto.AdvisorSearchResponse, error) {
	size := query.Size
	if size <= 0 {
		size = defaultSearchPageSize
	}
	if size > maxSearchPageSize {
		size = maxSearchPageSize
	}
	page := query.Page
	if page < 0 {
		page = 0
	}

	filter := &entity.AdvisorFilter{
		Query:          query.Query,
		Specialization: query.Specialization,
		Language:       query.Language,
		MinRating:      query.MinRating,
		MaxFee:         query.MaxFee,
		Available:      query.Available,
		SortBy:         query.SortBy,
		SortAsc:        query.SortDir == "asc",
		Page:           page,
		Size:           size,
	}

	advisors, total, err := u.advisorRepo.Search(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to search advisors: %+v", err)
		return nil, err
	}

	return &dto.AdvisorSearchResponse{
		Advisors:    converter.AdvisorsToResponses(advisors),
		TotalCount:  total,
		CurrentPage: page,
		TotalPages:  int(math.Ceil(float64(total) / float64(size))),
	}, nil
}

// AddWorkingHours adds a single weekday entry. A weekday may appear only once.
func (u *advisorUsecase) AddWorkingHours(ctx context.Context, advisorID uuid.UUID, req *dto.WorkingHoursRequest) ([]dto.WorkingHoursResponse, error) {
	c, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	entry := converter.WorkingHoursRequestToEntity(req)
	if err := validateWorkingHours(entry); err != nil {
		return nil, err
	}

	if _, err := u.editableAdvisor(ctx, c, advisorID); err != nil {
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	existing, err := u.workingHoursRepo.FindByAdvisorID(tx, advisorID)
	if err != nil {
		u.log.Warnf("Failed to load working hours of advisor %s: %+v", advisorID, err)
		return nil, err
	}
	for _, wh := range existing {
		if wh.DayOfWeek == entry.DayOfWeek {
			return nil, ErrDuplicateWorkingDay
		}
	}

	entry.AdvisorID = advisorID
	if err := u.workingHoursRepo.Create(tx, &entry); err != nil {
		// a concurrent request added the same weekday after our check
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateWorkingDay
		}
		u.log.Warnf("Failed to create working hours for advisor %s: %+v", advisorID, err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &c.UserID, entity.AuditActionWorkingHoursAdd, "advisor_working_hours", advisorID.String(), entry); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit working hours for advisor %s: %+v", advisorID, err)
		return nil, err
	}

	u.invalidate(ctx, advisorID)
	u.log.Infof("Working hours added: advisor=%s, day=%s", advisorID, entry.DayOfWeek)

	hours := append(existing, entry)
	entity.SortWorkingHours(hours)
	return converter.WorkingHoursToResponses(hours), nil
}

// ReplaceWorkingHours swaps the whole weekly template.
func (u *advisorUsecase) ReplaceWorkingHours(ctx context.Context, advisorID uuid.UUID, req *dto.ReplaceWorkingHoursRequest) ([]dto.WorkingHoursResponse, error) {
	c, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	hours := make([]entity.WorkingHours, 0, len(req.WorkingHours))
	seen := make(map[entity.Weekday]struct{}, len(req.WorkingHours))
	for i := range req.WorkingHours {
		entry := converter.WorkingHoursRequestToEntity(&req.WorkingHours[i])
		if err := validateWorkingHours(entry); err != nil {
			return nil, err
		}
		if _, dup := seen[entry.DayOfWeek]; dup {
			return nil, ErrDuplicateWorkingDay
		}
		seen[entry.DayOfWeek] = struct{}{}
		hours = append(hours, entry)
	}

	if _, err := u.editableAdvisor(ctx, c, advisorID); err != nil {
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	old, err := u.workingHoursRepo.FindByAdvisorID(tx, advisorID)
	if err != nil {
		u.log.Warnf("Failed to load working hours of advisor %s: %+v", advisorID, err)
		return nil, err
	}

	if err := u.workingHoursRepo.ReplaceAll(tx, advisorID, hours); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateWorkingDay
		}
		u.log.Warnf("Failed to replace working hours for advisor %s: %+v", advisorID, err)
		return nil, err
	}

	if err := u.auditService.LogUpdate(ctx, tx, &c.UserID, entity.AuditActionWorkingHoursSet, "advisor_working_hours", advisorID.String(), old, hours); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit working hours for advisor %s: %+v", advisorID, err)
		return nil, err
	}

	u.invalidate(ctx, advisorID)
	u.log.Infof("Working hours replaced: advisor=%s, days=%d", advisorID, len(hours))

	entity.SortWorkingHours(hours)
	return converter.WorkingHoursToResponses(hours), nil
}

func (u *advisorUsecase) SetAvailable(ctx context.Context, advisorID uuid.UUID, available bool) error {
	c, err := callerFromContext(ctx)
	if err != nil {
		return err
	}

	advisor, err := u.editableAdvisor(ctx, c, advisorID)
	if err != nil {
		return err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	affected, err := u.advisorRepo.UpdateAvailable(tx, advisorID, available)
	if err != nil {
		u.log.Warnf("Failed to update availability of advisor %s: %+v", advisorID, err)
		return err
	}
	if affected == 0 {
		return ErrAdvisorNotFound
	}

	if err := u.auditService.LogUpdate(ctx, tx, &c.UserID, entity.AuditActionAdvisorAvailable, "advisors", advisorID.String(), advisor.IsAvailable(), available); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit availability of advisor %s: %+v", advisorID, err)
		return err
	}

	u.invalidate(ctx, advisorID)
	u.log.Infof("Advisor availability changed: advisor=%s, available=%t", advisorID, available)
	return nil
}

// editableAdvisor loads the advisor and checks the caller may edit it
func (u *advisorUsecase) editableAdvisor(ctx context.Context, c caller, advisorID uuid.UUID) (*entity.Advisor, error) {
	advisor, err := u.advisorRepo.FindByID(u.db.WithContext(ctx), advisorID)
	if err != nil {
		u.log.Warnf("Failed to find advisor %s: %+v", advisorID, err)
		return nil, err
	}
	if advisor == nil {
		return nil, ErrAdvisorNotFound
	}
	if !c.IsAdmin() && !advisor.OwnedBy(c.UserID) {
		return nil, ErrAdvisorNotOwned
	}
	return advisor, nil
}

func (u *advisorUsecase) invalidate(ctx context.Context, advisorID uuid.UUID) {
	if err := u.slots.InvalidateAdvisor(ctx, advisorID); err != nil {
		// cache entries expire on their own
		u.log.Warnf("Failed to invalidate availability cache for advisor %s (non-fatal): %+v", advisorID, err)
	}
}

func validateWorkingHours(wh entity.WorkingHours) error {
	if !wh.DayOfWeek.Valid() {
		return ErrInvalidWorkingWeekday
	}
	if err := slot.ValidateWindow(wh.StartTime, wh.EndTime); err != nil {
		return ErrInvalidWorkingHours
	}
	return nil
}
