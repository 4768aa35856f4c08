package grade

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

var (
	// errors
	ErrNotFound = errors.New("grade record not found")
)

type (
	Repository interface {
		GetRecordByID(ctx context.Context, id int, exec ...core.DBExecutor) (Record, error)
		GetRecordByKey(ctx context.Context, key Key, exec ...core.DBExecutor) (Record, error)
		CreateRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		// QueryRecords returns the records of owner matching the filter (AND), oldest first unless ordered.
		QueryRecords(ctx context.Context, owner string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Record, error)
		QueryFilterOptions(ctx context.Context, owner string, exec ...core.DBExecutor) (FilterOptions, error)
		DeleteRecordsByID(ctx context.Context, ids []int, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		db       core.DB
		repo     Repository
		photos   PhotoNormalizer
		validate *validator.Validate
		nowFunc  func() time.Time
	}
)

func NewService(db core.DB, repo Repository, photos PhotoNormalizer, validate *validator.Validate) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		photos:   photos,
		validate: validate,
		nowFunc:  time.Now,
	}
}

// Upsert saves nr as the Record of its natural key, replacing any existing one.
// The replaced Record's photo is carried forward when nr has none (and does not clear it).
func (svc *Service) Upsert(ctx context.Context, nr NewRecord, owner string) (rec Record, err error) {
	defer func() { observe("upsert", err) }()

	owner = core.CleanString(owner)
	if owner == "" {
		return Record{}, core.NewValidationError(nil, core.FieldError{Field: "recorded_by", Error: "owner is required"})
	}
	if err = nr.Validate(svc.validate); err != nil {
		return Record{}, err
	}

	photo := nr.Photo
	if len(photo) > 0 && svc.photos != nil {
		if photo, err = svc.photos.Normalize(ctx, photo); err != nil {
			return Record{}, core.NewValidationError(err, core.FieldError{Field: "photo", Error: err.Error()})
		}
	}

	rec = Record{
		StudentID:   nr.StudentID,
		ClassNo:     nr.ClassNo,
		StudentName: nr.StudentName,
		GradeLevel:  nr.GradeLevel,
		Room:        nr.Room,
		Subject:     nr.Subject,
		Quarter:     nr.Quarter,
		SchoolYear:  nr.SchoolYear,
		Scores:      nr.Scores,
		TotalScore:  nr.Scores.Total(),
		RecordedBy:  owner,
		CreatedAt:   svc.nowFunc().UTC(),
	}

	err = core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		existing, err := svc.repo.GetRecordByKey(ctx, nr.Key(), tx)
		found := err == nil
		if err != nil && errors.Cause(err) != ErrNotFound {
			return errors.Wrap(err, "finding record by key")
		}

		switch {
		case nr.ClearPhoto:
			rec.Photo = nil
		case len(photo) > 0:
			rec.Photo = photo
		case found:
			rec.Photo = existing.Photo
		}

		if found {
			if _, err = svc.repo.DeleteRecordsByID(ctx, []int{existing.ID}, tx); err != nil {
				return errors.Wrap(err, "deleting replaced record")
			}
		}
		if rec, err = svc.repo.CreateRecord(ctx, rec, tx); err != nil {
			return errors.Wrap(err, "inserting record")
		}
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// DeleteByID removes the Record with the given id, whoever recorded it.
// Fails with ErrNotFound when no such Record exists.
func (svc *Service) DeleteByID(ctx context.Context, id int) (err error) {
	defer func() { observe("delete", err) }()

	n, err := svc.repo.DeleteRecordsByID(ctx, []int{id})
	if err != nil {
		return errors.Wrap(err, "deleting record")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns the Record with the given id if it belongs to owner.
func (svc *Service) GetByID(ctx context.Context, id int, owner string) (Record, error) {
	rec, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.RecordedBy != owner {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// ListByOwner returns the Records of owner that match filter, oldest first by default.
func (svc *Service) ListByOwner(ctx context.Context, owner string, filter *QueryFilter, ordering []core.DBOrdering) (recs []Record, err error) {
	defer func() { observe("list", err) }()

	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryRecords(ctx, owner, filter, ordering)
}

// FilterOptions lists the distinct subjects, school years & grade levels of owner's Records.
func (svc *Service) FilterOptions(ctx context.Context, owner string) (FilterOptions, error) {
	return svc.repo.QueryFilterOptions(ctx, owner)
}
