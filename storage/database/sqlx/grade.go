package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
)

const gradesTable = "grades"

var (
	gradeColumns = []string{
		"id", "student_id", "class_no", "student_name", "grade_level", "room", "subject", "quarter",
		"school_year", "test1", "test2", "test3", "final_score", "total_score", "recorded_by", "photo", "created_at",
	}

	// orderable fields (as exposed by the API) and their columns
	gradeOrderingColumns = map[string]string{
		"id":           "id",
		"student_id":   "student_id",
		"class_no":     "class_no",
		"student_name": "student_name",
		"grade_level":  "grade_level",
		"room":         "room",
		"subject":      "subject",
		"quarter":      "quarter",
		"school_year":  "school_year",
		"total_score":  "total_score",
		"created_at":   "created_at",
	}
)

type gradeRow struct {
	ID          int         `db:"id"`
	StudentID   string      `db:"student_id"`
	ClassNo     null.String `db:"class_no"`
	StudentName string      `db:"student_name"`
	GradeLevel  null.String `db:"grade_level"`
	Room        null.String `db:"room"`
	Subject     string      `db:"subject"`
	Quarter     string      `db:"quarter"`
	SchoolYear  string      `db:"school_year"`
	Test1       float64     `db:"test1"`
	Test2       float64     `db:"test2"`
	Test3       float64     `db:"test3"`
	Final       float64     `db:"final_score"`
	TotalScore  float64     `db:"total_score"`
	RecordedBy  string      `db:"recorded_by"`
	Photo       null.Bytes  `db:"photo"`
	CreatedAt   time.Time   `db:"created_at"`
}

type gradeRepository struct {
	baseRepository
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(exec core.DBExecutor) *gradeRepository {
	return &gradeRepository{baseRepository{exec: exec}}
}

func (repo gradeRepository) toRow(rec grade.Record) gradeRow {
	return gradeRow{
		ID:          rec.ID,
		StudentID:   rec.StudentID,
		ClassNo:     null.NewString(rec.ClassNo, rec.ClassNo != ""),
		StudentName: rec.StudentName,
		GradeLevel:  null.NewString(rec.GradeLevel, rec.GradeLevel != ""),
		Room:        null.NewString(rec.Room, rec.Room != ""),
		Subject:     rec.Subject,
		Quarter:     rec.Quarter,
		SchoolYear:  rec.SchoolYear,
		Test1:       rec.Test1,
		Test2:       rec.Test2,
		Test3:       rec.Test3,
		Final:       rec.Final,
		TotalScore:  rec.TotalScore,
		RecordedBy:  rec.RecordedBy,
		Photo:       null.NewBytes(rec.Photo, len(rec.Photo) > 0),
		CreatedAt:   rec.CreatedAt.UTC(),
	}
}

func (repo gradeRepository) fromRow(row gradeRow) grade.Record {
	rec := grade.Record{
		ID:          row.ID,
		StudentID:   row.StudentID,
		ClassNo:     row.ClassNo.String,
		StudentName: row.StudentName,
		GradeLevel:  row.GradeLevel.String,
		Room:        row.Room.String,
		Subject:     row.Subject,
		Quarter:     row.Quarter,
		SchoolYear:  row.SchoolYear,
		Scores: grade.Scores{
			Test1: row.Test1,
			Test2: row.Test2,
			Test3: row.Test3,
			Final: row.Final,
		},
		TotalScore: row.TotalScore,
		RecordedBy: row.RecordedBy,
		CreatedAt:  row.CreatedAt.UTC(),
	}
	if row.Photo.Valid && len(row.Photo.Bytes) > 0 {
		rec.Photo = row.Photo.Bytes
		rec.HasPhoto = true
	}
	return rec
}

func (repo gradeRepository) fromRows(rows []gradeRow) []grade.Record {
	recs := make([]grade.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, repo.fromRow(row))
	}
	return recs
}

func (repo gradeRepository) getOne(ctx context.Context, where sq.Sqlizer, exec []core.DBExecutor) (grade.Record, error) {
	var rows []gradeRow
	b := sq.Select(gradeColumns...).From(gradesTable).Where(where).Limit(1)
	if err := selectAll(ctx, repo.getExec(exec), b, &rows); err != nil {
		return grade.Record{}, err
	}
	if len(rows) == 0 {
		return grade.Record{}, grade.ErrNotFound
	}
	return repo.fromRow(rows[0]), nil
}

func (repo gradeRepository) GetRecordByID(ctx context.Context, id int, exec ...core.DBExecutor) (grade.Record, error) {
	rec, err := repo.getOne(ctx, sq.Eq{"id": id}, exec)
	if err != nil && err != grade.ErrNotFound {
		return grade.Record{}, errors.Wrap(err, "finding record by ID")
	}
	return rec, err
}

func (repo gradeRepository) GetRecordByKey(ctx context.Context, key grade.Key, exec ...core.DBExecutor) (grade.Record, error) {
	rec, err := repo.getOne(ctx, sq.Eq{
		"student_id":  key.StudentID,
		"subject":     key.Subject,
		"quarter":     key.Quarter,
		"school_year": key.SchoolYear,
	}, exec)
	if err != nil && err != grade.ErrNotFound {
		return grade.Record{}, errors.Wrap(err, "finding record by key")
	}
	return rec, err
}

func (repo gradeRepository) CreateRecord(ctx context.Context, rec grade.Record, exec ...core.DBExecutor) (grade.Record, error) {
	row := repo.toRow(rec)
	id, err := insertNamed(ctx, repo.getExec(exec), `
		INSERT INTO grades (
			student_id, class_no, student_name, grade_level, room, subject, quarter, school_year,
			test1, test2, test3, final_score, total_score, recorded_by, photo, created_at
		) VALUES (
			:student_id, :class_no, :student_name, :grade_level, :room, :subject, :quarter, :school_year,
			:test1, :test2, :test3, :final_score, :total_score, :recorded_by, :photo, :created_at
		)`,
		row,
	)
	if err != nil {
		return grade.Record{}, errors.Wrap(err, "inserting record")
	}
	row.ID = id
	return repo.fromRow(row), nil
}

func (repo gradeRepository) QueryRecords(
	ctx context.Context,
	owner string,
	filter *grade.QueryFilter,
	ordering []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]grade.Record, error) {
	where := sq.Eq{"recorded_by": owner}
	if filter != nil {
		if filter.Subject != "" {
			where["subject"] = filter.Subject
		}
		if filter.SchoolYear != "" {
			where["school_year"] = filter.SchoolYear
		}
		if filter.GradeLevel != "" {
			where["grade_level"] = filter.GradeLevel
		}
	}

	var rows []gradeRow
	b := sq.Select(gradeColumns...).
		From(gradesTable).
		Where(where).
		OrderBy(orderBy(ordering, gradeOrderingColumns, "id")...)
	if err := selectAll(ctx, repo.getExec(exec), b, &rows); err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	return repo.fromRows(rows), nil
}

func (repo gradeRepository) QueryFilterOptions(ctx context.Context, owner string, exec ...core.DBExecutor) (grade.FilterOptions, error) {
	exe := repo.getExec(exec)
	distinct := func(col string) ([]string, error) {
		b := sq.Select(col).
			Distinct().
			From(gradesTable).
			Where(sq.Eq{"recorded_by": owner}).
			OrderBy(col + " ASC")
		vals, err := selectStrings(ctx, exe, b)
		if err != nil {
			return nil, errors.Wrapf(err, "querying distinct %s", col)
		}
		return vals, nil
	}

	var opts grade.FilterOptions
	var err error
	if opts.Subjects, err = distinct("subject"); err != nil {
		return grade.FilterOptions{}, err
	}
	if opts.SchoolYears, err = distinct("school_year"); err != nil {
		return grade.FilterOptions{}, err
	}
	if opts.GradeLevels, err = distinct("grade_level"); err != nil {
		return grade.FilterOptions{}, err
	}
	return opts, nil
}

func (repo gradeRepository) DeleteRecordsByID(ctx context.Context, ids []int, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sq.Delete(gradesTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := repo.getExec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(trapFatal(err), "deleting records")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted records")
	}
	return int(n), nil
}
