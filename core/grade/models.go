package grade

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

// Quarters
const (
	Quarter1 = "Quarter 1"
	Quarter2 = "Quarter 2"
	Quarter3 = "Quarter 3"
	Quarter4 = "Quarter 4"
)

// AllFilter is the filter value that matches everything.
const AllFilter = "All"

var Quarters = []string{Quarter1, Quarter2, Quarter3, Quarter4}

// Scores holds the weighted component scores of a Record.
type Scores struct {
	Test1 float64 `json:"test1" validate:"gte=0,lte=10"`
	Test2 float64 `json:"test2" validate:"gte=0,lte=10"`
	Test3 float64 `json:"test3" validate:"gte=0,lte=10"`
	Final float64 `json:"final_score" validate:"gte=0,lte=20"`
}

// Total is the sum of the four component scores.
func (s Scores) Total() float64 {
	return s.Test1 + s.Test2 + s.Test3 + s.Final
}

// Key is the natural key of a Record.
type Key struct {
	StudentID  string
	Subject    string
	Quarter    string
	SchoolYear string
}

// Record is a single grade entry.
type Record struct {
	ID          int    `json:"id"`
	StudentID   string `json:"student_id"`
	ClassNo     string `json:"class_no"`
	StudentName string `json:"student_name"`
	GradeLevel  string `json:"grade_level"`
	Room        string `json:"room"`
	Subject     string `json:"subject"`
	Quarter     string `json:"quarter"`
	SchoolYear  string `json:"school_year"`
	Scores
	TotalScore float64   `json:"total_score"`
	RecordedBy string    `json:"recorded_by"`
	Photo      []byte    `json:"-"`
	HasPhoto   bool      `json:"has_photo"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

func (r Record) Key() Key {
	return Key{
		StudentID:  r.StudentID,
		Subject:    r.Subject,
		Quarter:    r.Quarter,
		SchoolYear: r.SchoolYear,
	}
}

// RawScore is a score as counted on the paper: Score correct answers out of Items.
type RawScore struct {
	Score float64 `json:"score"`
	Items float64 `json:"items"`
}

// RawScores holds unweighted component scores.
type RawScores struct {
	Test1 RawScore `json:"test1"`
	Test2 RawScore `json:"test2"`
	Test3 RawScore `json:"test3"`
	Final RawScore `json:"final_score"`
}

// Weighted rescales the raw scores: tests out of TestMax, final out of FinalMax.
func (rs RawScores) Weighted() (Scores, error) {
	var s Scores
	var err error
	if s.Test1, err = ComputeWeightedScore(rs.Test1.Score, rs.Test1.Items, TestMax); err != nil {
		return Scores{}, errors.Wrap(err, "test1")
	}
	if s.Test2, err = ComputeWeightedScore(rs.Test2.Score, rs.Test2.Items, TestMax); err != nil {
		return Scores{}, errors.Wrap(err, "test2")
	}
	if s.Test3, err = ComputeWeightedScore(rs.Test3.Score, rs.Test3.Items, TestMax); err != nil {
		return Scores{}, errors.Wrap(err, "test3")
	}
	if s.Final, err = ComputeWeightedScore(rs.Final.Score, rs.Final.Items, FinalMax); err != nil {
		return Scores{}, errors.Wrap(err, "final_score")
	}
	return s, nil
}

// NewRecord contains information needed to save a Record.
//
// Scores are taken as already weighted unless Raw is set, in which case they are computed from it.
// A nil Photo keeps the photo of the Record being replaced; ClearPhoto drops it.
type NewRecord struct {
	StudentID   string `json:"student_id" validate:"required,max=32"`
	ClassNo     string `json:"class_no" validate:"max=16"`
	StudentName string `json:"student_name" validate:"required,max=128"`
	GradeLevel  string `json:"grade_level" validate:"max=32"`
	Room        string `json:"room" validate:"max=32"`
	Subject     string `json:"subject" validate:"required,max=64"`
	Quarter     string `json:"quarter" validate:"required,quarter"`
	SchoolYear  string `json:"school_year" validate:"omitempty,schoolyear"`
	Scores
	Raw        *RawScores `json:"raw,omitempty" validate:"-"`
	Photo      []byte     `json:"-" validate:"-"`
	ClearPhoto bool       `json:"clear_photo"`
}

func (nr *NewRecord) clean() {
	nr.StudentID = core.CleanString(nr.StudentID)
	nr.ClassNo = core.CleanString(nr.ClassNo)
	nr.StudentName = core.CleanString(nr.StudentName)
	nr.GradeLevel = core.CleanString(nr.GradeLevel)
	nr.Room = core.CleanString(nr.Room)
	nr.Subject = core.CleanString(nr.Subject)
	nr.Quarter = core.CleanString(nr.Quarter)
	nr.SchoolYear = core.CleanString(nr.SchoolYear)
}

// Validate cleans the NewRecord, weights its raw scores if any, then validates it.
func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.clean()

	if nr.Raw != nil {
		scores, err := nr.Raw.Weighted()
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "raw", Error: err.Error()})
		}
		nr.Scores = scores
	}
	return validate.Struct(nr)
}

func (nr NewRecord) Key() Key {
	return Key{
		StudentID:  nr.StudentID,
		Subject:    nr.Subject,
		Quarter:    nr.Quarter,
		SchoolYear: nr.SchoolYear,
	}
}

// QueryFilter narrows down an owner's records. Empty or AllFilter values are ignored.
type QueryFilter struct {
	Subject    string `query:"subject"`
	SchoolYear string `query:"school_year"`
	GradeLevel string `query:"grade_level"`
}

func (qf *QueryFilter) Clean() {
	clean := func(s string) string {
		s = core.CleanString(s)
		if s == AllFilter {
			return ""
		}
		return s
	}
	qf.Subject = clean(qf.Subject)
	qf.SchoolYear = clean(qf.SchoolYear)
	qf.GradeLevel = clean(qf.GradeLevel)
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Subject == "" && qf.SchoolYear == "" && qf.GradeLevel == ""
}

// Match reports whether r passes the (cleaned) filter.
func (qf *QueryFilter) Match(r Record) bool {
	return (qf.Subject == "" || qf.Subject == r.Subject) &&
		(qf.SchoolYear == "" || qf.SchoolYear == r.SchoolYear) &&
		(qf.GradeLevel == "" || qf.GradeLevel == r.GradeLevel)
}

// FilterOptions lists the distinct values an owner can filter on.
type FilterOptions struct {
	Subjects    []string `json:"subjects"`
	SchoolYears []string `json:"school_years"`
	GradeLevels []string `json:"grade_levels"`
}

// PhotoNormalizer prepares uploaded photos for storage.
type PhotoNormalizer interface {
	Normalize(ctx context.Context, data []byte) ([]byte, error)
}
