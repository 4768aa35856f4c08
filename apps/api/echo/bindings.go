package echoapi

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
)

var (
	orderingParam = "ordering"

	// multipart fields of a grade upload
	recordDataField  = "data"
	recordPhotoField = "photo"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindNewRecord reads a grade.NewRecord from a JSON body, or from a multipart form
// holding the JSON in its "data" field & the photo file in its "photo" field.
func bindNewRecord(ctx echo.Context, maxPhotoSize int64) (grade.NewRecord, error) {
	var nr grade.NewRecord

	if !strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		if err := ctx.Bind(&nr); err != nil {
			return nr, errors.Wrap(err, "binding to NewRecord")
		}
		return nr, nil
	}

	if err := json.Unmarshal([]byte(ctx.FormValue(recordDataField)), &nr); err != nil {
		return nr, core.NewValidationError(err, core.FieldError{Field: recordDataField, Error: "invalid JSON: " + err.Error()})
	}

	fh, err := ctx.FormFile(recordPhotoField)
	switch {
	case err == http.ErrMissingFile:
		return nr, nil
	case err != nil:
		return nr, errors.Wrap(err, "reading photo")
	case maxPhotoSize > 0 && fh.Size > maxPhotoSize:
		return nr, core.NewValidationError(nil, core.FieldError{
			Field: recordPhotoField,
			Error: "photo must not be larger than " + strconv.FormatInt(maxPhotoSize>>10, 10) + " KiB",
		})
	}

	f, err := fh.Open()
	if err != nil {
		return nr, errors.Wrap(err, "opening photo")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if maxPhotoSize > 0 {
		r = io.LimitReader(f, maxPhotoSize)
	}
	if nr.Photo, err = ioutil.ReadAll(r); err != nil {
		return nr, errors.Wrap(err, "reading photo")
	}
	return nr, nil
}

// dimensionParam reads a positive integer query param, falling back to def.
func dimensionParam(ctx echo.Context, name string, def int) (int, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 || n > 4096 {
		return 0, core.NewValidationError(nil, core.FieldError{Field: name, Error: "must be an integer between 1 and 4096"})
	}
	return n, nil
}
