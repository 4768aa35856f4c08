package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
)

const (
	mimeXLSX       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportFilename = "grades.xlsx"
)

type gradeApi struct {
	svc        *grade.Service
	photos     PhotoPreviewer
	maxUpload  int64
	previewDim int
}

func registerGradeAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *grade.Service, photos PhotoPreviewer, conf *core.Config) {
	api := gradeApi{
		svc:        svc,
		photos:     photos,
		maxUpload:  conf.Server.MaxUploadSize,
		previewDim: conf.Server.DefaultPreviewDimension,
	}

	gg := g.Group("/grades", authed...)
	gg.GET("", api.list)
	gg.GET("/filters", api.filters)
	gg.GET("/export", api.export)
	if api.maxUpload > 0 {
		// room for the form encoding around the photo
		limit := strconv.FormatInt(api.maxUpload+(64<<10), 10) + "B"
		gg.POST("", api.upsert, middleware.BodyLimit(limit))
	} else {
		gg.POST("", api.upsert)
	}

	// detail endpoints
	gg.DELETE("/:id", api.destroy)
	gg.GET("/:id/photo", api.photo)
}

func (api *gradeApi) queryParams(ctx echo.Context) (*grade.QueryFilter, []core.DBOrdering, error) {
	var filter grade.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return nil, nil, errors.Wrap(err, "binding to QueryFilter")
	}
	var ord Ordering
	ord.Bind(ctx)
	return &filter, ord.Orderings, nil
}

func (api *gradeApi) ownRecord(ctx echo.Context, owner string) (grade.Record, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return grade.Record{}, errHttpNotFound
	}
	rec, err := api.svc.GetByID(ctx.Request().Context(), id, owner)
	if err != nil {
		if errors.Cause(err) == grade.ErrNotFound {
			return grade.Record{}, errHttpNotFound
		}
		return grade.Record{}, errors.Wrap(err, "getting record")
	}
	return rec, nil
}

// Handlers

func (api *gradeApi) list(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	filter, ordering, err := api.queryParams(ctx)
	if err != nil {
		return err
	}

	recs, err := api.svc.ListByOwner(ctx.Request().Context(), sess.Username, filter, ordering)
	if err != nil {
		return errors.Wrap(err, "listing records")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *gradeApi) filters(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	opts, err := api.svc.FilterOptions(ctx.Request().Context(), sess.Username)
	if err != nil {
		return errors.Wrap(err, "listing filter options")
	}
	return ctx.JSON(http.StatusOK, opts)
}

func (api *gradeApi) upsert(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	nr, err := bindNewRecord(ctx, api.maxUpload)
	if err != nil {
		return err
	}

	rec, err := api.svc.Upsert(ctx.Request().Context(), nr, sess.Username)
	if err != nil {
		return errors.Wrap(err, "saving record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

// destroy deletes one of the teacher's own records.
func (api *gradeApi) destroy(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	rec, err := api.ownRecord(ctx, sess.Username)
	if err != nil {
		return err
	}

	if err = api.svc.DeleteByID(ctx.Request().Context(), rec.ID); err != nil {
		if errors.Cause(err) == grade.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting record")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradeApi) photo(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	rec, err := api.ownRecord(ctx, sess.Username)
	if err != nil {
		return err
	}
	if !rec.HasPhoto {
		return errNoPhoto
	}

	w, err := dimensionParam(ctx, "w", api.previewDim)
	if err != nil {
		return err
	}
	h, err := dimensionParam(ctx, "h", api.previewDim)
	if err != nil {
		return err
	}

	data, err := api.photos.PreviewJPEG(rec.Photo, w, h)
	if err != nil {
		return errBadPhoto
	}
	return ctx.Blob(http.StatusOK, "image/jpeg", data)
}

// export serves the (filtered) records of the teacher as a spreadsheet. Photos are embedded with ?photos=true.
func (api *gradeApi) export(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	filter, ordering, err := api.queryParams(ctx)
	if err != nil {
		return err
	}
	includePhoto, _ := strconv.ParseBool(ctx.QueryParam("photos"))

	recs, err := api.svc.ListByOwner(ctx.Request().Context(), sess.Username, filter, ordering)
	if err != nil {
		return errors.Wrap(err, "listing records")
	}
	data, err := grade.ExportTable(recs, includePhoto)
	if err != nil {
		return errors.Wrap(err, "exporting records")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+exportFilename+`"`)
	return ctx.Blob(http.StatusOK, mimeXLSX, data)
}
