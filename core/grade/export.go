package grade

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Grades"

var (
	exportHeader = []interface{}{
		"ID", "Student ID", "Class No", "Student Name", "Grade Level", "Room", "Subject", "Quarter",
		"School Year", "Test 1", "Test 2", "Test 3", "Final", "Total", "Recorded By",
	}
	photoHeader = "Photo"

	pictureExts = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/gif":  ".gif",
	}
)

func exportRow(r Record) []interface{} {
	return []interface{}{
		r.ID, r.StudentID, r.ClassNo, r.StudentName, r.GradeLevel, r.Room, r.Subject, r.Quarter,
		r.SchoolYear, r.Test1, r.Test2, r.Test3, r.Final, r.TotalScore, r.RecordedBy,
	}
}

// ExportTable serializes records into an XLSX workbook: a header row, then one row per Record.
// The photo column is only added when includePhoto is set; photos are embedded as pictures.
func ExportTable(records []Record, includePhoto bool) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}

	header := exportHeader
	if includePhoto {
		header = append(append([]interface{}{}, exportHeader...), photoHeader)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, errors.Wrap(err, "writing header")
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(exportSheet, 1, 1, style)
	}

	for i, rec := range records {
		rowNum := i + 2
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return nil, errors.Wrap(err, "locating row")
		}
		row := exportRow(rec)
		if err = f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "writing record %d", rec.ID)
		}

		if includePhoto && len(rec.Photo) > 0 {
			if err = addPhoto(f, len(exportHeader)+1, rowNum, rec.Photo); err != nil {
				return nil, errors.Wrapf(err, "embedding photo of record %d", rec.ID)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf.Bytes(), nil
}

func addPhoto(f *excelize.File, col, row int, photo []byte) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	ext, ok := pictureExts[http.DetectContentType(photo)]
	if !ok {
		return f.SetCellValue(exportSheet, cell, "(unsupported image)")
	}
	return f.AddPictureFromBytes(exportSheet, cell, &excelize.Picture{
		Extension: ext,
		File:      photo,
		Format:    &excelize.GraphicOptions{AutoFit: true},
	})
}
