package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/tests"
)

func gradeBody(t *testing.T, student, subject, quarter string, scores grade.Scores) []byte {
	return marchallObj(t, testutil.NewRecord(student, subject, quarter, scores))
}

func decodeRecords(t *testing.T, data []byte) []grade.Record {
	var recs []grade.Record
	require.NoError(t, json.Unmarshal(data, &recs))
	return recs
}

func pngPhoto(t *testing.T, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func Test_gradeApi_auth(t *testing.T) {
	fx := setup(t)

	tests := []httpTest{
		{name: "list", method: http.MethodGet, path: "/v1/grades", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "save", method: http.MethodPost, path: "/v1/grades", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "delete", method: http.MethodDelete, path: "/v1/grades/1", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "export", method: http.MethodGet, path: "/v1/grades/export", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
	}
	runHTTPTests(t, fx.app, tests)
}

func Test_gradeApi_upsertAndList(t *testing.T) {
	fx := setup(t)
	testutil.CreateAccount(t, fx.accRepo, "mary", "pw1")
	token := login(t, fx.app, "mary", "pw1")
	scores := grade.Scores{Test1: 7, Test2: 8, Test3: 9, Final: 15}

	required := "this field is required"
	tests := []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/v1/grades", token: token, body: []byte("{}"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"student_id": required, "student_name": required, "subject": required, "quarter": required,
			}),
		},
		{
			name: "bad quarter", method: http.MethodPost, path: "/v1/grades", token: token,
			body:     gradeBody(t, "101", "Math", "Quarter 9", scores),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"quarter": "quarter must be one of: Quarter 1, Quarter 2, Quarter 3, Quarter 4"}),
		},
		{name: "save", method: http.MethodPost, path: "/v1/grades", token: token, body: gradeBody(t, "101", "Math", grade.Quarter1, scores), wantCode: http.StatusOK},
		{name: "save again", method: http.MethodPost, path: "/v1/grades", token: token, body: gradeBody(t, "101", "Math", grade.Quarter1, scores), wantCode: http.StatusOK},
		{name: "other subject", method: http.MethodPost, path: "/v1/grades", token: token, body: gradeBody(t, "101", "Science", grade.Quarter1, scores), wantCode: http.StatusOK},
	}
	runHTTPTests(t, fx.app, tests)

	req, rec := newAuthRequest(http.MethodGet, "/v1/grades", token)
	fx.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	recs := decodeRecords(t, rec.Body.Bytes())
	require.Len(t, recs, 2)
	assert.Equal(t, "Math", recs[0].Subject)
	assert.Equal(t, 39.0, recs[0].TotalScore)
	assert.Equal(t, "mary", recs[0].RecordedBy)

	q := make(url.Values)
	q.Set("subject", "Science")
	req, rec = newAuthRequest(http.MethodGet, "/v1/grades?"+q.Encode(), token)
	fx.app.ServeHTTP(rec, req)
	recs = decodeRecords(t, rec.Body.Bytes())
	require.Len(t, recs, 1)
	assert.Equal(t, "Science", recs[0].Subject)

	q.Set("subject", grade.AllFilter)
	q.Set("ordering", "-id")
	req, rec = newAuthRequest(http.MethodGet, "/v1/grades?"+q.Encode(), token)
	fx.app.ServeHTTP(rec, req)
	recs = decodeRecords(t, rec.Body.Bytes())
	require.Len(t, recs, 2)
	assert.Equal(t, "Science", recs[0].Subject, "newest first")

	req, rec = newAuthRequest(http.MethodGet, "/v1/grades/filters", token)
	fx.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, grade.FilterOptions{
			Subjects:    []string{"Math", "Science"},
			SchoolYears: []string{"2024-2025"},
			GradeLevels: []string{"Grade 7"},
		}),
	}, rec)
}

func Test_gradeApi_ownership(t *testing.T) {
	fx := setup(t)
	testutil.CreateAccount(t, fx.accRepo, "mary", "pw1")
	testutil.CreateAccount(t, fx.accRepo, "john", "pw2")
	maryToken := login(t, fx.app, "mary", "pw1")
	johnToken := login(t, fx.app, "john", "pw2")

	rec := testutil.CreateRecord(t, fx.grdRepo, grade.Record{
		StudentID: "101", StudentName: "Ann", Subject: "Math", Quarter: grade.Quarter1,
		Scores: grade.Scores{Test1: 7, Test2: 8, Test3: 9, Final: 15}, RecordedBy: "mary",
	})
	detail := fmt.Sprintf("/v1/grades/%d", rec.ID)
	notFound := marchallObj(t, httpErr{Error: "not found"})

	tests := []httpTest{
		{name: "john lists nothing", method: http.MethodGet, path: "/v1/grades", token: johnToken, wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "john cannot delete", method: http.MethodDelete, path: detail, token: johnToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "bad id", method: http.MethodDelete, path: "/v1/grades/abc", token: maryToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "unknown id", method: http.MethodDelete, path: fmt.Sprintf("/v1/grades/%d", rec.ID+1), token: maryToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "mary deletes", method: http.MethodDelete, path: detail, token: maryToken, wantCode: http.StatusNoContent},
		{name: "already deleted", method: http.MethodDelete, path: detail, token: maryToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "mary lists nothing", method: http.MethodGet, path: "/v1/grades", token: maryToken, wantCode: http.StatusOK, wantData: marchallList(t)},
	}
	runHTTPTests(t, fx.app, tests)
}

func Test_gradeApi_photo(t *testing.T) {
	fx := setup(t)
	testutil.CreateAccount(t, fx.accRepo, "mary", "pw1")
	token := login(t, fx.app, "mary", "pw1")
	data := gradeBody(t, "101", "Math", grade.Quarter1, grade.Scores{Test1: 7, Test2: 8, Test3: 9, Final: 15})

	// upload a photo larger than the 120x160 test box
	req, rec := newUploadRequest(t, "/v1/grades", token, data, pngPhoto(t, 300, 200))
	fx.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var saved grade.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.True(t, saved.HasPhoto)

	stored, err := fx.grdRepo.GetRecordByID(req.Context(), saved.ID)
	require.NoError(t, err)
	img, format, err := image.Decode(bytes.NewReader(stored.Photo))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format, "photos are stored as JPEG")
	assert.Equal(t, image.Pt(120, 80), img.Bounds().Size())

	// re-save without a photo keeps it
	req, rec = newUploadRequest(t, "/v1/grades", token, data, nil)
	fx.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.True(t, saved.HasPhoto, "photo preserved")

	// preview
	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/grades/%d/photo?w=30&h=30", saved.ID), token)
	fx.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	preview, _, err := image.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(30, 20), preview.Bounds().Size())

	runHTTPTests(t, fx.app, []httpTest{{
		name: "bad dimension", method: http.MethodGet, path: fmt.Sprintf("/v1/grades/%d/photo?w=0", saved.ID), token: token,
		wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"w": "must be an integer between 1 and 4096"}),
	}})

	// not an image
	req, rec = newUploadRequest(t, "/v1/grades", token, data, []byte("definitely not an image"))
	fx.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// clearing the photo
	nr := testutil.NewRecord("101", "Math", grade.Quarter1, grade.Scores{Test1: 7, Test2: 8, Test3: 9, Final: 15})
	nr.ClearPhoto = true
	req, rec = newAuthRequest(http.MethodPost, "/v1/grades", token, marchallObj(t, nr))
	fx.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.False(t, saved.HasPhoto)

	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/grades/%d/photo", saved.ID), token)
	fx.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_gradeApi_export(t *testing.T) {
	fx := setup(t)
	testutil.CreateAccount(t, fx.accRepo, "mary", "pw1")
	token := login(t, fx.app, "mary", "pw1")

	for _, subject := range []string{"Math", "Science"} {
		testutil.CreateRecord(t, fx.grdRepo, grade.Record{
			StudentID: "101", StudentName: "Ann", Subject: subject, Quarter: grade.Quarter1,
			Scores: grade.Scores{Test1: 7, Test2: 8, Test3: 9, Final: 15}, RecordedBy: "mary",
		})
	}
	testutil.CreateRecord(t, fx.grdRepo, grade.Record{
		StudentID: "102", StudentName: "Ben", Subject: "Math", Quarter: grade.Quarter1, RecordedBy: "john",
	})

	req, rec := newAuthRequest(http.MethodGet, "/v1/grades/export?subject=Math", token)
	fx.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "grades.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2, "header + mary's math record")
	assert.Equal(t, "Student ID", rows[0][1])
	assert.Equal(t, "101", rows[1][1])
	assert.Equal(t, "39", rows[1][13])
}
