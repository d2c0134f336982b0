package handlers_test

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/reunite-app/missing-persons-api/api"
	"github.com/reunite-app/missing-persons-api/api/handlers"
	"github.com/reunite-app/missing-persons-api/databases"
	"github.com/reunite-app/missing-persons-api/databases/mocks"
	"github.com/reunite-app/missing-persons-api/models"
)

func adminRequest(t *testing.T, method, url string, admin *models.Admin) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	return req.WithContext(api.WithAdmin(req.Context(), admin))
}

func TestCaseAdmin_CasesByStatusHandlerInvalidStatus(t *testing.T) {
	admin := &models.Admin{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}
	req := adminRequest(t, "GET", "/api/v1/admin/cases/status/bogus", admin)
	req = mux.SetURLVars(req, map[string]string{"status": "bogus"})

	ca := handlers.CaseAdmin{}
	rr := httptest.NewRecorder()
	http.HandlerFunc(ca.CasesByStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid status filter")
}

func TestCaseAdmin_ApproveCaseHandlerConflict(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	updateResult := &mocks.SingleResultHelper{}
	findResult := &mocks.SingleResultHelper{}

	// the guarded update misses because the case is no longer pending
	updateResult.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	conn.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(updateResult)

	findResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Case)
		(*arg).CaseID = "CASE-202503-0001"
		(*arg).Status = models.CaseStatusApproved
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(findResult)
	db.On("Collection", "cases").Return(conn)

	admin := &models.Admin{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin, Email: "root@example.com"}
	req := adminRequest(t, "PUT", "/api/v1/admin/cases/CASE-202503-0001/approve", admin)
	req = mux.SetURLVars(req, map[string]string{"case_id": "CASE-202503-0001"})

	ca := handlers.CaseAdmin{DB: databases.NewCaseDatabase(db)}
	rr := httptest.NewRecorder()
	http.HandlerFunc(ca.ApproveCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "cannot be updated from status approved")
}

func TestCaseAdmin_ApproveCaseHandlerNotFound(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	updateResult := &mocks.SingleResultHelper{}
	findResult := &mocks.SingleResultHelper{}

	updateResult.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	conn.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(updateResult)
	findResult.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	conn.On("FindOne", mock.Anything, mock.Anything).Return(findResult)
	db.On("Collection", "cases").Return(conn)

	admin := &models.Admin{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}
	req := adminRequest(t, "PUT", "/api/v1/admin/cases/CASE-404/approve", admin)
	req = mux.SetURLVars(req, map[string]string{"case_id": "CASE-404"})

	ca := handlers.CaseAdmin{DB: databases.NewCaseDatabase(db)}
	rr := httptest.NewRecorder()
	http.HandlerFunc(ca.ApproveCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCaseAdmin_RejectCaseHandlerDefaultReason(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	updateResult := &mocks.SingleResultHelper{}

	updateResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Case)
		(*arg).CaseID = "CASE-202503-0001"
		(*arg).Status = models.CaseStatusRejected
		(*arg).RejectionReason = "No reason provided"
	})
	conn.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(updateResult)
	db.On("Collection", "cases").Return(conn)

	admin := &models.Admin{ID: primitive.NewObjectID(), Role: models.RoleNodeAdmin, Email: "node@example.com"}
	req := adminRequest(t, "PUT", "/api/v1/admin/cases/CASE-202503-0001/reject", admin)
	req = mux.SetURLVars(req, map[string]string{"case_id": "CASE-202503-0001"})

	ca := handlers.CaseAdmin{DB: databases.NewCaseDatabase(db)}
	rr := httptest.NewRecorder()
	http.HandlerFunc(ca.RejectCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Case rejected")
	assert.Contains(t, rr.Body.String(), "No reason provided")
}

func TestCaseAdmin_CaseDocumentHandlerBadType(t *testing.T) {
	admin := &models.Admin{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}
	req := adminRequest(t, "GET", "/api/v1/admin/cases/CASE-202503-0001/document/passport", admin)
	req = mux.SetURLVars(req, map[string]string{"case_id": "CASE-202503-0001", "doc_type": "passport"})

	ca := handlers.CaseAdmin{}
	rr := httptest.NewRecorder()
	http.HandlerFunc(ca.CaseDocumentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCaseAdmin_CaseDocumentHandlerDataURL(t *testing.T) {
	payload := []byte("fake png bytes")
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}

	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Case)
		(*arg).CaseID = "CASE-202503-0001"
		(*arg).Image = dataURL
	})
	conn.On("FindOne", mock.Anything, mock.Anything, mock.Anything).Return(singleResult)
	db.On("Collection", "cases").Return(conn)

	admin := &models.Admin{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}
	req := adminRequest(t, "GET", "/api/v1/admin/cases/CASE-202503-0001/document/image", admin)
	req = mux.SetURLVars(req, map[string]string{"case_id": "CASE-202503-0001", "doc_type": "image"})

	ca := handlers.CaseAdmin{DB: databases.NewCaseDatabase(db)}
	rr := httptest.NewRecorder()
	http.HandlerFunc(ca.CaseDocumentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "CASE-202503-0001-photo.png")
	assert.Equal(t, payload, rr.Body.Bytes())
}

func TestCaseAdmin_CaseDocumentHandlerBareBase64SniffsJPEG(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	raw := base64.StdEncoding.EncodeToString(payload)

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}

	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Case)
		(*arg).CaseID = "CASE-202503-0002"
		(*arg).FIRReport = raw
	})
	conn.On("FindOne", mock.Anything, mock.Anything, mock.Anything).Return(singleResult)
	db.On("Collection", "cases").Return(conn)

	admin := &models.Admin{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}
	req := adminRequest(t, "GET", "/api/v1/admin/cases/CASE-202503-0002/document/fir-report", admin)
	req = mux.SetURLVars(req, map[string]string{"case_id": "CASE-202503-0002", "doc_type": "fir-report"})

	ca := handlers.CaseAdmin{DB: databases.NewCaseDatabase(db)}
	rr := httptest.NewRecorder()
	http.HandlerFunc(ca.CaseDocumentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/jpeg", rr.Header().Get("Content-Type"))
	assert.Equal(t, payload, rr.Body.Bytes())
}
