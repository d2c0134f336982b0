package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/reunite-app/missing-persons-api/api/handlers"
	"github.com/reunite-app/missing-persons-api/databases"
	"github.com/reunite-app/missing-persons-api/databases/mocks"
	"github.com/reunite-app/missing-persons-api/models"
)

func TestAdmin_LoginHandlerWrongPassword(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), 10)

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}

	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Admin)
		(*arg).Email = "admin@example.com"
		(*arg).Password = string(hashed)
		(*arg).Status = models.AdminStatusApproved
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
	db.On("Collection", "admins").Return(conn)

	req := userRequest(t, "POST", "/api/v1/admin/login", map[string]string{
		"email":    "admin@example.com",
		"password": "wrong-password",
	})

	a := handlers.Admin{DB: databases.NewAdminDatabase(db), Secret: "test-secret"}
	rr := httptest.NewRecorder()
	http.HandlerFunc(a.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid email or password")
}

func TestAdmin_LoginHandlerNotApproved(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), 10)

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}

	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Admin)
		(*arg).Email = "admin@example.com"
		(*arg).Password = string(hashed)
		(*arg).Status = models.AdminStatusPending
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
	db.On("Collection", "admins").Return(conn)

	req := userRequest(t, "POST", "/api/v1/admin/login", map[string]string{
		"email":    "admin@example.com",
		"password": "correct-password",
	})

	a := handlers.Admin{DB: databases.NewAdminDatabase(db), Secret: "test-secret"}
	rr := httptest.NewRecorder()
	http.HandlerFunc(a.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "not approved")
}

func TestAdmin_LoginHandlerSuccess(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), 10)

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}

	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Admin)
		(*arg).ID = primitive.NewObjectID()
		(*arg).Email = "admin@example.com"
		(*arg).Password = string(hashed)
		(*arg).Role = models.RoleSuperAdmin
		(*arg).Status = models.AdminStatusApproved
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
	db.On("Collection", "admins").Return(conn)

	req := userRequest(t, "POST", "/api/v1/admin/login", map[string]string{
		"email":    "admin@example.com",
		"password": "correct-password",
	})

	a := handlers.Admin{DB: databases.NewAdminDatabase(db), Secret: "test-secret"}
	rr := httptest.NewRecorder()
	http.HandlerFunc(a.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"token"`)
}

func TestAdmin_RegisterHandlerDuplicateEmail(t *testing.T) {
	db := &MockDatabaseHelper{}
	adminConn := &mocks.CollectionHelper{}
	nodeConn := &mocks.CollectionHelper{}
	nodeResult := &mocks.SingleResultHelper{}

	nodeResult.On("Decode", mock.Anything).Return(nil)
	nodeConn.On("FindOne", mock.Anything, mock.Anything).Return(nodeResult)
	adminConn.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)
	db.On("Collection", "admins").Return(adminConn)
	db.On("Collection", "nodes").Return(nodeConn)

	req := userRequest(t, "POST", "/api/v1/admin/register", map[string]string{
		"name":     "Node Admin",
		"email":    "admin@example.com",
		"password": "secret123",
		"role":     models.RoleNodeAdmin,
		"node":     primitive.NewObjectID().Hex(),
	})

	a := handlers.Admin{DB: databases.NewAdminDatabase(db), NDB: databases.NewNodeDatabase(db)}
	rr := httptest.NewRecorder()
	http.HandlerFunc(a.RegisterHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already exists")
}

func TestAdmin_RegisterHandlerNodeRequired(t *testing.T) {
	req := userRequest(t, "POST", "/api/v1/admin/register", map[string]string{
		"name":     "Supervisor",
		"email":    "supervisor@example.com",
		"password": "secret123",
		"role":     models.RoleSupervisor,
	})

	a := handlers.Admin{}
	rr := httptest.NewRecorder()
	http.HandlerFunc(a.RegisterHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "node is required")
}

func TestAdmin_ApproveHandlerNodeAdminOutOfScope(t *testing.T) {
	reviewerNode := primitive.NewObjectID()
	otherNode := primitive.NewObjectID()
	targetID := primitive.NewObjectID()

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}

	// target is a supervisor but belongs to a different node
	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Admin)
		(*arg).ID = targetID
		(*arg).Role = models.RoleSupervisor
		(*arg).Node = &otherNode
		(*arg).Status = models.AdminStatusPending
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
	db.On("Collection", "admins").Return(conn)

	reviewer := &models.Admin{ID: primitive.NewObjectID(), Role: models.RoleNodeAdmin, Node: &reviewerNode}
	req := adminRequest(t, "PUT", "/api/v1/admin/"+targetID.Hex()+"/approve", reviewer)
	req = mux.SetURLVars(req, map[string]string{"admin_id": targetID.Hex()})

	a := handlers.Admin{DB: databases.NewAdminDatabase(db)}
	rr := httptest.NewRecorder()
	http.HandlerFunc(a.ApproveHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "your own node")
}
