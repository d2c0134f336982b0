package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/reunite-app/missing-persons-api/api"
	"github.com/reunite-app/missing-persons-api/config"
	"github.com/reunite-app/missing-persons-api/databases"
	"github.com/reunite-app/missing-persons-api/models"
)

// adminTokenTTL is the lifetime of an admin session token
const adminTokenTTL = 7 * 24 * time.Hour

// Admin exported for testing purposes
type Admin struct {
	DB     databases.AdminDatabase
	NDB    databases.NodeDatabase
	CDB    databases.CaseDatabase
	Secret string
}

type registerAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Node     string `json:"node"`
}

// RegisterHandler creates a new admin account. Accounts start pending and
// cannot log in until an existing admin approves them.
func (a Admin) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		config.ErrorStatus("name, email, password and role are required", http.StatusBadRequest, w, fmt.Errorf("incomplete registration"))
		return
	}
	if !models.ValidAdminRole(req.Role) {
		config.ErrorStatus("invalid role", http.StatusBadRequest, w, fmt.Errorf("unknown role %q", req.Role))
		return
	}

	var node *primitive.ObjectID
	if req.Role != models.RoleSuperAdmin {
		if req.Node == "" {
			config.ErrorStatus("node is required for this role", http.StatusBadRequest, w, fmt.Errorf("missing node"))
			return
		}
		nodeID, err := primitive.ObjectIDFromHex(req.Node)
		if err != nil {
			config.ErrorStatus("node must be a valid id", http.StatusBadRequest, w, err)
			return
		}
		node = &nodeID
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if node != nil {
		if _, err := a.NDB.FindOne(ctx, bson.M{"_id": *node}); err != nil {
			config.ErrorStatus("node not found", http.StatusBadRequest, w, err)
			return
		}
	}

	count, err := a.DB.CountDocuments(ctx, bson.M{"email": req.Email})
	if err != nil {
		config.ErrorStatus("failed to check for existing admin", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("an admin with this email already exists", http.StatusConflict, w, fmt.Errorf("duplicate email"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), 10)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	now := time.Now()
	newAdmin := models.Admin{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      req.Role,
		Node:      node,
		Status:    models.AdminStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := a.DB.InsertOne(ctx, newAdmin); err != nil {
		config.ErrorStatus("failed to create admin", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("admin registered", "email", newAdmin.Email, "role", newAdmin.Role)

	b, _ := json.Marshal(map[string]interface{}{
		"success": true,
		"message": "Registration submitted. An administrator will review your account.",
	})
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminLoginResponse struct {
	Success bool          `json:"success"`
	Token   string        `json:"token"`
	Admin   *models.Admin `json:"admin"`
}

// LoginHandler authenticates an approved admin and issues a session token
func (a Admin) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	admin, err := a.DB.FindOne(ctx, bson.M{"email": req.Email})
	if err != nil {
		config.ErrorStatus("invalid email or password", http.StatusUnauthorized, w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		config.ErrorStatus("invalid email or password", http.StatusUnauthorized, w, err)
		return
	}
	if admin.Status != models.AdminStatusApproved {
		config.ErrorStatus("account is not approved", http.StatusForbidden, w, fmt.Errorf("status is %s", admin.Status))
		return
	}

	token, err := signToken(a.Secret, admin.ID.Hex(), "admin", admin.Role, adminTokenTTL)
	if err != nil {
		config.ErrorStatus("failed to issue token", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("admin login", "email", admin.Email, "role", admin.Role)

	b, err := json.Marshal(adminLoginResponse{Success: true, Token: token, Admin: admin})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type adminsResponse struct {
	Success bool           `json:"success"`
	Admins  []models.Admin `json:"admins"`
}

// reviewScope limits which accounts an admin may review. Node admins review
// only supervisors in their own node; super admins review everyone.
func reviewScope(admin *models.Admin, filter bson.M) bson.M {
	if admin.Role == models.RoleNodeAdmin {
		filter["role"] = models.RoleSupervisor
		if admin.Node != nil {
			filter["node"] = *admin.Node
		}
	}
	return filter
}

// PendingHandler lists the admin accounts awaiting review within the caller's
// review scope
func (a Admin) PendingHandler(w http.ResponseWriter, r *http.Request) {
	admin := api.AdminFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := reviewScope(admin, bson.M{"status": models.AdminStatusPending})
	dbResp, err := a.DB.Find(ctx, filter, &options.FindOptions{Sort: bson.D{{Key: "createdAt", Value: 1}}})
	if err != nil {
		config.ErrorStatus("failed to get pending admins", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Admin{}
	}

	b, err := json.Marshal(adminsResponse{Success: true, Admins: dbResp})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// review applies an approve/decline decision to a pending account in scope
func (a Admin) review(w http.ResponseWriter, r *http.Request, newStatus, message string) {
	admin := api.AdminFromContext(r.Context())
	id := mux.Vars(r)["admin_id"]

	targetID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		config.ErrorStatus("invalid admin id", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	target, err := a.DB.FindOne(ctx, bson.M{"_id": targetID})
	if err != nil {
		config.ErrorStatus("admin not found", http.StatusNotFound, w, err)
		return
	}
	if admin.Role == models.RoleNodeAdmin {
		sameNode := target.Node != nil && admin.Node != nil && *target.Node == *admin.Node
		if target.Role != models.RoleSupervisor || !sameNode {
			config.ErrorStatus("you can only review supervisors in your own node", http.StatusForbidden, w, fmt.Errorf("target out of review scope"))
			return
		}
	}

	updated, err := a.DB.FindOneAndUpdate(ctx,
		bson.M{"_id": targetID, "status": models.AdminStatusPending},
		bson.M{"$set": bson.M{"status": newStatus, "updatedAt": time.Now()}},
		returnUpdated())
	if err != nil {
		config.ErrorStatus("admin is not pending review", http.StatusConflict, w, err)
		return
	}

	zap.S().Infow("admin reviewed",
		"target", updated.Email,
		"decision", newStatus,
		"reviewer", admin.Email,
	)

	b, _ := json.Marshal(map[string]interface{}{
		"success": true,
		"message": message,
		"admin":   updated,
	})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ApproveHandler approves a pending admin account
func (a Admin) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	a.review(w, r, models.AdminStatusApproved, "Admin approved successfully")
}

// DeclineHandler declines a pending admin account
func (a Admin) DeclineHandler(w http.ResponseWriter, r *http.Request) {
	a.review(w, r, models.AdminStatusDeclined, "Admin declined")
}

// setStatus flips an existing account between approved and inactive
func (a Admin) setStatus(w http.ResponseWriter, r *http.Request, newStatus, message string) {
	id := mux.Vars(r)["admin_id"]
	targetID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		config.ErrorStatus("invalid admin id", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := a.DB.FindOneAndUpdate(ctx,
		bson.M{"_id": targetID},
		bson.M{"$set": bson.M{"status": newStatus, "updatedAt": time.Now()}},
		returnUpdated())
	if err != nil {
		config.ErrorStatus("admin not found", http.StatusNotFound, w, err)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{
		"success": true,
		"message": message,
		"admin":   updated,
	})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeactivateHandler marks an admin account inactive, revoking access without
// deleting the audit trail it appears in
func (a Admin) DeactivateHandler(w http.ResponseWriter, r *http.Request) {
	a.setStatus(w, r, models.AdminStatusInactive, "Admin deactivated")
}

// ActivateHandler restores a deactivated admin account
func (a Admin) ActivateHandler(w http.ResponseWriter, r *http.Request) {
	a.setStatus(w, r, models.AdminStatusApproved, "Admin activated")
}

// MeHandler returns the calling admin's own profile
func (a Admin) MeHandler(w http.ResponseWriter, r *http.Request) {
	admin := api.AdminFromContext(r.Context())

	b, err := json.Marshal(map[string]interface{}{
		"success": true,
		"admin":   admin,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AllHandler lists every admin account (super admin only route)
func (a Admin) AllHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := a.DB.Find(ctx, bson.M{}, &options.FindOptions{Sort: bson.D{{Key: "createdAt", Value: -1}}})
	if err != nil {
		config.ErrorStatus("failed to get admins", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Admin{}
	}

	b, err := json.Marshal(adminsResponse{Success: true, Admins: dbResp})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type dashboardStatsResponse struct {
	Success bool `json:"success"`
	Stats   struct {
		Total       int64   `json:"total"`
		Pending     int64   `json:"pending"`
		Approved    int64   `json:"approved"`
		Rejected    int64   `json:"rejected"`
		Resolved    int64   `json:"resolved"`
		SuccessRate float64 `json:"successRate"`
	} `json:"stats"`
	RecentCases []models.Case `json:"recentCases"`
}

// DashboardStatsHandler returns lifecycle counts and the last week's intake
// for the admin dashboard, scoped to the caller's node
func (a Admin) DashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	admin := api.AdminFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	resp := dashboardStatsResponse{Success: true}
	statuses := []struct {
		name string
		dest *int64
	}{
		{models.CaseStatusPending, &resp.Stats.Pending},
		{models.CaseStatusApproved, &resp.Stats.Approved},
		{models.CaseStatusRejected, &resp.Stats.Rejected},
		{models.CaseStatusResolved, &resp.Stats.Resolved},
	}
	for _, s := range statuses {
		count, err := a.CDB.CountDocuments(ctx, scopeFilter(admin, bson.M{"status": s.name}))
		if err != nil {
			config.ErrorStatus("failed to count cases", http.StatusInternalServerError, w, err)
			return
		}
		*s.dest = count
		resp.Stats.Total += count
	}
	closed := resp.Stats.Resolved + resp.Stats.Approved
	if closed > 0 {
		resp.Stats.SuccessRate = float64(resp.Stats.Resolved) / float64(closed) * 100
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	limit := int64(10)
	recent, err := a.CDB.Find(ctx,
		scopeFilter(admin, bson.M{"createdAt": bson.M{"$gte": weekAgo}}),
		&options.FindOptions{
			Sort:       bson.D{{Key: "createdAt", Value: -1}},
			Limit:      &limit,
			Projection: listProjection,
		})
	if err != nil {
		config.ErrorStatus("failed to get recent cases", http.StatusInternalServerError, w, err)
		return
	}
	if len(recent) == 0 {
		recent = []models.Case{}
	}
	resp.RecentCases = recent

	b, err := json.Marshal(resp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
