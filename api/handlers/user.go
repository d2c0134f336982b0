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

// userTokenTTL is the lifetime of a citizen session token
const userTokenTTL = 7 * 24 * time.Hour

// User exported for testing purposes
type User struct {
	DB     databases.UserDatabase
	Secret string
}

type registerUserRequest struct {
	Name         string `json:"name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	AdhaarNumber string `json:"adhaarNumber"`
}

type userLoginResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

// RegisterHandler creates a citizen account. Username, email and Aadhaar
// number must all be unique.
func (u User) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Name == "" || req.Username == "" || req.Email == "" || req.Password == "" || req.AdhaarNumber == "" {
		config.ErrorStatus("all fields are required", http.StatusBadRequest, w, fmt.Errorf("incomplete registration"))
		return
	}
	if len(req.Password) < 6 {
		config.ErrorStatus("password must be at least 6 characters", http.StatusBadRequest, w, fmt.Errorf("password too short"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := u.DB.FindOne(ctx, bson.M{"$or": []bson.M{
		{"email": req.Email},
		{"username": req.Username},
		{"adhaarNumber": req.AdhaarNumber},
	}})
	if err == nil {
		field := "email"
		switch {
		case existing.Username == req.Username:
			field = "username"
		case existing.AdhaarNumber == req.AdhaarNumber:
			field = "Aadhaar number"
		}
		config.ErrorStatus(fmt.Sprintf("an account with this %s already exists", field), http.StatusConflict, w, fmt.Errorf("duplicate %s", field))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	newUser := models.User{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		Password:     string(hashed),
		AdhaarNumber: req.AdhaarNumber,
		Source:       "local",
		Role:         "user",
		Status:       models.UserStatusActive,
		JoinedDate:   time.Now(),
	}
	if _, err := u.DB.InsertOne(ctx, newUser); err != nil {
		config.ErrorStatus("failed to create account", http.StatusInternalServerError, w, err)
		return
	}

	token, err := signToken(u.Secret, newUser.ID.Hex(), "user", "user", userTokenTTL)
	if err != nil {
		config.ErrorStatus("failed to issue token", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("user registered", "username", newUser.Username)

	newUser.Password = ""
	b, err := json.Marshal(userLoginResponse{Success: true, Token: token, User: &newUser})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

type userLoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler authenticates a citizen by email or username
func (u User) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req userLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	filter := bson.M{}
	switch {
	case req.Email != "":
		filter["email"] = strings.ToLower(strings.TrimSpace(req.Email))
	case req.Username != "":
		filter["username"] = req.Username
	default:
		config.ErrorStatus("email or username is required", http.StatusBadRequest, w, fmt.Errorf("no identifier"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, filter)
	if err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, err)
		return
	}
	if user.Status != models.UserStatusActive {
		config.ErrorStatus("account is deactivated", http.StatusForbidden, w, fmt.Errorf("status is %s", user.Status))
		return
	}

	token, err := signToken(u.Secret, user.ID.Hex(), "user", "user", userTokenTTL)
	if err != nil {
		config.ErrorStatus("failed to issue token", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(userLoginResponse{Success: true, Token: token, User: user})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MeHandler returns the calling user's own profile
func (u User) MeHandler(w http.ResponseWriter, r *http.Request) {
	user := api.UserFromContext(r.Context())

	b, err := json.Marshal(map[string]interface{}{
		"success": true,
		"user":    user,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type updateProfileRequest struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// UpdateProfileHandler lets a user change their display name and picture.
// Identity fields (email, username, Aadhaar) are immutable once registered.
func (u User) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := api.UserFromContext(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.Picture != "" {
		set["picture"] = req.Picture
	}
	if len(set) == 0 {
		config.ErrorStatus("nothing to update", http.StatusBadRequest, w, fmt.Errorf("empty update"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := u.DB.FindOneAndUpdate(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set}, returnUpdated())
	if err != nil {
		config.ErrorStatus("failed to update profile", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"success": true,
		"message": "Profile updated",
		"user":    updated,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type usersResponse struct {
	Success bool          `json:"success"`
	Users   []models.User `json:"users"`
}

// AllHandler lists registered citizens for admins
func (u User) AllHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := u.DB.Find(ctx, bson.M{},
		&options.FindOptions{
			Sort:       bson.D{{Key: "joined_date", Value: -1}},
			Projection: bson.M{"password": 0},
		})
	if err != nil {
		config.ErrorStatus("failed to get users", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.User{}
	}

	b, err := json.Marshal(usersResponse{Success: true, Users: dbResp})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// setStatus flips a citizen account between active and inactive
func (u User) setStatus(w http.ResponseWriter, r *http.Request, newStatus, message string) {
	id := mux.Vars(r)["user_id"]
	userID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		config.ErrorStatus("invalid user id", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := u.DB.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"status": newStatus}},
		returnUpdated())
	if err != nil {
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{
		"success": true,
		"message": message,
		"user":    updated,
	})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeactivateHandler suspends a citizen account
func (u User) DeactivateHandler(w http.ResponseWriter, r *http.Request) {
	u.setStatus(w, r, models.UserStatusInactive, "User deactivated")
}

// ActivateHandler restores a suspended citizen account
func (u User) ActivateHandler(w http.ResponseWriter, r *http.Request) {
	u.setStatus(w, r, models.UserStatusActive, "User activated")
}

// DeleteHandler permanently removes a citizen account (super admin only)
func (u User) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["user_id"]
	userID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		config.ErrorStatus("invalid user id", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := u.DB.FindOne(ctx, bson.M{"_id": userID}); err != nil {
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
		return
	}
	if err := u.DB.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		config.ErrorStatus("failed to delete user", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("user deleted", "userId", id)

	b, _ := json.Marshal(map[string]interface{}{
		"success": true,
		"message": "User deleted",
	})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
