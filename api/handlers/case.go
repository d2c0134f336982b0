package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/reunite-app/missing-persons-api/api"
	"github.com/reunite-app/missing-persons-api/config"
	"github.com/reunite-app/missing-persons-api/databases"
	"github.com/reunite-app/missing-persons-api/models"
)

// sanitizedProjection strips the fields the public must never see
var sanitizedProjection = bson.M{
	"firReport":     0,
	"adhaarNumber":  0,
	"contactNumber": 0,
	"address":       0,
	"reportedBy":    0,
}

// listProjection drops the large inline attachments from list views
var listProjection = bson.M{
	"image":     0,
	"firReport": 0,
}

// Case exported for testing purposes
type Case struct {
	DB      databases.CaseDatabase
	Counter databases.CounterDatabase
}

type createCaseRequest struct {
	Name                string      `json:"name"`
	Age                 json.Number `json:"age"`
	Gender              string      `json:"gender"`
	DateMissing         string      `json:"dateMissing"`
	LastSeenLocation    string      `json:"lastSeenLocation"`
	IncidentTime        string      `json:"incidentTime"`
	Description         string      `json:"description"`
	ContactNumber       string      `json:"contactNumber"`
	Address             string      `json:"address"`
	AdhaarNumber        string      `json:"adhaarNumber"`
	Height              string      `json:"height"`
	Weight              string      `json:"weight"`
	DistinguishingMarks string      `json:"distinguishingMarks"`
	Image               string      `json:"image"`
	FIRReport           string      `json:"firReport"`
}

func (req createCaseRequest) validate() error {
	if req.Name == "" || req.Age == "" || req.Gender == "" || req.DateMissing == "" ||
		req.LastSeenLocation == "" || req.IncidentTime == "" || req.Description == "" ||
		req.ContactNumber == "" || req.Address == "" || req.AdhaarNumber == "" ||
		req.Image == "" || req.FIRReport == "" {
		return fmt.Errorf("all required fields must be provided")
	}
	if !models.ValidGender(req.Gender) {
		return fmt.Errorf("gender must be one of Male, Female, Other")
	}
	return nil
}

type createCaseResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	CaseID  string `json:"caseId"`
	Case    struct {
		ID        primitive.ObjectID `json:"_id"`
		CaseID    string             `json:"caseId"`
		Name      string             `json:"name"`
		Status    string             `json:"status"`
		CreatedAt time.Time          `json:"createdAt"`
	} `json:"case"`
}

// CreateCaseHandler registers a new missing person case for the calling user
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	user := api.UserFromContext(r.Context())

	var req createCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := req.validate(); err != nil {
		config.ErrorStatus("all required fields must be provided", http.StatusBadRequest, w, err)
		return
	}
	age, err := strconv.Atoi(req.Age.String())
	if err != nil {
		config.ErrorStatus("age must be a number", http.StatusBadRequest, w, err)
		return
	}
	dateMissing, err := parseDate(req.DateMissing)
	if err != nil {
		config.ErrorStatus("dateMissing must be a valid date", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// a duplicate Aadhaar means the person already has an open report
	existing, err := c.DB.CountDocuments(ctx, bson.M{"adhaarNumber": req.AdhaarNumber})
	if err != nil {
		config.ErrorStatus("failed to check for existing case", http.StatusInternalServerError, w, err)
		return
	}
	if existing > 0 {
		config.ErrorStatus("a case with this Aadhaar number already exists", http.StatusBadRequest, w, fmt.Errorf("duplicate adhaarNumber"))
		return
	}

	caseID, err := c.Counter.NextCaseID(ctx, time.Now())
	if err != nil {
		config.ErrorStatus("failed to generate case id", http.StatusInternalServerError, w, err)
		return
	}

	now := time.Now()
	newCase := models.Case{
		ID:                  primitive.NewObjectID(),
		CaseID:              caseID,
		ReportedBy:          user.ID,
		ReportedByUsername:  user.Name,
		Name:                req.Name,
		Age:                 age,
		Gender:              req.Gender,
		DateReported:        now,
		DateMissing:         dateMissing,
		LastSeenLocation:    req.LastSeenLocation,
		IncidentTime:        req.IncidentTime,
		Description:         req.Description,
		ContactNumber:       req.ContactNumber,
		Address:             req.Address,
		AdhaarNumber:        req.AdhaarNumber,
		Height:              req.Height,
		Weight:              req.Weight,
		DistinguishingMarks: req.DistinguishingMarks,
		Image:               req.Image,
		FIRReport:           req.FIRReport,
		Status:              models.CaseStatusPending,
		Priority:            models.CasePriorityMedium,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if _, err := c.DB.InsertOne(ctx, newCase); err != nil {
		config.ErrorStatus("failed to create case", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("case registered",
		"caseId", caseID,
		"reportedBy", user.ID.Hex(),
	)

	resp := createCaseResponse{Success: true, Message: "Case registered successfully", CaseID: caseID}
	resp.Case.ID = newCase.ID
	resp.Case.CaseID = caseID
	resp.Case.Name = newCase.Name
	resp.Case.Status = newCase.Status
	resp.Case.CreatedAt = newCase.CreatedAt

	b, err := json.Marshal(resp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

type casesResponse struct {
	Success bool          `json:"success"`
	Cases   []models.Case `json:"cases"`
}

// MyCasesHandler returns all cases reported by the calling user, newest
// first, without the inline attachments
func (c Case) MyCasesHandler(w http.ResponseWriter, r *http.Request) {
	user := api.UserFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := bson.D{{Key: "createdAt", Value: -1}}
	dbResp, err := c.DB.Find(ctx, bson.M{"reportedBy": user.ID}, &options.FindOptions{
		Sort:       sort,
		Projection: listProjection,
	})
	if err != nil {
		config.ErrorStatus("failed to get cases", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Case{}
	}

	b, err := json.Marshal(casesResponse{Success: true, Cases: dbResp})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ApprovedCasesHandler returns all approved cases with sensitive fields
// stripped (public view)
func (c Case) ApprovedCasesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := bson.D{{Key: "createdAt", Value: -1}}
	dbResp, err := c.DB.Find(ctx, bson.M{"status": models.CaseStatusApproved}, &options.FindOptions{
		Sort:       sort,
		Projection: sanitizedProjection,
	})
	if err != nil {
		config.ErrorStatus("failed to get approved cases", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Case{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// FaceRecognitionCasesHandler returns the fields the face recognition
// collaborator needs for matching, approved cases only
func (c Case) FaceRecognitionCasesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := bson.D{{Key: "createdAt", Value: -1}}
	projection := bson.M{"name": 1, "contactNumber": 1, "adhaarNumber": 1, "image": 1, "caseId": 1}
	dbResp, err := c.DB.Find(ctx, bson.M{"status": models.CaseStatusApproved}, &options.FindOptions{
		Sort:       sort,
		Projection: projection,
	})
	if err != nil {
		config.ErrorStatus("failed to get approved cases", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Case{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type publicCasesResponse struct {
	Success     bool          `json:"success"`
	Cases       []models.Case `json:"cases"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
	Total       int64         `json:"total"`
}

// PublicApprovedCasesHandler returns a paginated, searchable, sanitized view
// of approved cases
func (c Case) PublicApprovedCasesHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	search := r.URL.Query().Get("search")

	query := bson.M{"status": models.CaseStatusApproved}
	if search != "" {
		regex := primitive.Regex{Pattern: search, Options: "i"}
		query["$or"] = []bson.M{
			{"name": regex},
			{"lastSeenLocation": regex},
			{"caseId": regex},
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	findOpts := databases.Paginate(limit, page)
	findOpts.Sort = bson.D{{Key: "createdAt", Value: -1}}
	findOpts.Projection = sanitizedProjection

	dbResp, err := c.DB.Find(ctx, query, findOpts)
	if err != nil {
		config.ErrorStatus("failed to get approved cases", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Case{}
	}

	total, err := c.DB.CountDocuments(ctx, query)
	if err != nil {
		config.ErrorStatus("failed to count approved cases", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(publicCasesResponse{
		Success:     true,
		Cases:       dbResp,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		CurrentPage: page,
		Total:       total,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type caseResponse struct {
	Success bool         `json:"success"`
	Case    *models.Case `json:"case"`
}

// PublicCaseHandler returns a single sanitized case; only approved cases are
// visible to the public
func (c Case) PublicCaseHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["case_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindOne(ctx, caseIDFilter(id), &options.FindOneOptions{Projection: sanitizedProjection})
	if err != nil {
		config.ErrorStatus("case not found", http.StatusNotFound, w, err)
		return
	}
	if dbResp.Status != models.CaseStatusApproved {
		config.ErrorStatus("case not available for public view", http.StatusForbidden, w, fmt.Errorf("status is %s", dbResp.Status))
		return
	}

	b, err := json.Marshal(caseResponse{Success: true, Case: dbResp})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type caseByNameResponse struct {
	Success      bool   `json:"success"`
	Name         string `json:"name"`
	PhoneNumber  string `json:"phonenumber"`
	AdhaarNumber string `json:"adhaar_number"`
	Image        string `json:"image"`
}

// CaseByNameHandler returns an approved case by exact, case-insensitive name
// (face recognition collaborator)
func (c Case) CaseByNameHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindOne(ctx, bson.M{
		"name":   primitive.Regex{Pattern: "^" + name + "$", Options: "i"},
		"status": models.CaseStatusApproved,
	}, &options.FindOneOptions{Projection: bson.M{"name": 1, "contactNumber": 1, "adhaarNumber": 1, "image": 1}})
	if err != nil {
		config.ErrorStatus("case not found", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(caseByNameResponse{
		Success:      true,
		Name:         dbResp.Name,
		PhoneNumber:  dbResp.ContactNumber,
		AdhaarNumber: dbResp.AdhaarNumber,
		Image:        dbResp.Image,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CaseByIDHandler returns a full case to its owner
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["case_id"]
	user := api.UserFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindOne(ctx, caseIDFilter(id))
	if err != nil {
		config.ErrorStatus("case not found", http.StatusNotFound, w, err)
		return
	}
	if dbResp.ReportedBy != user.ID {
		config.ErrorStatus("access denied", http.StatusForbidden, w, fmt.Errorf("case is not owned by caller"))
		return
	}

	b, err := json.Marshal(caseResponse{Success: true, Case: dbResp})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type requestResolutionRequest struct {
	Reason        string `json:"reason"`
	FoundLocation string `json:"foundLocation"`
	FoundDate     string `json:"foundDate"`
}

type messageCaseResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Case    *models.Case `json:"case,omitempty"`
}

// RequestResolutionHandler files the owning user's claim that their approved
// case should be closed. The claim awaits an admin's explicit resolve; the
// case status does not change here.
func (c Case) RequestResolutionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["case_id"]
	user := api.UserFromContext(r.Context())

	var req requestResolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	caseData, err := c.DB.FindOne(ctx, caseIDFilter(id))
	if err != nil {
		config.ErrorStatus("case not found", http.StatusNotFound, w, err)
		return
	}
	if caseData.ReportedBy != user.ID {
		config.ErrorStatus("you can only request resolution for your own cases", http.StatusForbidden, w, fmt.Errorf("case is not owned by caller"))
		return
	}
	if caseData.Status != models.CaseStatusApproved {
		config.ErrorStatus("only approved cases can be requested for resolution", http.StatusConflict, w, fmt.Errorf("status is %s", caseData.Status))
		return
	}
	if caseData.ResolutionRequested {
		config.ErrorStatus("resolution has already been requested for this case", http.StatusBadRequest, w, fmt.Errorf("resolutionRequested is set"))
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "Person found"
	}
	foundDate := time.Now()
	if req.FoundDate != "" {
		if parsed, err := parseDate(req.FoundDate); err == nil {
			foundDate = parsed
		}
	}
	now := time.Now()

	updated, err := c.DB.FindOneAndUpdate(ctx,
		bson.M{"_id": caseData.ID},
		bson.M{"$set": bson.M{
			"resolutionRequested":     true,
			"resolutionRequestDate":   now,
			"resolutionRequestReason": reason,
			"requestedFoundLocation":  req.FoundLocation,
			"requestedFoundDate":      foundDate,
			"updatedAt":               now,
		}},
		returnUpdated())
	if err != nil {
		config.ErrorStatus("failed to submit resolution request", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(messageCaseResponse{
		Success: true,
		Message: "Resolution request submitted successfully. An admin will review your request.",
		Case:    updated,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// returnUpdated builds the option set for findOneAndUpdate calls that want
// the post-update document back
func returnUpdated() *options.FindOneAndUpdateOptions {
	after := options.After
	return &options.FindOneAndUpdateOptions{ReturnDocument: &after}
}
