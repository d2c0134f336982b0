package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/reunite-app/missing-persons-api/api"
	"github.com/reunite-app/missing-persons-api/config"
	"github.com/reunite-app/missing-persons-api/databases"
	"github.com/reunite-app/missing-persons-api/models"
	templates "github.com/reunite-app/missing-persons-api/templates/html"
	"github.com/reunite-app/missing-persons-api/tracking"
)

// CaseAdmin exported for testing purposes
type CaseAdmin struct {
	DB      databases.CaseDatabase
	Tracker *tracking.Tracker
	Mail    *Mailer
}

// scopeFilter narrows a query to the cases the admin may act on. Super admins
// see everything; node-bound admins see only their node's cases.
func scopeFilter(admin *models.Admin, filter bson.M) bson.M {
	if admin.Role != models.RoleSuperAdmin && admin.Node != nil {
		filter["node"] = *admin.Node
	}
	return filter
}

// PendingCasesHandler lists pending cases within the admin's scope, oldest
// first so the queue is worked in submission order
func (c CaseAdmin) PendingCasesHandler(w http.ResponseWriter, r *http.Request) {
	admin := api.AdminFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := scopeFilter(admin, bson.M{"status": models.CaseStatusPending})
	sort := bson.D{{Key: "createdAt", Value: 1}}
	dbResp, err := c.DB.Find(ctx, filter, &options.FindOptions{Sort: sort})
	if err != nil {
		config.ErrorStatus("failed to get pending cases", http.StatusInternalServerError, w, err)
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

// CasesByStatusHandler lists cases by lifecycle status within the admin's
// scope. The special value "all" lifts the status filter.
func (c CaseAdmin) CasesByStatusHandler(w http.ResponseWriter, r *http.Request) {
	admin := api.AdminFromContext(r.Context())
	status := strings.ToLower(mux.Vars(r)["status"])

	if status != "all" && !models.ValidCaseStatus(status) {
		config.ErrorStatus("invalid status filter", http.StatusBadRequest, w, fmt.Errorf("unknown status %q", status))
		return
	}

	filter := bson.M{}
	if status != "all" {
		filter["status"] = status
	}
	filter = scopeFilter(admin, filter)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := bson.D{{Key: "createdAt", Value: -1}}
	dbResp, err := c.DB.Find(ctx, filter, &options.FindOptions{Sort: sort, Projection: listProjection})
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

// transition performs a guarded status change. The required statuses are part
// of the update filter so concurrent admins cannot double-apply a transition;
// the loser of the race gets a conflict, not a silent overwrite.
func (c CaseAdmin) transition(w http.ResponseWriter, r *http.Request, from []string, update bson.M) (*models.Case, bool) {
	admin := api.AdminFromContext(r.Context())
	id := mux.Vars(r)["case_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := scopeFilter(admin, caseIDFilter(id))
	filter["status"] = bson.M{"$in": from}

	updated, err := c.DB.FindOneAndUpdate(ctx, filter, update, returnUpdated())
	if err == nil {
		return updated, true
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("failed to update case", http.StatusInternalServerError, w, err)
		return nil, false
	}

	// distinguish "no such case in scope" from "wrong lifecycle state"
	existing, findErr := c.DB.FindOne(ctx, scopeFilter(admin, caseIDFilter(id)))
	if findErr != nil {
		config.ErrorStatus("case not found", http.StatusNotFound, w, findErr)
		return nil, false
	}
	config.ErrorStatus(
		fmt.Sprintf("case cannot be updated from status %s", existing.Status),
		http.StatusConflict, w, fmt.Errorf("expected status in %v, got %s", from, existing.Status),
	)
	return nil, false
}

// ApproveCaseHandler moves a pending case to approved and makes it publicly
// visible. An initial location observation is synthesized so tracking starts
// immediately.
func (c CaseAdmin) ApproveCaseHandler(w http.ResponseWriter, r *http.Request) {
	admin := api.AdminFromContext(r.Context())

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"status":     models.CaseStatusApproved,
		"approvedBy": admin.ID,
		"approvedAt": now,
		"updatedAt":  now,
	}}

	updated, ok := c.transition(w, r, []string{models.CaseStatusPending}, update)
	if !ok {
		return
	}

	if c.Tracker != nil {
		if _, err := c.Tracker.EnsureInitialObservation(r.Context(), updated); err != nil {
			zap.S().Warnw("could not seed location tracking on approval",
				"caseId", updated.CaseID,
				"error", err,
			)
		}
	}
	if c.Mail != nil {
		c.Mail.NotifyCaseStatus(r.Context(), updated,
			"Your missing person report has been approved",
			templates.CaseApprovedBody(updated.ReportedByUsername, updated.CaseID))
	}

	zap.S().Infow("case approved", "caseId", updated.CaseID, "admin", admin.Email)

	b, err := json.Marshal(messageCaseResponse{Success: true, Message: "Case approved successfully", Case: updated})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type rejectCaseRequest struct {
	Reason string `json:"reason"`
}

// RejectCaseHandler moves a pending case to rejected with a reason
func (c CaseAdmin) RejectCaseHandler(w http.ResponseWriter, r *http.Request) {
	admin := api.AdminFromContext(r.Context())

	var req rejectCaseRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	reason := req.Reason
	if reason == "" {
		reason = "No reason provided"
	}

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"status":          models.CaseStatusRejected,
		"rejectedBy":      admin.ID,
		"rejectedAt":      now,
		"rejectionReason": reason,
		"updatedAt":       now,
	}}

	updated, ok := c.transition(w, r, []string{models.CaseStatusPending}, update)
	if !ok {
		return
	}

	if c.Mail != nil {
		c.Mail.NotifyCaseStatus(r.Context(), updated,
			"Update on your missing person report",
			templates.CaseRejectedBody(updated.ReportedByUsername, updated.CaseID, reason))
	}

	zap.S().Infow("case rejected", "caseId", updated.CaseID, "admin", admin.Email, "reason", reason)

	b, err := json.Marshal(messageCaseResponse{Success: true, Message: "Case rejected", Case: updated})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type resolveCaseRequest struct {
	ResolutionReason string `json:"resolutionReason"`
	FoundLocation    string `json:"foundLocation"`
	FoundDate        string `json:"foundDate"`
}

// ResolveCaseHandler closes a pending or approved case as resolved. Resolving
// also clears any outstanding resolution request.
func (c CaseAdmin) ResolveCaseHandler(w http.ResponseWriter, r *http.Request) {
	admin := api.AdminFromContext(r.Context())

	var req resolveCaseRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	reason := req.ResolutionReason
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
	update := bson.M{"$set": bson.M{
		"status":              models.CaseStatusResolved,
		"resolvedBy":          admin.ID,
		"resolvedAt":          now,
		"resolutionReason":    reason,
		"foundLocation":       req.FoundLocation,
		"foundDate":           foundDate,
		"resolutionRequested": false,
		"updatedAt":           now,
	}}

	updated, ok := c.transition(w, r, []string{models.CaseStatusPending, models.CaseStatusApproved}, update)
	if !ok {
		return
	}

	if c.Mail != nil {
		c.Mail.NotifyCaseStatus(r.Context(), updated,
			"Your missing person case has been resolved",
			templates.CaseResolvedBody(updated.ReportedByUsername, updated.CaseID, reason))
	}

	zap.S().Infow("case resolved", "caseId", updated.CaseID, "admin", admin.Email)

	b, err := json.Marshal(messageCaseResponse{Success: true, Message: "Case resolved successfully", Case: updated})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CaseDocumentHandler streams a stored attachment (photo or FIR document)
// back as its binary form. Attachments are stored as data-URL strings, so the
// content type comes from the prefix when present and a magic-byte sniff when
// not.
func (c CaseAdmin) CaseDocumentHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["case_id"]
	docType := vars["doc_type"]

	if docType != "image" && docType != "fir-report" {
		config.ErrorStatus("document type must be image or fir-report", http.StatusBadRequest, w, fmt.Errorf("unknown document type %q", docType))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	projection := bson.M{"caseId": 1, "image": 1, "firReport": 1}
	caseDoc, err := c.DB.FindOne(ctx, caseIDFilter(id), &options.FindOneOptions{Projection: projection})
	if err != nil {
		config.ErrorStatus("case not found", http.StatusNotFound, w, err)
		return
	}

	raw := caseDoc.Image
	filename := caseDoc.CaseID + "-photo"
	if docType == "fir-report" {
		raw = caseDoc.FIRReport
		filename = caseDoc.CaseID + "-fir"
	}
	if raw == "" {
		config.ErrorStatus("document not found", http.StatusNotFound, w, fmt.Errorf("case has no %s", docType))
		return
	}

	data, contentType, err := decodeDataURL(raw)
	if err != nil {
		config.ErrorStatus("stored document is not valid base64", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename+extensionFor(contentType)))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Header().Set("Cache-Control", "private, no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type updateCoordinatesResponse struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Results *tracking.BackfillResult `json:"results"`
}

// UpdateCoordinatesHandler runs the bulk coordinate backfill over all approved
// cases that still lack tracking entries
func (c CaseAdmin) UpdateCoordinatesHandler(w http.ResponseWriter, r *http.Request) {
	results, err := c.Tracker.BackfillAll(r.Context())
	if err != nil {
		config.ErrorStatus("failed to run coordinate backfill", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(updateCoordinatesResponse{
		Success: true,
		Message: fmt.Sprintf("Updated coordinates for %d of %d cases", results.Updated, results.Total),
		Results: results,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
