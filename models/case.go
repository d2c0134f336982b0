package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Case status values. A case starts pending and is moved by admin action only.
const (
	CaseStatusPending  = "pending"
	CaseStatusApproved = "approved"
	CaseStatusRejected = "rejected"
	CaseStatusResolved = "resolved"
)

// Case priority values. Informational only, does not gate the workflow.
const (
	CasePriorityLow    = "low"
	CasePriorityMedium = "medium"
	CasePriorityHigh   = "high"
)

// ValidCaseStatus reports whether s is one of the four lifecycle states
func ValidCaseStatus(s string) bool {
	switch s {
	case CaseStatusPending, CaseStatusApproved, CaseStatusRejected, CaseStatusResolved:
		return true
	}
	return false
}

// ValidGender reports whether g is an accepted gender value
func ValidGender(g string) bool {
	return g == "Male" || g == "Female" || g == "Other"
}

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID                 primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	CaseID             string             `json:"caseId" bson:"caseId"`
	ReportedBy         primitive.ObjectID `json:"reportedBy,omitempty" bson:"reportedBy,omitempty"`
	ReportedByUsername string             `json:"reportedByUsername,omitempty" bson:"reportedByUsername,omitempty"`
	Name               string             `json:"name" bson:"name"`
	Age                int                `json:"age" bson:"age"`
	Gender             string             `json:"gender" bson:"gender"`
	DateReported       time.Time          `json:"dateReported" bson:"dateReported"`
	DateMissing        time.Time          `json:"dateMissing" bson:"dateMissing"`
	LastSeenLocation   string             `json:"lastSeenLocation" bson:"lastSeenLocation"`
	IncidentTime       string             `json:"incidentTime" bson:"incidentTime"`
	Description        string             `json:"description" bson:"description"`
	ContactNumber      string             `json:"contactNumber,omitempty" bson:"contactNumber,omitempty"`
	Address            string             `json:"address,omitempty" bson:"address,omitempty"`
	AdhaarNumber       string             `json:"adhaarNumber,omitempty" bson:"adhaarNumber,omitempty"`
	Height             string             `json:"height,omitempty" bson:"height,omitempty"`
	Weight             string             `json:"weight,omitempty" bson:"weight,omitempty"`
	DistinguishingMarks string            `json:"distinguishingMarks,omitempty" bson:"distinguishingMarks,omitempty"`

	// Image and FIRReport are data-URL strings stored inline on the document
	Image     string `json:"image,omitempty" bson:"image,omitempty"`
	FIRReport string `json:"firReport,omitempty" bson:"firReport,omitempty"`

	Status   string `json:"status" bson:"status"`
	Priority string `json:"priority" bson:"priority"`

	ApprovedBy      *primitive.ObjectID `json:"approvedBy,omitempty" bson:"approvedBy,omitempty"`
	ApprovedAt      *time.Time          `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`
	RejectedBy      *primitive.ObjectID `json:"rejectedBy,omitempty" bson:"rejectedBy,omitempty"`
	RejectedAt      *time.Time          `json:"rejectedAt,omitempty" bson:"rejectedAt,omitempty"`
	RejectionReason string              `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	ResolvedBy      *primitive.ObjectID `json:"resolvedBy,omitempty" bson:"resolvedBy,omitempty"`
	ResolvedAt      *time.Time          `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
	ResolutionReason string             `json:"resolutionReason,omitempty" bson:"resolutionReason,omitempty"`
	FoundLocation   string              `json:"foundLocation,omitempty" bson:"foundLocation,omitempty"`
	FoundDate       *time.Time          `json:"foundDate,omitempty" bson:"foundDate,omitempty"`

	// Resolution request is a pending claim by the reporting user, distinct
	// from an admin resolving the case. It never changes the status field.
	ResolutionRequested     bool       `json:"resolutionRequested" bson:"resolutionRequested"`
	ResolutionRequestDate   *time.Time `json:"resolutionRequestDate,omitempty" bson:"resolutionRequestDate,omitempty"`
	ResolutionRequestReason string     `json:"resolutionRequestReason,omitempty" bson:"resolutionRequestReason,omitempty"`
	RequestedFoundLocation  string     `json:"requestedFoundLocation,omitempty" bson:"requestedFoundLocation,omitempty"`
	RequestedFoundDate      *time.Time `json:"requestedFoundDate,omitempty" bson:"requestedFoundDate,omitempty"`

	Node       *primitive.ObjectID `json:"node,omitempty" bson:"node,omitempty"`
	AssignedTo *primitive.ObjectID `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`

	Notes   []CaseNote   `json:"notes,omitempty" bson:"notes,omitempty"`
	Updates []CaseUpdate `json:"updates,omitempty" bson:"updates,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CaseNote is a free-text note attached to a case by an admin
type CaseNote struct {
	AddedBy primitive.ObjectID `json:"addedBy" bson:"addedBy"`
	Note    string             `json:"note" bson:"note"`
	AddedAt time.Time          `json:"addedAt" bson:"addedAt"`
}

// CaseUpdate records a status change for the case audit trail
type CaseUpdate struct {
	Status      string             `json:"status" bson:"status"`
	UpdatedBy   primitive.ObjectID `json:"updatedBy" bson:"updatedBy"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
}
