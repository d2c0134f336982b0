package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
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

// Node exported for testing purposes
type Node struct {
	DB databases.NodeDatabase
}

type createNodeRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// CreateHandler registers a new jurisdiction node (super admin only)
func (n Node) CreateHandler(w http.ResponseWriter, r *http.Request) {
	admin := api.AdminFromContext(r.Context())

	var req createNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Name == "" {
		config.ErrorStatus("name is required", http.StatusBadRequest, w, fmt.Errorf("missing name"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := n.DB.CountDocuments(ctx, bson.M{"name": req.Name})
	if err != nil {
		config.ErrorStatus("failed to check for existing node", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("a node with this name already exists", http.StatusConflict, w, fmt.Errorf("duplicate node name"))
		return
	}

	node := models.Node{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		Location:  req.Location,
		CreatedBy: &admin.ID,
		CreatedAt: time.Now(),
	}
	if _, err := n.DB.InsertOne(ctx, node); err != nil {
		config.ErrorStatus("failed to create node", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("node created", "name", node.Name, "admin", admin.Email)

	b, err := json.Marshal(map[string]interface{}{
		"success": true,
		"message": "Node created successfully",
		"node":    node,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// DeleteHandler removes a node (super admin only). Cases already assigned to
// the node keep their reference.
func (n Node) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["node_id"]
	nodeID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		config.ErrorStatus("invalid node id", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := n.DB.FindOne(ctx, bson.M{"_id": nodeID}); err != nil {
		config.ErrorStatus("node not found", http.StatusNotFound, w, err)
		return
	}
	if err := n.DB.DeleteOne(ctx, bson.M{"_id": nodeID}); err != nil {
		config.ErrorStatus("failed to delete node", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{
		"success": true,
		"message": "Node deleted",
	})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type nodesResponse struct {
	Success bool          `json:"success"`
	Nodes   []models.Node `json:"nodes"`
}

// ListHandler lists all nodes for authenticated admins
func (n Node) ListHandler(w http.ResponseWriter, r *http.Request) {
	n.list(w, r)
}

// PublicListHandler lists all nodes for the registration form, no auth
func (n Node) PublicListHandler(w http.ResponseWriter, r *http.Request) {
	n.list(w, r)
}

func (n Node) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := n.DB.Find(ctx, bson.M{}, &options.FindOptions{Sort: bson.D{{Key: "name", Value: 1}}})
	if err != nil {
		config.ErrorStatus("failed to get nodes", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Node{}
	}

	b, err := json.Marshal(nodesResponse{Success: true, Nodes: dbResp})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
