package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/reunite-app/missing-persons-api/api"
	"github.com/reunite-app/missing-persons-api/api/scheduler"
	"github.com/reunite-app/missing-persons-api/config"
	"github.com/reunite-app/missing-persons-api/databases"
	"github.com/reunite-app/missing-persons-api/geo"
	"github.com/reunite-app/missing-persons-api/models"
	"github.com/reunite-app/missing-persons-api/tracking"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	cdb := databases.NewCaseDatabase(a.dbHelper)
	ldb := databases.NewLocationTrackingDatabase(a.dbHelper)
	adb := databases.NewAdminDatabase(a.dbHelper)
	ndb := databases.NewNodeDatabase(a.dbHelper)
	udb := databases.NewUserDatabase(a.dbHelper)
	counter := databases.NewCounterDatabase(a.dbHelper)

	resolver := geo.NewResolver()
	tracker := tracking.NewTracker(cdb, ldb, resolver)
	mailer := NewMailer(a.Config.SendgridAPIKey, a.Config.FromEmail, udb)

	m := api.MiddlewareDB{ADB: adb, UDB: udb, Secret: a.Config.JWTSecret}

	c := Case{DB: cdb, Counter: counter}
	ca := CaseAdmin{DB: cdb, Tracker: tracker, Mail: mailer}
	loc := Location{DB: cdb, Tracker: tracker}
	pre := NewPreLocation()
	ad := Admin{DB: adb, NDB: ndb, CDB: cdb, Secret: a.Config.JWTSecret}
	n := Node{DB: ndb}
	u := User{DB: udb, Secret: a.Config.JWTSecret}

	anyAdmin := m.AdminAuth()
	superAdmin := m.AdminAuth(models.RoleSuperAdmin)
	reviewers := m.AdminAuth(models.RoleSuperAdmin, models.RoleNodeAdmin)

	r := mux.NewRouter()
	r.Use(api.LoggingMiddleware)
	r.Use(api.TimeoutMiddleware(30 * time.Second))

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	// citizen accounts
	apiCreate.Handle("/auth/register", http.HandlerFunc(u.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/auth/login", http.HandlerFunc(u.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/me", m.UserAuth(http.HandlerFunc(u.MeHandler))).Methods("GET")
	apiCreate.Handle("/auth/profile", m.UserAuth(http.HandlerFunc(u.UpdateProfileHandler))).Methods("PUT")

	// case intake and the reporter's own view
	apiCreate.Handle("/cases", m.UserAuth(http.HandlerFunc(c.CreateCaseHandler))).Methods("POST")
	apiCreate.Handle("/cases/my", m.UserAuth(http.HandlerFunc(c.MyCasesHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/request-resolution", m.UserAuth(http.HandlerFunc(c.RequestResolutionHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/details", m.UserAuth(http.HandlerFunc(c.CaseByIDHandler))).Methods("GET")

	// public browse, no auth
	apiCreate.Handle("/cases/approved", http.HandlerFunc(c.ApprovedCasesHandler)).Methods("GET")
	apiCreate.Handle("/cases/public", http.HandlerFunc(c.PublicApprovedCasesHandler)).Methods("GET")
	apiCreate.Handle("/cases/public/{case_id}", http.HandlerFunc(c.PublicCaseHandler)).Methods("GET")

	// face recognition collaborator feed
	apiCreate.Handle("/cases/face-recognition", http.HandlerFunc(c.FaceRecognitionCasesHandler)).Methods("GET")
	apiCreate.Handle("/cases/by-name/{name}", http.HandlerFunc(c.CaseByNameHandler)).Methods("GET")

	// location tracking
	apiCreate.Handle("/cases/{case_id}/locations", http.HandlerFunc(loc.CaseLocationsHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/locations", http.HandlerFunc(loc.AddLocationHandler)).Methods("POST")
	apiCreate.Handle("/prelocation", http.HandlerFunc(pre.SetHandler)).Methods("POST")
	apiCreate.Handle("/prelocation", http.HandlerFunc(pre.GetHandler)).Methods("GET")

	// admin review workflow
	apiCreate.Handle("/admin/register", http.HandlerFunc(ad.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/admin/login", http.HandlerFunc(ad.LoginHandler)).Methods("POST")
	apiCreate.Handle("/admin/me", anyAdmin(http.HandlerFunc(ad.MeHandler))).Methods("GET")
	apiCreate.Handle("/admin/dashboard", anyAdmin(http.HandlerFunc(ad.DashboardStatsHandler))).Methods("GET")
	apiCreate.Handle("/admin/all", superAdmin(http.HandlerFunc(ad.AllHandler))).Methods("GET")
	apiCreate.Handle("/admin/pending", reviewers(http.HandlerFunc(ad.PendingHandler))).Methods("GET")
	apiCreate.Handle("/admin/{admin_id}/approve", reviewers(http.HandlerFunc(ad.ApproveHandler))).Methods("PUT")
	apiCreate.Handle("/admin/{admin_id}/decline", reviewers(http.HandlerFunc(ad.DeclineHandler))).Methods("PUT")
	apiCreate.Handle("/admin/{admin_id}/deactivate", superAdmin(http.HandlerFunc(ad.DeactivateHandler))).Methods("PUT")
	apiCreate.Handle("/admin/{admin_id}/activate", superAdmin(http.HandlerFunc(ad.ActivateHandler))).Methods("PUT")

	// admin case workflow
	apiCreate.Handle("/admin/cases/pending", anyAdmin(http.HandlerFunc(ca.PendingCasesHandler))).Methods("GET")
	apiCreate.Handle("/admin/cases/status/{status}", anyAdmin(http.HandlerFunc(ca.CasesByStatusHandler))).Methods("GET")
	apiCreate.Handle("/admin/cases/{case_id}/approve", anyAdmin(http.HandlerFunc(ca.ApproveCaseHandler))).Methods("PUT")
	apiCreate.Handle("/admin/cases/{case_id}/reject", anyAdmin(http.HandlerFunc(ca.RejectCaseHandler))).Methods("PUT")
	apiCreate.Handle("/admin/cases/{case_id}/resolve", anyAdmin(http.HandlerFunc(ca.ResolveCaseHandler))).Methods("PUT")
	apiCreate.Handle("/admin/cases/{case_id}/document/{doc_type}", anyAdmin(http.HandlerFunc(ca.CaseDocumentHandler))).Methods("GET")
	apiCreate.Handle("/admin/cases/update-coordinates", reviewers(http.HandlerFunc(ca.UpdateCoordinatesHandler))).Methods("POST")

	// jurisdiction nodes
	apiCreate.Handle("/nodes/public", http.HandlerFunc(n.PublicListHandler)).Methods("GET")
	apiCreate.Handle("/nodes", anyAdmin(http.HandlerFunc(n.ListHandler))).Methods("GET")
	apiCreate.Handle("/nodes", superAdmin(http.HandlerFunc(n.CreateHandler))).Methods("POST")
	apiCreate.Handle("/nodes/{node_id}", superAdmin(http.HandlerFunc(n.DeleteHandler))).Methods("DELETE")

	// citizen account administration
	apiCreate.Handle("/users", reviewers(http.HandlerFunc(u.AllHandler))).Methods("GET")
	apiCreate.Handle("/users/{user_id}/deactivate", reviewers(http.HandlerFunc(u.DeactivateHandler))).Methods("PUT")
	apiCreate.Handle("/users/{user_id}/activate", reviewers(http.HandlerFunc(u.ActivateHandler))).Methods("PUT")
	apiCreate.Handle("/users/{user_id}", superAdmin(http.HandlerFunc(u.DeleteHandler))).Methods("DELETE")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("missing-persons-api has connected to the database")

	// initialize api router
	a.initializeRoutes()

	// start the nightly coordinate backfill
	cdb := databases.NewCaseDatabase(a.dbHelper)
	ldb := databases.NewLocationTrackingDatabase(a.dbHelper)
	tracker := tracking.NewTracker(cdb, ldb, geo.NewResolver())
	a.Scheduler = scheduler.NewScheduler(tracker, databases.NewSchedulerLockDatabase(a.dbHelper))
	a.Scheduler.Start()

	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
