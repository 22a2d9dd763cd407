package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/phongpt2005/my-task-manager-web/handlers"
	"github.com/phongpt2005/my-task-manager-web/logging"
	"github.com/phongpt2005/my-task-manager-web/middleware"
	"github.com/phongpt2005/my-task-manager-web/repositories"
	"github.com/phongpt2005/my-task-manager-web/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Projects Service...")
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB_NAME")
	if dbName == "" {
		dbName = "projects_db"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	projectRepo := repositories.NewProjectRepo(client.Database(dbName).Collection("projects"))
	inviteRepo := repositories.NewInvitationRepo(client.Database(dbName).Collection("invitations"))
	userRepo := repositories.NewUserRepo(client.Database("users_db").Collection("users"))

	if err := projectRepo.EnsureIndexes(ctx); err != nil {
		logging.Logger.Fatalf("Event ID: INDEX_CREATE_FAILED, Description: %v", err)
	}
	if err := inviteRepo.EnsureIndexes(ctx); err != nil {
		logging.Logger.Fatalf("Event ID: INDEX_CREATE_FAILED, Description: %v", err)
	}

	notificationsURL := os.Getenv("NOTIFICATIONS_SERVICE_URL")
	if notificationsURL == "" {
		notificationsURL = "http://localhost:8084"
	}
	notifier := services.NewNotificationClient(notificationsURL, &http.Client{Timeout: 5 * time.Second})

	projectService := services.NewProjectService(projectRepo, notifier)
	accessService := services.NewAccessService(projectService)

	acceptURL := os.Getenv("INVITE_ACCEPT_URL")
	if acceptURL == "" {
		acceptURL = "http://localhost:4200/invite"
	}
	inviteService := services.NewInvitationService(inviteRepo, projectService, userRepo, notifier, acceptURL)

	// Lenji sweep isteklih pozivnica; validacija ne zavisi od njega.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", func() {
		sweepCtx, sweepCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer sweepCancel()
		inviteService.ExpireSweep(sweepCtx)
	}); err != nil {
		logging.Logger.Fatalf("Event ID: CRON_SETUP_FAILED, Description: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	projectHandler := handlers.NewProjectHandler(projectService, accessService)
	inviteHandler := handlers.NewInvitationHandler(inviteService, accessService)

	r := mux.NewRouter()
	r.Use(middleware.JWTAuthMiddleware)

	r.HandleFunc("/api/projects", projectHandler.CreateProject).Methods(http.MethodPost)
	r.HandleFunc("/api/projects", projectHandler.ListProjects).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/invite/accept", inviteHandler.AcceptInvite).Methods(http.MethodPost)
	r.HandleFunc("/api/projects/invites/my", inviteHandler.MyInvites).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/{id}", projectHandler.GetProject).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/{id}", projectHandler.UpdateProject).Methods(http.MethodPut)
	r.HandleFunc("/api/projects/{id}", projectHandler.DeleteProject).Methods(http.MethodDelete)
	r.HandleFunc("/api/projects/{id}/members", projectHandler.GetMembers).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/{id}/members", projectHandler.AddMember).Methods(http.MethodPost)
	r.HandleFunc("/api/projects/{id}/members/{userId}", projectHandler.RemoveMember).Methods(http.MethodDelete)
	r.HandleFunc("/api/projects/{id}/members/{userId}", projectHandler.UpdateMemberRole).Methods(http.MethodPut)
	r.HandleFunc("/api/projects/{id}/leave", projectHandler.LeaveProject).Methods(http.MethodPost)
	r.HandleFunc("/api/projects/{id}/invite", inviteHandler.InviteMember).Methods(http.MethodPost)
	r.HandleFunc("/api/projects/{id}/invite/{inviteId}", inviteHandler.CancelInvite).Methods(http.MethodDelete)
	r.HandleFunc("/api/projects/{id}/tasks/can-edit", projectHandler.CanEditTask).Methods(http.MethodPost)

	corsRouter := middleware.EnableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}
	serverAddress := fmt.Sprintf(":%s", serverPort)

	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      corsRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)
	if err := srv.ListenAndServe(); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
