// cmd/api/main.go
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"vidstudio-backend/internal/auth"
	"vidstudio-backend/internal/autosave"
	"vidstudio-backend/internal/cache"
	"vidstudio-backend/internal/handler"
	"vidstudio-backend/internal/service"
	"vidstudio-backend/internal/store"
	"vidstudio-backend/internal/thumbnail"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// Load .env in dev only — production injects env vars through infra
	if os.Getenv("APP_ENV") != "production" {
		godotenv.Load()
	}

	// ── Database ──────────────────────────────────────────────────────────────
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal("Failed to open DB:", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection at startup — fail fast rather than accepting traffic
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatal("Database ping failed:", err)
	}

	if err := store.EnsureSchema(db); err != nil {
		log.Fatal("Schema setup failed:", err)
	}

	// ── Local cache ───────────────────────────────────────────────────────────
	// Sqlite preferred; a flat JSON file fallback kicks in when it is
	// unavailable. The cache is best-effort — the service runs fine without it.
	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		cacheDir = "./cache"
	}
	projectCache := cache.Open(
		filepath.Join(cacheDir, "projects.db"),
		filepath.Join(cacheDir, "projects.json"),
	)
	defer projectCache.Close()

	// ── Stores & services ─────────────────────────────────────────────────────
	projectStore := store.NewProjectStore(db, auth.ContextResolver{})
	opener := service.NewProjectOpener(projectStore, projectCache)
	thumbs := &thumbnail.FFmpeg{BinPath: os.Getenv("FFMPEG_BIN")}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}

	projectHandler := &handler.ProjectHandler{
		Service:   projectStore,
		Opener:    opener,
		Cache:     projectCache,
		Thumbs:    thumbs,
		UploadDir: uploadDir,
		BaseURL:   os.Getenv("BASE_URL"),
	}

	sessionHandler := &handler.EditSessionHandler{
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true }, // gateway enforces origin
		},
		// One store instance per connection: save coalescing state stays
		// scoped to the session that owns it.
		NewSaver: func(identity auth.IdentityResolver) autosave.Saver {
			return store.NewProjectStore(db, identity)
		},
	}

	// ── Router ────────────────────────────────────────────────────────────────
	r := mux.NewRouter()

	// Health check — required by load balancers and Kubernetes liveness probes
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, `{"status":"unhealthy"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(handler.WithUser)
	api.HandleFunc("/projects", projectHandler.ListProjects).Methods("GET")
	api.HandleFunc("/projects", projectHandler.CreateProject).Methods("POST")
	api.HandleFunc("/projects/{id}", projectHandler.OpenProject).Methods("GET")
	api.HandleFunc("/projects/{id}", projectHandler.SaveProject).Methods("PUT")
	api.HandleFunc("/projects/{id}", projectHandler.DeleteProject).Methods("DELETE")
	api.HandleFunc("/projects/{id}/duplicate", projectHandler.DuplicateProject).Methods("POST")
	api.HandleFunc("/projects/{id}/title", projectHandler.RenameProject).Methods("PUT")
	api.HandleFunc("/projects/{id}/video", projectHandler.UploadVideo).Methods("POST")
	api.HandleFunc("/projects/{id}/session", sessionHandler.Serve).Methods("GET")

	// Serve local uploads — in production a CDN/object store serves these
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))),
	)

	// ── CORS — read from env, not hardcoded ────────────────────────────────────
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173"
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{allowedOrigins}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		// X-User-ID: injected by the API gateway in production
		handlers.AllowedHeaders([]string{"Content-Type", "X-User-ID", "Authorization"}),
	)

	// ── HTTP server with timeouts ──────────────────────────────────────────────
	port := os.Getenv("PORT")
	if port == "" {
		port = "8083"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      cors(r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second, // uploads can run long
		IdleTimeout:  60 * time.Second,
	}

	// ── Graceful shutdown ──────────────────────────────────────────────────────
	// Finish in-flight requests before exiting — no request dropped mid-save.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Editor persistence service running on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error:", err)
		}
	}()

	<-quit
	log.Println("Shutdown signal received — draining requests...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Forced shutdown:", err)
	}
	log.Println("Server stopped cleanly")
}
