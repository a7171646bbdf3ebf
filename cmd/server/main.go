package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"taller-backend/internal/auth"
	"taller-backend/internal/cache"
	"taller-backend/internal/config"
	"taller-backend/internal/database"
	"taller-backend/internal/db"
	"taller-backend/internal/handlers"
	"taller-backend/internal/health"
	h "taller-backend/internal/http"
	"taller-backend/internal/middleware"
	"taller-backend/internal/monitoring"
	"taller-backend/internal/repositories"
	"taller-backend/internal/services"
	"taller-backend/internal/storage"
	"taller-backend/internal/wizard"
	"taller-backend/migrations"
)

func main() {
	cfg := config.Load()

	pool := db.Connect(cfg)
	defer pool.Close()

	// Redis is optional: catalogs fall back to the database and wizard
	// drafts fall back to an in-process store when it is down.
	if err := cache.Init(cfg); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (drafts held in memory)", err)
	} else {
		log.Println("[Redis] Cache connected")
	}

	log.Println("Running database migrations...")
	migrator := database.NewMigratorWithFS(pool, migrations.FS, ".")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	healthChecker := health.NewHealthChecker(pool)

	// Monitoring dashboard runs on its own port
	monitoringServer := monitoring.NewServer(pool, 9090)
	go monitoringServer.Start()

	jwtManager := auth.NewJWTManager(cfg)

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	clienteRepo := repositories.NewClienteRepository(pool)
	marcaRepo := repositories.NewMarcaRepository(pool)
	modeloRepo := repositories.NewModeloRepository(pool)
	estadoRepo := repositories.NewEstadoRepository(pool)
	averiaRepo := repositories.NewAveriaRepository(pool)
	intervencionRepo := repositories.NewIntervencionRepository(pool)
	plantillaRepo := repositories.NewPlantillaRepository(pool)
	reparacionRepo := repositories.NewReparacionRepository(pool, clienteRepo)
	pagoRepo := repositories.NewPagoRepository(pool)

	// Wizard sessions: drafts survive restarts only when Redis is up.
	var draftStore wizard.DraftStore
	if client := cache.GetClient(); client != nil {
		draftStore = wizard.NewRedisDraftStore(client)
	} else {
		draftStore = wizard.NewMemoryDraftStore()
	}
	wizardManager := wizard.NewManager(draftStore)
	monitoring.SetSessionCounter(wizardManager)
	wizardManager.OnAutosaveActivated = func(sessionID string) {
		monitoringServer.Publish(monitoring.Evento{
			Tipo:      "autoguardado_activado",
			Mensaje:   "Autoguardado de borrador activado",
			SesionID:  sessionID,
			Timestamp: time.Now(),
		})
	}

	// Services
	userService := services.NewUserService(userRepo, jwtManager)
	clienteService := services.NewClienteService(clienteRepo)
	catalogoService := services.NewCatalogoService(marcaRepo, modeloRepo, estadoRepo, averiaRepo, intervencionRepo, plantillaRepo)
	sugerenciaService := services.NewSugerenciaService(reparacionRepo, averiaRepo, plantillaRepo)
	reparacionService := services.NewReparacionService(reparacionRepo, sugerenciaService)
	pdfService := services.NewPDFService(reparacionRepo)
	pagoService := services.NewPagoService(cfg, pagoRepo, reparacionRepo)

	// Brand icon storage is optional (S3-compatible bucket)
	var iconStore *storage.IconStore
	if cfg.Storage.Bucket != "" && cfg.Storage.AccessKey != "" {
		store, err := storage.NewIconStore(ctx, cfg)
		if err != nil {
			log.Printf("[Storage] Icon store unavailable: %v", err)
		} else {
			iconStore = store
			log.Printf("[Storage] Icon store ready (bucket %s)", cfg.Storage.Bucket)
		}
	} else {
		log.Println("[Storage] Icon store not configured, brand icon upload disabled")
	}

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	corsMiddleware := middleware.NewCORS(cfg)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	catalogoHandler := handlers.NewCatalogoHandler(catalogoService, iconStore)
	clienteHandler := handlers.NewClienteHandler(clienteService)
	reparacionHandler := handlers.NewReparacionHandler(reparacionService, pdfService)
	sugerenciaHandler := handlers.NewSugerenciaHandler(sugerenciaService)
	wizardHandler := handlers.NewWizardHandler(wizardManager, reparacionService)
	pagoHandler := handlers.NewPagoHandler(pagoService)
	healthHandler := handlers.NewHealthHandler(healthChecker)

	router := h.NewRouter(
		authHandler,
		catalogoHandler,
		clienteHandler,
		reparacionHandler,
		sugerenciaHandler,
		wizardHandler,
		pagoHandler,
		healthHandler,
		authMiddleware,
	)

	handler := middleware.PanicRecovery(middleware.MetricsMiddleware(corsMiddleware(router)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
