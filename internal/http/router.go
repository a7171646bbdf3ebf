package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taller-backend/internal/handlers"
	"taller-backend/internal/middleware"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	catalogoHandler *handlers.CatalogoHandler,
	clienteHandler *handlers.ClienteHandler,
	reparacionHandler *handlers.ReparacionHandler,
	sugerenciaHandler *handlers.SugerenciaHandler,
	wizardHandler *handlers.WizardHandler,
	pagoHandler *handlers.PagoHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Payment webhook authenticates by signature, not by JWT
	r.HandleFunc("/api/pagos/webhook", pagoHandler.Webhook).Methods("POST")

	// Authenticated user info and 2FA setup
	authAPI := r.PathPrefix("/api/auth").Subrouter()
	authAPI.Use(authMiddleware.Authenticate)
	authAPI.HandleFunc("/me", authHandler.Me).Methods("GET")
	authAPI.HandleFunc("/totp/setup", authHandler.SetupTOTP).Methods("POST")
	authAPI.HandleFunc("/totp/verify", authHandler.VerifyTOTP).Methods("POST")

	// Catalogs
	catalogosAPI := r.PathPrefix("/api/catalogos").Subrouter()
	catalogosAPI.Use(authMiddleware.Authenticate)
	catalogosAPI.HandleFunc("/marcas", catalogoHandler.ListMarcas).Methods("GET")
	catalogosAPI.HandleFunc("/marcas", catalogoHandler.CreateMarca).Methods("POST")
	catalogosAPI.HandleFunc("/marcas/{id}", catalogoHandler.UpdateMarca).Methods("PUT")
	catalogosAPI.HandleFunc("/marcas/{id}", authMiddleware.RequireRole("admin")(http.HandlerFunc(catalogoHandler.DeleteMarca)).ServeHTTP).Methods("DELETE")
	catalogosAPI.HandleFunc("/marcas/{marcaId}/modelos", catalogoHandler.ListModelos).Methods("GET")
	catalogosAPI.HandleFunc("/modelos", catalogoHandler.CreateModelo).Methods("POST")
	catalogosAPI.HandleFunc("/modelos/{id}", catalogoHandler.UpdateModelo).Methods("PUT")
	catalogosAPI.HandleFunc("/modelos/{id}", authMiddleware.RequireRole("admin")(http.HandlerFunc(catalogoHandler.DeleteModelo)).ServeHTTP).Methods("DELETE")
	catalogosAPI.HandleFunc("/estados", catalogoHandler.ListEstados).Methods("GET")
	catalogosAPI.HandleFunc("/estados", catalogoHandler.CreateEstado).Methods("POST")
	catalogosAPI.HandleFunc("/estados/{id}", catalogoHandler.UpdateEstado).Methods("PUT")
	catalogosAPI.HandleFunc("/estados/{id}", authMiddleware.RequireRole("admin")(http.HandlerFunc(catalogoHandler.DeleteEstado)).ServeHTTP).Methods("DELETE")
	catalogosAPI.HandleFunc("/averias", catalogoHandler.ListAverias).Methods("GET")
	catalogosAPI.HandleFunc("/averias", catalogoHandler.CreateAveria).Methods("POST")
	catalogosAPI.HandleFunc("/intervenciones", catalogoHandler.ListIntervenciones).Methods("GET")
	catalogosAPI.HandleFunc("/intervenciones", catalogoHandler.CreateIntervencion).Methods("POST")
	catalogosAPI.HandleFunc("/intervenciones/sugerencias", catalogoHandler.SugerirIntervenciones).Methods("GET")
	catalogosAPI.HandleFunc("/plantillas", catalogoHandler.ListPlantillas).Methods("GET")
	catalogosAPI.HandleFunc("/plantillas", catalogoHandler.CreatePlantilla).Methods("POST")
	catalogosAPI.HandleFunc("/plantillas/{id}/uso", catalogoHandler.RegistrarUsoPlantilla).Methods("POST")

	// Customers
	clientesAPI := r.PathPrefix("/api/clientes").Subrouter()
	clientesAPI.Use(authMiddleware.Authenticate)
	clientesAPI.HandleFunc("/buscar", clienteHandler.Buscar).Methods("GET")
	clientesAPI.HandleFunc("/buscar-nombre", clienteHandler.BuscarPorNombre).Methods("GET")
	clientesAPI.HandleFunc("", clienteHandler.Guardar).Methods("POST")
	clientesAPI.HandleFunc("/{id}", clienteHandler.GetCliente).Methods("GET")

	// Repair orders
	reparacionesAPI := r.PathPrefix("/api/reparaciones").Subrouter()
	reparacionesAPI.Use(authMiddleware.Authenticate)
	reparacionesAPI.HandleFunc("", reparacionHandler.List).Methods("GET")
	reparacionesAPI.HandleFunc("/completa", reparacionHandler.CrearCompleta).Methods("POST")
	reparacionesAPI.HandleFunc("/{id}", reparacionHandler.Get).Methods("GET")
	reparacionesAPI.HandleFunc("/{id}/completa", reparacionHandler.ActualizarCompleta).Methods("PUT")
	reparacionesAPI.HandleFunc("/{id}/estado", reparacionHandler.CambiarEstado).Methods("PATCH")
	reparacionesAPI.HandleFunc("/{id}/presupuesto.pdf", reparacionHandler.PresupuestoPDF).Methods("GET")
	reparacionesAPI.HandleFunc("/{id}/pagos", pagoHandler.ListByReparacion).Methods("GET")

	// Suggestions
	sugerenciasAPI := r.PathPrefix("/api/sugerencias").Subrouter()
	sugerenciasAPI.Use(authMiddleware.Authenticate)
	sugerenciasAPI.HandleFunc("/clientes", sugerenciaHandler.Clientes).Methods("GET")
	sugerenciasAPI.HandleFunc("/dispositivos", sugerenciaHandler.Dispositivos).Methods("GET")
	sugerenciasAPI.HandleFunc("/plantillas", sugerenciaHandler.Plantillas).Methods("GET")
	sugerenciasAPI.HandleFunc("/refrescar", sugerenciaHandler.Refrescar).Methods("POST")

	// Wizard sessions
	asistenteAPI := r.PathPrefix("/api/asistente/sesiones").Subrouter()
	asistenteAPI.Use(authMiddleware.Authenticate)
	asistenteAPI.HandleFunc("", wizardHandler.Abrir).Methods("POST")
	asistenteAPI.HandleFunc("/{id}", wizardHandler.Estado).Methods("GET")
	asistenteAPI.HandleFunc("/{id}", wizardHandler.Cerrar).Methods("DELETE")
	asistenteAPI.HandleFunc("/{id}/cliente", wizardHandler.SetCliente).Methods("PUT")
	asistenteAPI.HandleFunc("/{id}/paso", wizardHandler.CambiarPaso).Methods("POST")
	asistenteAPI.HandleFunc("/{id}/dispositivos", wizardHandler.AgregarDispositivo).Methods("POST")
	asistenteAPI.HandleFunc("/{id}/dispositivos", wizardHandler.ActualizarDispositivo).Methods("PUT")
	asistenteAPI.HandleFunc("/{id}/dispositivos", wizardHandler.EliminarDispositivo).Methods("DELETE")
	asistenteAPI.HandleFunc("/{id}/terminal/seleccionar", wizardHandler.SeleccionarTerminal).Methods("POST")
	asistenteAPI.HandleFunc("/{id}/terminal/diagnostico", wizardHandler.EditarDiagnostico).Methods("PUT")
	asistenteAPI.HandleFunc("/{id}/terminal/presupuesto", wizardHandler.EditarPresupuesto).Methods("PUT")
	asistenteAPI.HandleFunc("/{id}/terminal/commit", wizardHandler.CommitTerminal).Methods("POST")
	asistenteAPI.HandleFunc("/{id}/totales", wizardHandler.Totales).Methods("GET")
	asistenteAPI.HandleFunc("/{id}/borrador/recuperar", wizardHandler.RecuperarBorrador).Methods("POST")
	asistenteAPI.HandleFunc("/{id}/borrador", wizardHandler.DescartarBorrador).Methods("DELETE")
	asistenteAPI.HandleFunc("/{id}/confirmar", wizardHandler.Confirmar).Methods("POST")

	// Online deposit payments
	pagosAPI := r.PathPrefix("/api/pagos").Subrouter()
	pagosAPI.Use(authMiddleware.Authenticate)
	pagosAPI.HandleFunc("/orden", pagoHandler.CreateOrder).Methods("POST")
	pagosAPI.HandleFunc("/verificar", pagoHandler.VerifyPayment).Methods("POST")

	return r
}
