package router

import (
	"time"

	"servitec/internal/config"
	"servitec/internal/handler"
	"servitec/internal/infra"
	"servitec/internal/middleware"
	"servitec/internal/model"
	"servitec/internal/repository"
	"servitec/internal/service"
	"servitec/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis/MinIO
//
// storage may be nil; uploads and PDF delivery then fail with a 422 and
// /health reports the storage as disabled.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, storage *infra.Storage) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	cache := infra.NewCache(rdb, "servitec:")
	dispatcher := worker.NewDispatcher(rdb)

	var (
		archivos worker.Archivos
		subidas  service.Almacenamiento
		pinger   handler.Pinger
	)
	if storage != nil {
		archivos, subidas, pinger = storage, storage, storage
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	equipoRepo := repository.NewEquipoRepository(db)
	itemRepo := repository.NewItemRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)
	ordenRepo := repository.NewOrdenRepository(db)
	compraRepo := repository.NewCompraRepository(db)
	flujoRepo := repository.NewFlujoRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	iva := cfg.IVA()
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	inventarioSvc := service.NewInventarioService(itemRepo, movimientoStockRepo, equipoRepo, cfg.BodegaDefault)
	equipoSvc := service.NewEquipoService(equipoRepo)
	clienteSvc := service.NewClienteService(clienteRepo, ordenRepo, flujoRepo)
	ordenSvc := service.NewOrdenService(ordenRepo, clienteRepo, equipoRepo, flujoRepo, inventarioSvc,
		archivos, dispatcher, cache, iva, cfg.NombreNegocio)
	posSvc := service.NewPOSService(itemRepo, flujoRepo, inventarioSvc, cache, iva, cfg.BodegaDefault)
	compraSvc := service.NewCompraService(compraRepo, itemRepo, flujoRepo, inventarioSvc, cache, iva)
	flujoSvc := service.NewFlujoService(flujoRepo, dashboardRepo, subidas, cache, iva)
	remuneracionSvc := service.NewRemuneracionService(ordenRepo, itemRepo, flujoRepo, cache,
		cfg.Comision(), iva, cfg.Retencion())
	trackerSvc := service.NewTrackerService(ordenRepo)
	planillaSvc := service.NewPlanillaService(equipoRepo, itemRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	equiposH := handler.NewEquiposHandler(equipoSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	ordenesH := handler.NewOrdenesHandler(ordenSvc)
	posH := handler.NewPOSHandler(posSvc)
	comprasH := handler.NewComprasHandler(compraSvc)
	flujoH := handler.NewFlujoHandler(flujoSvc)
	remuneracionesH := handler.NewRemuneracionesHandler(remuneracionSvc)
	trackerH := handler.NewTrackerHandler(trackerSvc)
	planillasH := handler.NewPlanillasHandler(planillaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, pinger))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Customer-facing order status, no auth
	r.GET("/v1/tracker/:codigo", middleware.TrackerRateLimiter(), trackerH.Buscar)

	// Protected routes. Every authenticated role is at least tecnico;
	// groups below raise the floor.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	tecnico := v1.Group("", middleware.RequireRol(model.RolTecnico))
	coordinador := v1.Group("", middleware.RequireRol(model.RolCoordinador))
	admin := v1.Group("", middleware.RequireRol(model.RolAdmin))

	// Work orders: tecnico sees and edits only their own
	tecnico.POST("/ordenes", ordenesH.Crear)
	tecnico.GET("/ordenes", ordenesH.Listar)
	tecnico.GET("/ordenes/:id", ordenesH.Obtener)
	tecnico.PUT("/ordenes/:id", ordenesH.Actualizar)
	tecnico.POST("/ordenes/:id/archivos/:tipo", ordenesH.SubirArchivo)
	tecnico.GET("/ordenes/:id/pdf", ordenesH.PDF)
	tecnico.POST("/ordenes/:id/enviar", ordenesH.EnviarDocumento)
	admin.DELETE("/ordenes/:id", ordenesH.Eliminar)

	// Catalog reads needed to fill an order
	tecnico.GET("/inventario", inventarioH.Listar)
	tecnico.GET("/inventario/:id", inventarioH.Obtener)
	tecnico.GET("/inventario/compatibles/:modelo_id", inventarioH.Compatibles)
	tecnico.GET("/equipos", equiposH.Listar)
	tecnico.GET("/equipos/:id", equiposH.Obtener)
	tecnico.POST("/equipos", equiposH.Crear)
	tecnico.GET("/clientes", clientesH.Listar)
	tecnico.GET("/clientes/:id", clientesH.Obtener)
	tecnico.POST("/clientes", clientesH.Crear)
	tecnico.GET("/usuarios/tecnicos", usuariosH.Tecnicos)

	// Payroll: a tecnico is limited to their own liquidación
	tecnico.GET("/remuneraciones/liquidacion", remuneracionesH.Liquidacion)

	inv := coordinador.Group("/inventario")
	{
		inv.POST("", inventarioH.Crear)
		inv.PUT("/:id", inventarioH.Actualizar)
		inv.PATCH("/:id/stock", inventarioH.AjustarStock)
		inv.GET("/alertas", inventarioH.Alertas)
		inv.GET("/movimientos", inventarioH.Movimientos)
	}
	admin.DELETE("/inventario/:id", inventarioH.Eliminar)

	coordinador.PUT("/equipos/:id", equiposH.Actualizar)
	admin.DELETE("/equipos/:id", equiposH.Eliminar)

	coordinador.PUT("/clientes/:id", clientesH.Actualizar)
	coordinador.GET("/clientes/:id/historial", clientesH.Historial)
	admin.DELETE("/clientes/:id", clientesH.Eliminar)

	coordinador.POST("/pos/checkout", posH.Checkout)

	compras := coordinador.Group("/compras")
	{
		compras.POST("", comprasH.Crear)
		compras.GET("", comprasH.Listar)
		compras.GET("/:id", comprasH.Obtener)
		compras.POST("/:id/recibir", comprasH.Recibir)
		compras.DELETE("/:id", comprasH.Eliminar)
	}

	flujo := coordinador.Group("/flujo")
	{
		flujo.POST("", flujoH.Crear)
		flujo.GET("", flujoH.Listar)
		flujo.GET("/dashboard", flujoH.Dashboard)
		flujo.GET("/:id", flujoH.Obtener)
		flujo.PUT("/:id", flujoH.Actualizar)
		flujo.PATCH("/:id/confirmar", flujoH.Confirmar)
		flujo.POST("/:id/documento", flujoH.SubirDocumento)
	}
	admin.DELETE("/flujo/:id", flujoH.Eliminar)

	remu := admin.Group("/remuneraciones")
	{
		remu.POST("/resumen", remuneracionesH.Resumen)
		remu.POST("/pagar", remuneracionesH.Pagar)
	}

	planillas := admin.Group("/planillas")
	{
		planillas.GET("/equipos", planillasH.ExportarEquipos)
		planillas.POST("/equipos", planillasH.ImportarEquipos)
		planillas.GET("/inventario", planillasH.ExportarInventario)
		planillas.POST("/inventario", planillasH.ImportarInventario)
	}

	admin.GET("/colas", handler.Colas(rdb))

	usuarios := admin.Group("/usuarios")
	{
		usuarios.POST("", usuariosH.Crear)
		usuarios.GET("", usuariosH.Listar)
		usuarios.PUT("/:id", usuariosH.Actualizar)
		usuarios.DELETE("/:id", usuariosH.Desactivar)
		usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
