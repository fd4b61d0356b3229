package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/fel-api/internal/application/dte"
	"github.com/jhoicas/fel-api/internal/domain/repository"
	infrafel "github.com/jhoicas/fel-api/internal/infrastructure/fel"
	"github.com/jhoicas/fel-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/fel-api/internal/interfaces/http"
	"github.com/jhoicas/fel-api/pkg/config"
	"github.com/jhoicas/fel-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var docRepo repository.DocumentRepository
	if cfg.DB.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		repo := postgres.NewDocumentRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("crear esquema fel_documents")
		}
		docRepo = repo
	} else {
		log.Warn().Msg("DB_ENABLED=false: los DTE certificados no se guardarán")
	}

	gateway := infrafel.NewRESTClient(infrafel.RESTClientConfig{
		BaseURL:    cfg.FEL.BaseURL,
		RefererURL: cfg.FEL.RefererURL,
		Timeout:    cfg.FEL.Timeout(),
	}, infrafel.StaticToken{Nit: cfg.FEL.TokenNit, Clave: cfg.FEL.TokenClave})

	assembler := infrafel.NewAssembler(assemblerOptions(cfg.FEL)...)

	startCtx, cancelStart := context.WithTimeout(ctx, cfg.FEL.Timeout())
	manager, err := dte.NewManager(startCtx, gateway, assembler, docRepo, dte.Config{
		Password: cfg.FEL.Password,
	}, log)
	cancelStart()
	if err != nil {
		log.Fatal().Err(err).Msg("cargar configuración del contribuyente desde el portal FEL")
	}
	documents := dte.NewDocumentService(infrafel.NewParser(), docRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.FEL.Timeout() * 3,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Manager:   manager,
		Documents: documents,
		JWTSecret: cfg.JWT.Secret,
		Logger:    log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// assemblerOptions traduce la sección FEL de la configuración a opciones del ensamblador.
func assemblerOptions(c config.FELConfig) []infrafel.AssemblerOption {
	opts := []infrafel.AssemblerOption{
		infrafel.WithLocation(c.Location()),
		infrafel.WithExportPhraseScenario(c.ExportPhraseScenario),
	}
	cert := infrafel.DefaultCertification()
	override := false
	for _, f := range []struct {
		val string
		dst *string
	}{
		{c.Cert.NIT, &cert.NIT},
		{c.Cert.Name, &cert.Name},
		{c.Cert.Serie, &cert.Serie},
		{c.Cert.Numero, &cert.Numero},
		{c.Cert.Authorization, &cert.Authorization},
		{c.Cert.Date, &cert.CertifiedAt},
	} {
		if f.val != "" {
			*f.dst = f.val
			override = true
		}
	}
	if override {
		opts = append(opts, infrafel.WithCertification(cert))
	}
	return opts
}
