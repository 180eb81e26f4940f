package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/application/ports"
	"github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	infracfdi "github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/ledger"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/pac"
	httpRouter "github.com/jhoicas/cfdi-api/internal/interfaces/http"
	"github.com/jhoicas/cfdi-api/pkg/config"
	"github.com/jhoicas/cfdi-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("pac_mode", cfg.PAC.Mode).
		Msg("iniciando aplicación")

	// Ledger de envíos: Redis si está configurado (compartido entre réplicas), memoria si no.
	var stampLedger ports.StampingLedger
	if cfg.Redis.URL != "" {
		redisLedger, err := ledger.NewRedisLedger(cfg.Redis.URL, cfg.Redis.PendingTTL())
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisLedger.Close()
		stampLedger = redisLedger
	} else {
		log.Warn().Msg("REDIS_URL vacío: ledger en memoria, no se comparte entre réplicas")
		stampLedger = ledger.NewMemoryLedger(cfg.Redis.PendingTTL())
	}

	// PAC: en modo "dev" no se envía nada, los UUID son simulados.
	var stamper ports.Stamper
	if cfg.PAC.Mode == pac.ModeDev {
		stamper = pac.NewMockStamper()
	} else {
		stamper = pac.NewHTTPClient(pac.HTTPClientConfig{
			BaseURL: cfg.PAC.BaseURL,
			APIKey:  cfg.PAC.APIKey,
			Timeout: cfg.PAC.Timeout(),
		})
	}

	issuer := billing.IssuerSettings{
		Rfc:           cfg.Issuer.Rfc,
		Nombre:        cfg.Issuer.Nombre,
		RegimenFiscal: cfg.Issuer.RegimenFiscal,
		CodigoPostal:  cfg.Issuer.CodigoPostal,
	}
	issueUC := billing.NewIssueCFDIUseCase(
		stamper, stampLedger,
		infracfdi.NewFingerprinter(), infracfdi.NewJSONEncoder(),
		issuer, cfdi.ValidationOptions{EnforcePPDFormaPago: cfg.CFDI.EnforcePPDFormaPago},
		log,
	)
	cancelUC := billing.NewCancelCFDIUseCase(stamper, issuer, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.PAC.Timeout() + 5*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "CFDI API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "pac_mode": cfg.PAC.Mode})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		IssueCFDI:  issueUC,
		CancelCFDI: cancelUC,
		JWTSecret:  cfg.JWT.Secret,
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
