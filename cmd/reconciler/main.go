package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/application/services"
	"github.com/DanielPopoola/epay-reconciler/internal/config"
	"github.com/DanielPopoola/epay-reconciler/internal/infrastructure/epay"
	"github.com/DanielPopoola/epay-reconciler/internal/infrastructure/messaging"
	"github.com/DanielPopoola/epay-reconciler/internal/infrastructure/messaging/kafka"
	"github.com/DanielPopoola/epay-reconciler/internal/infrastructure/notification"
	"github.com/DanielPopoola/epay-reconciler/internal/infrastructure/notification/amqp"
	"github.com/DanielPopoola/epay-reconciler/internal/infrastructure/notification/smtp"
	"github.com/DanielPopoola/epay-reconciler/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/epay-reconciler/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/epay-reconciler/internal/interfaces/rest/middleware"
	"github.com/DanielPopoola/epay-reconciler/internal/interfaces/rest/openapi"
	"github.com/DanielPopoola/epay-reconciler/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting epay reconciler",
		"env", cfg.Primary.Env,
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("reconciler stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}

	codec, err := newCodec(cfg.Qazkom)
	if err != nil {
		return err
	}

	notifier, closeNotifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	publisher, closePublisher := newPublisher(cfg, logger)
	defer closePublisher()

	callbacks, err := callbackURIs(cfg.Qazkom)
	if err != nil {
		return err
	}

	uow := postgres.NewTransactionCoordinator(db)
	uris := services.NewPaymentURIBuilder(cfg.Epayment.DefaultPaymentURIPattern)
	dispatcher := services.NewDispatcher(uow, notifier, publisher, uris, logger)
	banks := services.NewBankResolver(postgres.NewBankRepository(db), logger)

	invoiceService := services.NewInvoiceService(uow, dispatcher, uris, logger)
	redirectService := services.NewRedirectService(uow, codec, services.GatewayConfig{
		Merchant: application.MerchantCredentials{
			MerchantID: cfg.Qazkom.MerchantID,
			Name:       cfg.Qazkom.MerchantName,
			CertID:     cfg.Qazkom.CertID,
		},
		EpayURI:    cfg.Qazkom.EpayURI,
		HTTPMethod: cfg.Qazkom.HTTPMethod,
		Template:   cfg.Qazkom.Template,
	}, logger)
	postbackService := services.NewPostbackService(uow, codec, banks, dispatcher, logger)
	failureService := services.NewFailureService(uow, codec, logger)

	h := handlers.NewHandlers(
		invoiceService,
		redirectService,
		postbackService,
		failureService,
		callbacks,
		logger,
	)

	contract, err := openapi.Load(ctx)
	if err != nil {
		return err
	}
	if err := openapi.Register(contract); err != nil {
		return err
	}
	validate, err := middleware.RequestValidator(contract, logger)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	openapi.RegisterDocsRoutes(mux)

	handler := middleware.Chain(mux,
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.Timeout(cfg.Server.RequestTimeout),
		validate,
	)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	relay := worker.NewOutboxRelay(uow, publisher, cfg.Worker.Interval, cfg.Worker.BatchSize, logger)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go relay.Start(workerCtx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		return err
	}

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
	return nil
}

func newCodec(cfg config.QazkomConfig) (*epay.Codec, error) {
	key, err := epay.LoadPrivateKey(cfg.MerchantKeyPath, cfg.MerchantKeyPassword)
	if err != nil {
		return nil, err
	}
	cert, err := epay.LoadCertificate(cfg.BankCertPath)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return epay.NewCodec(key, cert, epay.WithLocation(loc))
}

func newNotifier(cfg *config.Config, logger *slog.Logger) (application.Notifier, func(), error) {
	noop := func() {}

	switch cfg.Notifier.Transport {
	case "smtp":
		n, err := smtp.NewNotifier(cfg.SMTP, logger)
		if err != nil {
			return nil, noop, err
		}
		return n, noop, nil
	case "amqp":
		n, err := amqp.Dial(cfg.AMQP.URL, cfg.AMQP.Queue, logger)
		if err != nil {
			return nil, noop, err
		}
		return n, closer(n, "amqp notifier", logger), nil
	default:
		return notification.NewLogNotifier(logger), noop, nil
	}
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (application.EventPublisher, func()) {
	if cfg.Publisher.Transport == "kafka" {
		p := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.WriteTimeout, logger)
		retrying := messaging.NewRetryPublisher(p, cfg.Publisher.BaseDelay, cfg.Publisher.MaxRetries)
		return retrying, closer(p, "kafka publisher", logger)
	}
	return messaging.NewLogPublisher(logger), func() {}
}

func closer(c io.Closer, name string, logger *slog.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("close failed", "component", name, "error", err)
		}
	}
}

func callbackURIs(cfg config.QazkomConfig) (handlers.CallbackURIs, error) {
	var uris handlers.CallbackURIs
	for _, u := range []struct {
		raw string
		dst **url.URL
	}{
		{cfg.PostbackURI, &uris.Postback},
		{cfg.FailureURI, &uris.Failure},
		{cfg.ReturnURI, &uris.Return},
	} {
		parsed, err := url.Parse(u.raw)
		if err != nil {
			return uris, err
		}
		*u.dst = parsed
	}
	return uris, nil
}
