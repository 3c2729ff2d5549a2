package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"iiot-monitor/internal/audit"
	"iiot-monitor/internal/auth"
	commandsapp "iiot-monitor/internal/commands/application"
	commands "iiot-monitor/internal/commands/domain"
	commandsmem "iiot-monitor/internal/commands/infrastructure/memory"
	commandsrepo "iiot-monitor/internal/commands/infrastructure/postgres"
	commandshttp "iiot-monitor/internal/commands/interfaces/http"
	commandsmqtt "iiot-monitor/internal/commands/interfaces/mqtt"
	"iiot-monitor/internal/datasource"
	errorfeed "iiot-monitor/internal/errorfeed/domain"
	errorfeedrepo "iiot-monitor/internal/errorfeed/infrastructure/postgres"
	errorfeedhttp "iiot-monitor/internal/errorfeed/interfaces/http"
	kpi "iiot-monitor/internal/kpi/domain"
	kpimem "iiot-monitor/internal/kpi/infrastructure/memory"
	kpirepo "iiot-monitor/internal/kpi/infrastructure/postgres"
	kpihttp "iiot-monitor/internal/kpi/interfaces/http"
	"iiot-monitor/internal/monitoring"
	"iiot-monitor/internal/observability/metrics"
	telemetry "iiot-monitor/internal/telemetry/domain"
	telemetrypostgres "iiot-monitor/internal/telemetry/infrastructure/postgres"
	telemetryhttp "iiot-monitor/internal/telemetry/interfaces/http"
	"iiot-monitor/internal/view"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	monitoringCfg, err := monitoring.LoadConfig()
	if err != nil {
		logger.Fatalf("monitoring config error: %v", err)
	}
	rules := monitoringCfg.StatusRules()

	var (
		store       telemetry.Store
		events      errorfeed.Repository
		kpiSource   kpi.Source
		commandRepo commands.Repository
		source      datasource.DataSource
		auditor     audit.Logger = audit.Nop{}
	)

	switch cfg.DataSource {
	case "sample":
		sampleSource, sampleStore, sampleEvents, err := datasource.NewSampleSource(func() time.Time { return time.Now().UTC() })
		if err != nil {
			logger.Fatalf("sample source error: %v", err)
		}
		sampleKPIs := kpimem.NewSource()
		sampleKPIs.Put(kpimem.SampleKPIs(time.Now().UTC())...)

		store = sampleStore
		events = sampleEvents
		kpiSource = sampleKPIs
		commandRepo = commandsmem.NewCommandRepository()
		source = sampleSource
		metrics.Init(nil, logger)
		logger.Printf("running with the built-in sample fleet")
	case "postgres":
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		metrics.Init(db, logger)

		store = telemetrypostgres.NewTelemetryQuery(db)
		eventRepo, err := errorfeedrepo.NewEventRepository(db)
		if err != nil {
			logger.Fatalf("error feed repository error: %v", err)
		}
		events = eventRepo
		kpiQuery, err := kpirepo.NewKPIQuery(db)
		if err != nil {
			logger.Fatalf("kpi query error: %v", err)
		}
		kpiSource = kpiQuery
		pgCommandRepo, err := commandsrepo.NewCommandRepository(db)
		if err != nil {
			logger.Fatalf("command repository error: %v", err)
		}
		commandRepo = pgCommandRepo
		auditor = audit.NewRepository(db)

		storeSource, err := datasource.NewStoreSource(store, events,
			datasource.WithRecency(monitoringCfg.Recency()),
			datasource.WithLookback(monitoringCfg.Lookback()))
		if err != nil {
			logger.Fatalf("store source error: %v", err)
		}
		source = storeSource
	default:
		logger.Fatalf("unknown DATA_SOURCE %q (want postgres or sample)", cfg.DataSource)
	}

	var dispatcher commands.Dispatcher
	if cfg.MQTTBrokerURL != "" {
		mqttDispatcher, err := commandsmqtt.NewDispatcher(commandsmqtt.Config{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
		}, logger)
		if err != nil {
			logger.Fatalf("mqtt dispatcher error: %v", err)
		}
		defer mqttDispatcher.Close()
		dispatcher = mqttDispatcher
	} else {
		logger.Printf("MQTT_BROKER_URL not set, logging device commands instead of publishing")
		dispatcher = commandsmqtt.NewLogDispatcher(logger)
	}

	commandService, err := commandsapp.NewService(commandRepo, dispatcher, auditor)
	if err != nil {
		logger.Fatalf("command service error: %v", err)
	}
	commandHandler, err := commandshttp.NewHandler(commandService, logger)
	if err != nil {
		logger.Fatalf("command handler error: %v", err)
	}

	deviceHandler, err := telemetryhttp.NewHandler(store, logger,
		telemetryhttp.WithRecency(monitoringCfg.Recency()),
		telemetryhttp.WithLookback(monitoringCfg.Lookback()),
		telemetryhttp.WithCommandRoutes(commandHandler))
	if err != nil {
		logger.Fatalf("device handler error: %v", err)
	}
	exportHandler, err := telemetryhttp.NewExportHandler(store, rules, logger,
		telemetryhttp.WithExportRecency(monitoringCfg.Recency()))
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}
	errorHandler, err := errorfeedhttp.NewHandler(events, auditor, logger)
	if err != nil {
		logger.Fatalf("error feed handler error: %v", err)
	}
	kpiHandler, err := kpihttp.NewHandler(kpiSource, logger)
	if err != nil {
		logger.Fatalf("kpi handler error: %v", err)
	}

	poller, err := view.NewPoller(source, logger, view.WithInterval(monitoringCfg.PollInterval()))
	if err != nil {
		logger.Fatalf("fleet poller error: %v", err)
	}
	pollCtx, stopPolling := context.WithCancel(context.Background())
	defer stopPolling()
	go poller.Run(pollCtx)

	viewHandler, err := view.NewHandler(source, rules, logger, view.WithPoller(poller))
	if err != nil {
		logger.Fatalf("view handler error: %v", err)
	}

	authenticator := auth.NewStaticAuthenticator(auth.ParseCredentials(cfg.AuthUsers)...)
	sessionHandler, err := auth.NewSessionHandler([]byte(cfg.JWTSecret), authenticator, logger)
	if err != nil {
		logger.Fatalf("session handler error: %v", err)
	}
	policy := auth.NewDefaultPolicy(nil, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/devices", deviceHandler)
	mux.Handle("/api/devices/", deviceHandler)
	mux.Handle("/api/errors", errorHandler)
	mux.Handle("/api/errors/", errorHandler)
	mux.Handle("/api/kpis", kpiHandler)
	mux.Handle("/api/exports/devices.csv", exportHandler)
	mux.Handle("/api/exports/devices.xlsx", exportHandler)
	mux.Handle("/api/exports/kpis.pdf", kpiHandler)
	mux.Handle("/api/exports/kpis.xlsx", kpiHandler)
	mux.Handle("/api/view/", viewHandler)
	mux.Handle("/api/session", sessionHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := corsMiddleware(loggingMiddleware(authMiddleware.Wrap(mux), logger), cfg.AllowedOrigin)
	server := &http.Server{Addr: cfg.HTTPAddr, Handler: handler}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL   string
	HTTPAddr      string
	DataSource    string
	JWTSecret     string
	AuthUsers     string
	MQTTBrokerURL string
	MQTTClientID  string
	AllowedOrigin string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:   getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:      getenvDefault("HTTP_ADDR", ":8080"),
		DataSource:    getenvDefault("DATA_SOURCE", "postgres"),
		JWTSecret:     getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		AuthUsers:     getenvDefault("AUTH_USERS", ""),
		MQTTBrokerURL: getenvDefault("MQTT_BROKER_URL", ""),
		MQTTClientID:  getenvDefault("MQTT_CLIENT_ID", ""),
		AllowedOrigin: getenvDefault("CORS_ALLOWED_ORIGIN", "*"),
	}
	if cfg.DataSource == "postgres" && cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required (or set DATA_SOURCE=sample)")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

func corsMiddleware(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
