package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hearth/internal/audit"
	"hearth/internal/backup"
	"hearth/internal/catalog"
	"hearth/internal/config"
	"hearth/internal/metrics"
	"hearth/internal/session"
	"hearth/internal/store"
	"hearth/internal/transport/ws"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to server.yaml (optional)")
		addr       = flag.String("addr", "", "http listen address (overrides config)")
		dbPath     = flag.String("db", "", "sqlite document store path (overrides config)")
		auditDir   = flag.String("audit_dir", "", "audit log directory (overrides config; empty in config disables)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if strings.TrimSpace(*addr) != "" {
		cfg.Addr = *addr
	}
	if strings.TrimSpace(*dbPath) != "" {
		cfg.DBPath = *dbPath
	}
	if strings.TrimSpace(*auditDir) != "" {
		cfg.AuditDir = *auditDir
	}

	st, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close()

	cat := catalog.Default()
	logger.Printf("catalog: %d items digest=%s", cat.Len(), cat.Digest()[:12])

	var opts []session.Option
	if cfg.AuditDir != "" {
		auditor := audit.NewLogger(cfg.AuditDir)
		defer auditor.Close()
		opts = append(opts, session.WithAudit(auditor))
	}

	var metricSet *metrics.Set
	if cfg.Metrics {
		metricSet = metrics.New()
		opts = append(opts, session.WithMetrics(metricSet))
	}

	if cfg.Backup.Enabled {
		client, err := backup.NewClient(cfg.Backup.Endpoint, cfg.Backup.Bucket, cfg.Backup.AccessKeyID, cfg.Backup.SecretAccessKey)
		if err != nil {
			logger.Fatalf("backup client: %v", err)
		}
		mirror := backup.NewMirror(client, cfg.Backup.Prefix, cfg.Backup.Workers, cfg.Backup.QueueCapacity,
			log.New(os.Stdout, "[backup] ", log.LstdFlags))
		defer mirror.Close()
		opts = append(opts, session.WithMirror(mirror))
		logger.Printf("backup mirror: bucket=%s workers=%d", cfg.Backup.Bucket, cfg.Backup.Workers)
	}

	mgr := session.NewManager(st, cat, logger, opts...)
	wsSrv := ws.NewServer(mgr, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds))

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if metricSet != nil {
		mux.Handle("/metrics", metricSet.Handler())
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("signal %s; shutting down", sig)
	case err := <-errCh:
		logger.Fatalf("http server: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}
