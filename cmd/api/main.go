package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"shopfloor-service/internal/activities"
	"shopfloor-service/internal/config"
	"shopfloor-service/internal/shop"
	"shopfloor-service/internal/workflows"
)

// The API process owns the in-memory shop store, so it also hosts the
// Temporal worker whose activities mutate that store.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("invalid flags: %v", err)
	}

	departments, err := config.LoadDepartments(cfg.DepartmentsFile)
	if err != nil {
		log.Fatalf("unable to load departments: %v", err)
	}

	store := shop.NewStore(shop.DemoOperators(), departments)
	if cfg.SeedDemo {
		if err := shop.Seed(store, time.Now()); err != nil {
			log.Fatalf("unable to seed demo data: %v", err)
		}
	}

	tc, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    tlog.NewStructuredLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))),
	})
	if err != nil {
		log.Fatalf("unable to create Temporal client: %v", err)
	}
	defer tc.Close()

	w := worker.New(tc, workflows.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ResolveAssignment)
	w.RegisterActivity(&activities.Activities{Shop: store})
	if err := w.Start(); err != nil {
		log.Fatalf("unable to start worker: %v", err)
	}
	defer w.Stop()
	log.Printf("worker started (taskQueue=%s)\n", workflows.TaskQueue)

	api := &apiServer{shop: store, tc: tc}
	r := chi.NewRouter()
	api.routes(r)
	api.workflowRoutes(r)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Printf("api listening on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-worker.InterruptCh()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
