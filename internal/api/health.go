// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/constants"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/respond"
)

const readinessTimeout = 2 * time.Second

// HealthDependencies are the probes behind /ready. Nil probes are skipped,
// so the memory driver without Redis is always ready.
type HealthDependencies struct {
	CheckDatabase func(ctx context.Context) error
	CheckCache    func(ctx context.Context) error
}

type probe struct {
	name  string
	check func(ctx context.Context) error
}

type checkResult struct {
	Name      string `json:"name"`
	IsOK      bool   `json:"ok"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// NewHealthHandlers returns the /health and /ready handlers.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	var probes []probe
	for _, candidate := range []probe{
		{"postgres", deps.CheckDatabase},
		{"redis", deps.CheckCache},
	} {
		if candidate.check != nil {
			probes = append(probes, candidate)
		}
	}

	liveness = func(writer http.ResponseWriter, _ *http.Request) {
		respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
	}
	readiness = func(writer http.ResponseWriter, request *http.Request) {
		results := runProbes(request.Context(), probes, logger)

		status, code := "ready", http.StatusOK
		for _, result := range results {
			if !result.IsOK {
				status, code = "degraded", http.StatusServiceUnavailable
				break
			}
		}
		respond.JSON(writer, code, respond.SuccessEnvelope{Data: map[string]any{
			constants.FieldStatus: status,
			constants.FieldChecks: results,
		}})
	}
	return liveness, readiness
}

// runProbes checks every dependency concurrently. A failing probe does not
// cancel the others.
func runProbes(ctx context.Context, probes []probe, logger *slog.Logger) []checkResult {
	results := make([]checkResult, len(probes))

	var group errgroup.Group
	for i, p := range probes {
		group.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
			defer cancel()

			started := time.Now()
			err := p.check(checkCtx)
			results[i] = checkResult{Name: p.name, IsOK: err == nil, LatencyMS: time.Since(started).Milliseconds()}
			if err != nil {
				results[i].Error = err.Error()
				logger.Error("readiness_check_failed", slog.String("dependency", p.name), slog.Any("error", err))
			}
			return nil
		})
	}
	_ = group.Wait()
	return results
}
