package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/zonedns/zoned/internal/errcoll"
	"github.com/zonedns/zoned/internal/semcheck"
	"github.com/zonedns/zoned/internal/zone"
)

// zoneCheckConfig is the configuration of one checkZones call.
type zoneCheckConfig struct {
	logger      *slog.Logger
	errColl     errcoll.Interface
	checker     *semcheck.Checker
	entries     []*zonePolicy
	concurrency int
}

// checkZones checks all configured zones on a worker pool.  fatal is true
// when at least one zone has fatal findings.
func checkZones(ctx context.Context, conf *zoneCheckConfig) (fatal bool, err error) {
	pool, err := ants.NewPool(conf.concurrency)
	if err != nil {
		return false, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	var fatalZones atomic.Uint32
	wg := &sync.WaitGroup{}
	for _, entry := range conf.entries {
		wg.Add(1)

		err = pool.Submit(func() {
			defer wg.Done()

			if checkZoneFile(ctx, conf, entry) {
				fatalZones.Add(1)
			}
		})
		if err != nil {
			wg.Done()

			return false, fmt.Errorf("submitting zone %q: %w", entry.Origin, err)
		}
	}

	wg.Wait()

	return fatalZones.Load() > 0, nil
}

// checkZoneFile loads and checks one zone.  fatal is true when the zone has
// fatal findings.
func checkZoneFile(ctx context.Context, conf *zoneCheckConfig, entry *zonePolicy) (fatal bool) {
	l := conf.logger.With("zone", entry.Origin)

	opt, err := parseMode(entry.Mode)
	if err != nil {
		// Validated when the policy entries were built.
		panic(err)
	}

	z, err := zone.ParseFile(entry.File, entry.Origin)
	if err != nil {
		errcoll.Collect(ctx, conf.errColl, l, "loading zone", err)

		return true
	}

	h := &semcheck.Handler{
		OnFinding: func(_ *zone.Contents, f *semcheck.Finding) {
			l.WarnContext(
				ctx,
				"finding",
				"owner", f.Owner,
				"code", f.Code.String(),
				"info", f.Info,
			)
		},
	}

	err = conf.checker.Check(ctx, z, opt, h, time.Now())
	if err != nil {
		if errors.Is(err, semcheck.ErrSemCheck) {
			l.ErrorContext(ctx, "zone has fatal findings")

			return true
		}

		errcoll.Collect(ctx, conf.errColl, l, "checking zone", err)

		return true
	}

	l.InfoContext(ctx, "zone is valid", "nodes", z.NodeCount())

	return false
}
