// Package cmd is the zoned entry point.  It contains the environment
// configuration, the check-policy file utilities, and the wiring of the zone
// checker and the DoQ probe.
package cmd

import (
	"context"
	"os"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/zonedns/zoned/internal/errcoll"
	"github.com/zonedns/zoned/internal/metrics"
	"github.com/zonedns/zoned/internal/semcheck"
	"github.com/zonedns/zoned/internal/version"
)

// Main is the entry point of the zoned command-line tool.
func Main() {
	ctx := context.Background()

	envs, err := readEnvs()
	check(err)

	logger := envs.buildLogger()
	logger.InfoContext(
		ctx,
		"starting",
		"name", version.Name(),
		"version", version.Version(),
		"revision", version.Revision(),
	)

	errColl, err := envs.buildErrColl()
	check(err)

	semCheckMtrc, err := metrics.NewSemCheck(prometheus.DefaultRegisterer)
	check(err)

	chk := semcheck.New(&semcheck.Config{
		Logger:  logger.With(slogutil.KeyPrefix, "semcheck"),
		Metrics: semCheckMtrc,
	})

	entries, err := envs.policyEntries()
	check(err)

	osExitCode := 0

	if len(entries) > 0 {
		var fatal bool
		fatal, err = checkZones(ctx, &zoneCheckConfig{
			logger:      logger.With(slogutil.KeyPrefix, "zonecheck"),
			errColl:     errColl,
			checker:     chk,
			entries:     entries,
			concurrency: envs.CheckConcurrency,
		})
		check(err)

		if fatal {
			osExitCode = 1
		}
	}

	if envs.DoQAddr != "" {
		err = probeDoQ(ctx, logger.With(slogutil.KeyPrefix, "doq"), envs)
		if err != nil {
			errcoll.Collect(ctx, errColl, logger, "doq probe failed", err)
			osExitCode = 1
		}
	}

	if f, ok := errColl.(interface{ Flush() }); ok {
		f.Flush()
	}

	os.Exit(osExitCode)
}

// check is a simple error-checking helper for the initialization steps.  It
// must only be used within Main.
func check(err error) {
	if err != nil {
		panic(err)
	}
}
