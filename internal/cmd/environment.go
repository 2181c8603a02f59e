package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/caarlos0/env/v7"
	"github.com/getsentry/sentry-go"
	"github.com/zonedns/zoned/internal/errcoll"
)

// environment represents the configuration that is kept in the environment.
type environment struct {
	CheckPolicyPath string `env:"CHECK_POLICY_PATH"`
	CheckMode       string `env:"CHECK_MODE" envDefault:"auto"`

	ZoneFiles  []string `env:"ZONE_FILES" envSeparator:","`
	ZoneOrigin string   `env:"ZONE_ORIGIN"`

	DoQAddr      string            `env:"DOQ_ADDR"`
	DoQQueryName string            `env:"DOQ_QUERY_NAME" envDefault:"."`
	DoQQueryType string            `env:"DOQ_QUERY_TYPE" envDefault:"A"`
	DoQTimeout   timeutil.Duration `env:"DOQ_TIMEOUT" envDefault:"10s"`
	DoQInsecure  bool              `env:"DOQ_INSECURE" envDefault:"0"`

	SentryDSN string `env:"SENTRY_DSN"`

	CheckConcurrency int  `env:"CHECK_CONCURRENCY" envDefault:"4"`
	LogVerbose       bool `env:"LOG_VERBOSE" envDefault:"0"`
}

// readEnvs reads the configuration from the environment.
func readEnvs() (envs *environment, err error) {
	envs = &environment{}
	err = env.Parse(envs)
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	return envs, nil
}

// buildLogger returns a logger configured by the environment.  Only stdout
// is used; the users decide how to process the output.
func (envs *environment) buildLogger() (l *slog.Logger) {
	lvl := slog.LevelInfo
	if envs.LogVerbose {
		lvl = slog.LevelDebug
	}

	return slogutil.New(&slogutil.Config{
		Level: lvl,
	})
}

// buildErrColl builds and returns an error collector: a Sentry-based one
// when a DSN is set and a stderr writer otherwise.
func (envs *environment) buildErrColl() (errColl errcoll.Interface, err error) {
	if envs.SentryDSN == "" {
		return errcoll.NewWriterErrorCollector(os.Stderr), nil
	}

	cli, err := sentry.NewClient(sentry.ClientOptions{
		Dsn: envs.SentryDSN,
	})
	if err != nil {
		return nil, fmt.Errorf("creating sentry client: %w", err)
	}

	return errcoll.NewSentryErrorCollector(cli), nil
}

// policyEntries returns the zones to check: the check-policy file when one
// is configured, the ZONE_FILES list otherwise.
func (envs *environment) policyEntries() (entries []*zonePolicy, err error) {
	if envs.CheckPolicyPath != "" {
		policy, readErr := readPolicy(envs.CheckPolicyPath)
		if readErr != nil {
			return nil, readErr
		}

		return policy.Zones, nil
	}

	if len(envs.ZoneFiles) > 0 {
		_, err = parseMode(envs.CheckMode)
		if err != nil {
			return nil, fmt.Errorf("CHECK_MODE: %w", err)
		}
	}

	for _, f := range envs.ZoneFiles {
		entries = append(entries, &zonePolicy{
			File:   f,
			Origin: envs.ZoneOrigin,
			Mode:   envs.CheckMode,
		})
	}

	return entries, nil
}
