package cmd

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/zonedns/zoned/internal/doq"
	"github.com/zonedns/zoned/internal/metrics"
)

// probeDoQ sends a single query to the configured DoQ server and logs the
// response.
func probeDoQ(ctx context.Context, l *slog.Logger, envs *environment) (err error) {
	qtype, ok := dns.StringToType[envs.DoQQueryType]
	if !ok {
		return fmt.Errorf("unknown query type %q", envs.DoQQueryType)
	}

	doqMtrc, err := metrics.NewDoQ(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	cli, err := doq.New(&doq.Config{
		Logger: l,
		TLSConfig: &tls.Config{
			InsecureSkipVerify: envs.DoQInsecure,
		},
		Metrics: doqMtrc,
		Wait:    time.Duration(envs.DoQTimeout),
		MarkECN: true,
	})
	if err != nil {
		return fmt.Errorf("creating doq client: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, cli.Close()) }()

	err = cli.Connect(ctx, envs.DoQAddr)
	if err != nil {
		return err
	}

	req := &dns.Msg{}
	req.SetQuestion(dns.Fqdn(envs.DoQQueryName), qtype)

	resp, err := cli.Exchange(ctx, req)
	if err != nil {
		if ce := cli.LastError(); ce != nil {
			l.ErrorContext(ctx, "connection closed", "kind", ce.Kind, "reason", ce.Reason)
		}

		return err
	}

	l.InfoContext(
		ctx,
		"got response",
		"rcode", dns.RcodeToString[resp.Rcode],
		"answers", len(resp.Answer),
	)
	for _, rr := range resp.Answer {
		l.InfoContext(ctx, "answer", "rr", rr.String())
	}

	return nil
}
