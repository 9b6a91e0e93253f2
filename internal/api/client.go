// Package api is the typed client for the storefront GraphQL API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/machinebox/graphql"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/monitoring"
	"github.com/fjod/storefront/pkg/circuitbreaker"
	"github.com/fjod/storefront/pkg/logger"
)

const breakerName = "graphql-api"

type Options struct {
	Timeout             time.Duration
	BreakerFailures     uint32
	BreakerOpenDuration time.Duration
	// HTTPClient overrides the default otelhttp-instrumented client.
	HTTPClient *http.Client
}

type Client struct {
	gql     *graphql.Client
	breaker *circuitbreaker.Breaker[struct{}]
	timeout time.Duration
	tracer  trace.Tracer
	log     *zap.Logger
}

func NewClient(endpoint string, opts Options, log *zap.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	breaker := circuitbreaker.New[struct{}](circuitbreaker.Settings{
		Name:                breakerName,
		ConsecutiveFailures: opts.BreakerFailures,
		Timeout:             opts.BreakerOpenDuration,
		IsSuccessful:        countsAsSuccess,
		OnStateChange: func(name, from, to string) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name), zap.String("from", from), zap.String("to", to))
			monitoring.RecordBreakerStateChange(name, to)
		},
	})

	return &Client{
		gql:     graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient)),
		breaker: breaker,
		timeout: opts.Timeout,
		tracer:  otel.Tracer("github.com/fjod/storefront/internal/api"),
		log:     log,
	}
}

// countsAsSuccess keeps server-reported errors and callers that hung up from
// tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	return !errors.Is(err, ErrUnavailable)
}

type validator interface {
	validate() error
}

// run executes one GraphQL operation and validates the decoded reply.
func (c *Client) run(ctx context.Context, op string, req *graphql.Request, resp validator) error {
	ctx, span := c.tracer.Start(ctx, "graphql."+op, trace.WithAttributes(attribute.String("graphql.operation", op)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, classify(c.gql.Run(ctx, req, resp))
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		err = fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err == nil {
		err = resp.validate()
	}
	monitoring.ObserveAPICall(op, err, time.Since(start), resultLabel)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithContext(ctx, c.log).Debug("api call failed", zap.String("operation", op), zap.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrUnavailable):
		return monitoring.ResultUnavailable
	case errors.Is(err, ErrMalformedResponse):
		return monitoring.ResultMalformed
	default:
		return monitoring.ResultError
	}
}

func optional(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
