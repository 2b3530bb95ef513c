package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("service")
	meter  = otel.Meter("service")

	downloadCounter, _ = meter.Int64Counter("bookshelf.downloads",
		metric.WithDescription("Premium download attempts by outcome."))
	creditCounter, _ = meter.Int64Counter("bookshelf.tokens.credited",
		metric.WithDescription("Tokens credited to wallets."))
	registrationCounter, _ = meter.Int64Counter("bookshelf.registrations",
		metric.WithDescription("Accounts registered."))
)

func recordDownload(ctx context.Context, outcome string) {
	downloadCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
