package scanner

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sgaunet/s3ingest/pkg/dto"
)

var (
	itemsProcessed metric.Int64Counter
	itemsFailed    metric.Int64Counter
	itemsSkipped   metric.Int64Counter
	batchesRun     metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/sgaunet/s3ingest/pkg/scanner")

	var err error

	itemsProcessed, err = meter.Int64Counter(
		"s3ingest.scan.items_processed",
		metric.WithDescription("Number of objects ingested"),
	)
	if err != nil {
		log.Fatalf("failed to create scan.items_processed counter: %v", err)
	}

	itemsFailed, err = meter.Int64Counter(
		"s3ingest.scan.items_failed",
		metric.WithDescription("Number of objects dropped after a failure"),
	)
	if err != nil {
		log.Fatalf("failed to create scan.items_failed counter: %v", err)
	}

	itemsSkipped, err = meter.Int64Counter(
		"s3ingest.scan.items_skipped",
		metric.WithDescription("Number of objects skipped because they were already ingested"),
	)
	if err != nil {
		log.Fatalf("failed to create scan.items_skipped counter: %v", err)
	}

	batchesRun, err = meter.Int64Counter(
		"s3ingest.scan.batches",
		metric.WithDescription("Number of batches run"),
	)
	if err != nil {
		log.Fatalf("failed to create scan.batches counter: %v", err)
	}
}

func recordOutcome(ctx context.Context, kind dto.ItemKind, res outcome) {
	attrs := metric.WithAttributes(attribute.String("kind", string(kind)))
	switch res {
	case outcomeProcessed:
		itemsProcessed.Add(ctx, 1, attrs)
	case outcomeSkipped:
		itemsSkipped.Add(ctx, 1, attrs)
	case outcomeFailed:
		itemsFailed.Add(ctx, 1, attrs)
	}
}

func recordBatch(ctx context.Context, completed bool) {
	batchesRun.Add(ctx, 1, metric.WithAttributes(attribute.Bool("completed", completed)))
}
