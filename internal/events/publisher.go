package events

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/sirupsen/logrus"

	"product-import-service/internal/importer"
	"product-import-service/internal/models"
)

// Publisher emits the import audit trail over NATS JetStream: one event per
// lifecycle transition plus one per product the run creates.
type Publisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

var _ importer.AuditTrail = (*Publisher)(nil)

// NewPublisher creates a new import events publisher
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://nats.nats.svc.cluster.local:4222"
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "product-import-service"

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create events publisher: %w", err)
	}

	// Ensure the products stream exists
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.EnsureStream(ctx, events.StreamProducts, []string{"product.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure products stream (may already exist)")
	}

	return &Publisher{
		publisher: publisher,
		logger:    logger.WithField("component", "import-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
}

// ImportStarted publishes a product.import_started event
func (p *Publisher) ImportStarted(ctx context.Context, job *models.ImportJob) {
	event := p.buildImportEvent("product.import_started", job)
	event.ChangeType = "import_started"
	p.publish(event)
}

// ImportCompleted publishes a product.import_completed event
func (p *Publisher) ImportCompleted(ctx context.Context, job *models.ImportJob, summary string) {
	event := p.buildImportEvent("product.import_completed", job)
	event.ChangeType = "import_completed"
	event.NewValue = map[string]interface{}{
		"summary":    summary,
		"productIds": []string(job.ProductIDs),
	}
	p.publish(event)
}

// ImportFailed publishes a product.import_failed event
func (p *Publisher) ImportFailed(ctx context.Context, job *models.ImportJob, reason string) {
	event := p.buildImportEvent("product.import_failed", job)
	event.ChangeType = "import_failed"
	event.NewValue = map[string]interface{}{
		"reason": reason,
	}
	p.publish(event)
}

// ProductImported publishes a product.imported event for one created product
func (p *Publisher) ProductImported(ctx context.Context, job *models.ImportJob, product *models.Product) {
	event := p.buildImportEvent("product.imported", job)
	event.ChangeType = "imported"
	event.ProductID = product.ID.String()
	event.ProductName = product.Name
	event.SKU = product.SKU
	if product.MasterPrice != nil {
		event.Price = *product.MasterPrice
	}
	p.publish(event)
}

// buildImportEvent creates a ProductEvent carrying the job context
func (p *Publisher) buildImportEvent(eventType string, job *models.ImportJob) *events.ProductEvent {
	event := events.NewProductEvent(eventType, "default")
	event.SourceID = job.ID.String()
	event.Status = string(job.State)
	return event
}

// publish sends events asynchronously so the import loop never blocks on NATS
func (p *Publisher) publish(event *events.ProductEvent) {
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.publisher.PublishProduct(pubCtx, event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"sourceID":  event.SourceID,
			}).WithError(err).Error("Failed to publish import event")
		}
	}()
}
