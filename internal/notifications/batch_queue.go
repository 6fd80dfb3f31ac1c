package notifications

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// BatchQueue collects confirmed deliveries and mails each recipient one
// digest per flush. It implements the delivery ledger's Notifier.
type BatchQueue struct {
	queue    Queue
	mailer   Mailer
	interval time.Duration
	location *time.Location
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewBatchQueue(queue Queue, mailer Mailer, interval time.Duration, location *time.Location, logger *zap.Logger) *BatchQueue {
	if location == nil {
		location = time.Local
	}
	return &BatchQueue{
		queue:    queue,
		mailer:   mailer,
		interval: interval,
		location: location,
		logger:   logger,
	}
}

// DeliveryConfirmed queues the delivery for the staff member's next digest.
// Staff without an email address are skipped.
func (b *BatchQueue) DeliveryConfirmed(ctx context.Context, detail models.DeliveryDetail) error {
	if detail.StaffMember.Email == nil || strings.TrimSpace(*detail.StaffMember.Email) == "" {
		b.logger.Debug("Skipping delivery notification, staff member has no email",
			zap.Int("delivery_id", detail.ID),
			zap.Int("staff_member_id", detail.StaffMemberID))
		return nil
	}

	return b.queue.Push(ctx, strings.TrimSpace(*detail.StaffMember.Email), entryFromDetail(detail))
}

func entryFromDetail(d models.DeliveryDetail) Entry {
	e := Entry{
		DeliveryID: d.ID,
		StaffName:  d.StaffMember.Name,
		PartNumber: d.Part.PartNumber,
		PartName:   d.Part.Name,
		Quantity:   d.Quantity,
		UnitCost:   d.UnitCost.StringFixed(2),
	}
	if d.Building != nil {
		e.Building = d.Building.Name
	}
	if d.CostCenter != nil {
		e.CostCenter = d.CostCenter.Code
	}
	if d.Signature != nil && *d.Signature != "" {
		e.Signed = true
	}
	if d.ConfirmedAt != nil {
		e.ConfirmedAt = *d.ConfirmedAt
	}
	return e
}

// Start flushes the queue every interval until Stop is called or ctx ends.
func (b *BatchQueue) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})

	go b.run(ctx, b.done)
	b.logger.Info("Delivery notification queue started", zap.Duration("interval", b.interval))
}

func (b *BatchQueue) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.Flush(ctx); err != nil {
				b.logger.Warn("Delivery notification flush failed", zap.Error(err))
			}
		}
	}
}

// Stop ends the flush loop and sends whatever is still queued.
func (b *BatchQueue) Stop() {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	ctx, cancelFlush := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelFlush()
	if _, err := b.Flush(ctx); err != nil {
		b.logger.Warn("Final delivery notification flush failed", zap.Error(err))
	}
	b.logger.Info("Delivery notification queue stopped")
}

// Flush mails one digest per recipient and returns how many were sent. A
// digest that cannot be sent goes back on the queue for the next flush.
func (b *BatchQueue) Flush(ctx context.Context) (int, error) {
	recipients, err := b.queue.Recipients(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	var failures []string
	for _, recipient := range recipients {
		entries, err := b.queue.Drain(ctx, recipient)
		if err != nil {
			failures = append(failures, recipient)
			b.logger.Warn("Unable to drain notifications", zap.String("recipient", recipient), zap.Error(err))
			continue
		}
		if len(entries) == 0 {
			continue
		}

		batchID := ulid.Make().String()
		subject, body := b.digest(batchID, entries)
		if err := b.mailer.Send(ctx, recipient, subject, body); err != nil {
			failures = append(failures, recipient)
			b.logger.Warn("Unable to send delivery digest",
				zap.String("recipient", recipient),
				zap.String("batch_id", batchID),
				zap.Error(err))
			if err := b.queue.Push(ctx, recipient, entries...); err != nil {
				b.logger.Error("Lost delivery notifications", zap.String("recipient", recipient), zap.Int("entries", len(entries)), zap.Error(err))
			}
			continue
		}

		b.logger.Debug("Sent delivery digest",
			zap.String("recipient", recipient),
			zap.String("batch_id", batchID),
			zap.Int("entries", len(entries)))
		sent++
	}

	if len(failures) > 0 {
		return sent, fmt.Errorf("delivery digests failed for %s", strings.Join(failures, ", "))
	}
	return sent, nil
}

// Clear drops every queued notification without sending it.
func (b *BatchQueue) Clear(ctx context.Context) error {
	return b.queue.Clear(ctx)
}

func (b *BatchQueue) digest(batchID string, entries []Entry) (string, string) {
	subject := "Parts delivered to you"
	if len(entries) > 1 {
		subject = fmt.Sprintf("%d parts deliveries confirmed", len(entries))
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n", entries[0].StaffName)
	body.WriteString("The following deliveries were confirmed:\n\n")
	for _, e := range entries {
		fmt.Fprintf(&body, "- %s %s x%d @ %s", e.PartNumber, e.PartName, e.Quantity, e.UnitCost)
		if e.Building != "" {
			fmt.Fprintf(&body, ", %s", e.Building)
		}
		if e.CostCenter != "" {
			fmt.Fprintf(&body, ", cost center %s", e.CostCenter)
		}
		if !e.ConfirmedAt.IsZero() {
			fmt.Fprintf(&body, ", %s", e.ConfirmedAt.In(b.location).Format("2006-01-02 15:04"))
		}
		if e.Signed {
			body.WriteString(", signature on file")
		}
		body.WriteString("\n")
	}
	fmt.Fprintf(&body, "\nReference: %s\n", batchID)
	return subject, body.String()
}
