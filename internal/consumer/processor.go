package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/sungwon/email-dispatch/internal/metrics"
	"github.com/sungwon/email-dispatch/internal/models"
	"github.com/sungwon/email-dispatch/internal/status"
)

// TemplateResolver fetches an active template for a (slug, locale) pair.
type TemplateResolver interface {
	Resolve(ctx context.Context, slug, locale string) (*models.Template, error)
}

// Renderer substitutes variables into template text.
type Renderer interface {
	Render(tmpl string, variables map[string]any) string
}

// Sender delivers a rendered subject/body to a recipient address.
type Sender interface {
	SendRaw(ctx context.Context, to, subject, body string) bool
}

// StatusRecorder upserts the delivery status row for a request identifier.
type StatusRecorder interface {
	Record(ctx context.Context, requestID, status, provider string, detail *string) error
}

// Status detail strings written on the failure paths.
const (
	detailMissingEmail  = "missing email"
	detailTemplateError = "template error"
	detailSMTPFailure   = "smtp failure"
)

// Processor orchestrates one envelope: parse, resolve, render, deliver,
// record, then settle the queue message. It is the only place that decides
// queue disposition; inner components either recover locally or return a
// typed error handled here.
type Processor struct {
	resolver TemplateResolver
	renderer Renderer
	sender   Sender
	recorder StatusRecorder
	provider string
	log      zerolog.Logger
}

// NewProcessor creates a Processor. The provider name tags every status row
// this processor writes.
func NewProcessor(
	resolver TemplateResolver,
	renderer Renderer,
	sender Sender,
	recorder StatusRecorder,
	provider string,
	log zerolog.Logger,
) *Processor {
	return &Processor{
		resolver: resolver,
		renderer: renderer,
		sender:   sender,
		recorder: recorder,
		provider: provider,
		log:      log,
	}
}

// Handle processes a single delivery. Exactly one of ack or
// reject-without-requeue happens per message; rejected messages move to the
// dead-letter queue and are never requeued, which keeps poison messages from
// looping. A panic anywhere below settles the message as rejected.
func (p *Processor) Handle(ctx context.Context, msg amqp.Delivery) {
	metrics.MessagesConsumedTotal.Inc()
	start := time.Now()
	defer func() {
		metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	settled := false
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Msg("panic while processing message")
			if !settled {
				p.reject(msg)
			}
		}
	}()

	var envelope models.Envelope
	if err := json.Unmarshal(msg.Body, &envelope); err != nil {
		// No trustworthy request_id exists, so no status is written.
		p.log.Error().Err(err).Msg("failed to parse envelope, dead-lettering")
		p.reject(msg)
		settled = true
		return
	}

	log := p.log.With().Str("request_id", envelope.RequestID).Logger()

	if envelope.User.Email == "" {
		log.Warn().Msg("envelope has no recipient email")
		p.recordFailed(ctx, log, envelope.RequestID, detailMissingEmail)
		p.reject(msg)
		settled = true
		return
	}

	tpl, err := p.resolver.Resolve(ctx, envelope.Template.Slug, envelope.Locale())
	if err != nil {
		log.Error().Err(err).Str("slug", envelope.Template.Slug).Msg("template resolution failed")
		p.recordFailed(ctx, log, envelope.RequestID, detailTemplateError)
		p.reject(msg)
		settled = true
		return
	}

	subject := p.renderer.Render(tpl.Subject, envelope.Variables)
	body := p.renderer.Render(tpl.Body, envelope.Variables)

	if !p.sender.SendRaw(ctx, envelope.User.Email, subject, body) {
		log.Error().Str("to", envelope.User.Email).Msg("delivery failed, dead-lettering")
		p.recordFailed(ctx, log, envelope.RequestID, detailSMTPFailure)
		p.reject(msg)
		settled = true
		return
	}

	// Status is written before the ack; a failed write is logged and the
	// ack proceeds, trading a possibly missing row for not redelivering
	// mail that already went out.
	if err := p.recorder.Record(ctx, envelope.RequestID, status.Delivered, p.provider, nil); err != nil {
		log.Error().Err(err).Msg("failed to record delivered status")
	}
	if err := msg.Ack(false); err != nil {
		log.Error().Err(err).Msg("failed to ack message")
	}
	settled = true
	metrics.MessagesDeliveredTotal.Inc()
	log.Info().Str("to", envelope.User.Email).Msg("message delivered")
}

func (p *Processor) recordFailed(ctx context.Context, log zerolog.Logger, requestID, detail string) {
	metrics.MessagesFailedTotal.Inc()
	d := detail
	if err := p.recorder.Record(ctx, requestID, status.Failed, p.provider, &d); err != nil {
		log.Error().Err(err).Str("detail", detail).Msg("failed to record failed status")
	}
}

func (p *Processor) reject(msg amqp.Delivery) {
	metrics.MessagesDeadLetteredTotal.Inc()
	if err := msg.Nack(false, false); err != nil {
		p.log.Error().Err(err).Msg("failed to reject message")
	}
}
