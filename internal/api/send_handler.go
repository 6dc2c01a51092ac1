package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sungwon/email-dispatch/internal/idempotency"
	"github.com/sungwon/email-dispatch/internal/metrics"
)

// TemplateSender delivers mail rendered from the built-in template set.
type TemplateSender interface {
	Send(ctx context.Context, to, subject, templateID string, variables map[string]any) bool
}

// SendRequest is the body of POST /v1/send and each item of /v1/send/batch.
type SendRequest struct {
	To             string         `json:"to"`
	Subject        string         `json:"subject"`
	TemplateID     string         `json:"template_id"`
	Variables      map[string]any `json:"variables"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
}

// SendResponse is the per-item result object returned by the send endpoints.
type SendResponse struct {
	Success   bool      `json:"success"`
	MessageID string    `json:"message_id,omitempty"`
	Message   string    `json:"message"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BatchResponse summarizes a batch send.
type BatchResponse struct {
	Processed int            `json:"processed"`
	Failed    int            `json:"failed"`
	Results   []SendResponse `json:"results"`
}

// sendOne renders and delivers a single request, consulting the idempotency
// cache first. A nil cache always misses.
func sendOne(ctx context.Context, sender TemplateSender, cache *idempotency.Cache, req SendRequest) SendResponse {
	now := time.Now().UTC()

	if req.To == "" {
		return SendResponse{
			Success:   false,
			Message:   "send rejected",
			Error:     "missing recipient",
			Timestamp: now,
		}
	}

	if cached := cache.Lookup(ctx, req.IdempotencyKey); cached != "" {
		return SendResponse{
			Success:   true,
			MessageID: cached,
			Message:   "email already sent",
			Timestamp: now,
		}
	}

	if !sender.Send(ctx, req.To, req.Subject, req.TemplateID, req.Variables) {
		return SendResponse{
			Success:   false,
			Message:   "send failed",
			Error:     "delivery transport rejected the message",
			Timestamp: now,
		}
	}

	messageID := uuid.New().String()
	cache.Store(ctx, req.IdempotencyKey, messageID)

	return SendResponse{
		Success:   true,
		MessageID: messageID,
		Message:   "email sent",
		Timestamp: now,
	}
}

// SendHandler handles POST /v1/send: a synchronous single send that bypasses
// the queue.
func SendHandler(sender TemplateSender, cache *idempotency.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp := sendOne(r.Context(), sender, cache, req)
		if resp.Success {
			metrics.SendRequestsTotal.WithLabelValues("send", "success").Inc()
			respondJSON(w, http.StatusOK, resp)
			return
		}
		metrics.SendRequestsTotal.WithLabelValues("send", "failure").Inc()
		respondJSON(w, http.StatusBadGateway, resp)
	}
}

// BatchSendHandler handles POST /v1/send/batch: items are processed in order
// and each gets its own result; a failed item does not stop the batch.
func BatchSendHandler(sender TemplateSender, cache *idempotency.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reqs []SendRequest
		if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(reqs) == 0 {
			respondError(w, http.StatusBadRequest, "empty batch")
			return
		}

		batch := BatchResponse{Results: make([]SendResponse, 0, len(reqs))}
		for _, req := range reqs {
			resp := sendOne(r.Context(), sender, cache, req)
			if resp.Success {
				batch.Processed++
				metrics.SendRequestsTotal.WithLabelValues("batch", "success").Inc()
			} else {
				batch.Failed++
				metrics.SendRequestsTotal.WithLabelValues("batch", "failure").Inc()
			}
			batch.Results = append(batch.Results, resp)
		}

		respondJSON(w, http.StatusOK, batch)
	}
}
