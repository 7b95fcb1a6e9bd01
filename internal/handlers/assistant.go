package handlers

import (
	"errors"
	"io"
	"net/http"

	"ahara/internal/ai"
	applog "ahara/internal/log"
	"ahara/models"
)

const assistantFoodLimit = 50

const (
	msgRateLimited      = "Rate limit exceeded. Please try again later."
	msgCreditsExhausted = "AI credits exhausted. Please add credits to continue."
	msgAIServiceError   = "AI service error"
)

// Assistant proxies meal planning and dosha recommendation prompts to the configured
// chat completion service. The upstream event stream is relayed as is unless the caller
// asks for ?format=text.
func Assistant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	var req ai.AssistantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		applog.Debug(ctx, "assistant request rejected", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if assistant == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "AI service is not configured")
		return
	}

	if len(req.AvailableFoods) == 0 && database != nil {
		var foods []models.Food
		if err := database.WithContext(ctx).Scopes(activeFoods).Order("name asc").Limit(assistantFoodLimit).Find(&foods).Error; err != nil {
			applog.Error(ctx, "failed to load foods for assistant", "error", err)
		} else {
			req.AvailableFoods = foods
		}
	}

	messages, err := req.Messages()
	if err != nil {
		applog.Error(ctx, "failed to build assistant prompt", "error", err)
		writeJSONError(w, http.StatusInternalServerError, msgAIServiceError)
		return
	}

	applog.Debug(ctx, "calling assistant", "type", req.Type, "foods", len(req.AvailableFoods), "model", assistant.Model())
	body, err := assistant.StreamChatCompletion(ctx, messages)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	defer body.Close()

	if r.URL.Query().Get("format") == "text" {
		content, err := ai.ReadStream(ctx, body, nil)
		if err != nil {
			if errors.Is(err, ai.ErrEmptyStream) {
				writeJSONError(w, http.StatusBadGateway, "AI service returned an empty response")
				return
			}
			applog.Error(ctx, "failed to read assistant stream", "error", err)
			writeJSONError(w, http.StatusInternalServerError, msgAIServiceError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"content": content})
		return
	}

	relayEventStream(w, r, body)
}

func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		applog.Warn(r.Context(), "assistant rate limited")
		writeJSONError(w, http.StatusTooManyRequests, msgRateLimited)
	case errors.Is(err, ai.ErrCreditsExhausted):
		applog.Warn(r.Context(), "assistant credits exhausted")
		writeJSONError(w, http.StatusPaymentRequired, msgCreditsExhausted)
	default:
		var statusErr *ai.StatusError
		if errors.As(err, &statusErr) {
			applog.Error(r.Context(), "assistant upstream error", "status", statusErr.StatusCode, "body", statusErr.Body)
		} else {
			applog.Error(r.Context(), "assistant upstream call failed", "error", err)
		}
		writeJSONError(w, http.StatusInternalServerError, msgAIServiceError)
	}
}

// relayEventStream copies the upstream body to the client, flushing after every read.
func relayEventStream(w http.ResponseWriter, r *http.Request, body io.Reader) {
	ctx := r.Context()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	buf := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			applog.Debug(ctx, "assistant client went away")
			return
		}
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				applog.Debug(ctx, "failed to relay assistant stream", "error", werr)
				return
			}
			if ferr := rc.Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
				applog.Debug(ctx, "failed to flush assistant stream", "error", ferr)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				applog.Error(ctx, "assistant stream interrupted", "error", err)
			}
			return
		}
	}
}
