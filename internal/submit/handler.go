package submit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/yorutsuke/yorutsuke-cloud/internal/common"
	"github.com/yorutsuke/yorutsuke-cloud/internal/entity"
)

// Handler adapts the submission service to Lambda invocation. It accepts
// either a bare SubmitRequest object (direct invoke) or a gateway envelope
// whose body field is a JSON-encoded string (HTTP invoke), so the same
// function serves both.
type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (events.APIGatewayProxyResponse, error) {
	reqID := uuid.New().String()
	ctx = common.WithRequestID(ctx, reqID)

	req, err := decodeRequest(raw)
	if err != nil {
		h.log.Warn("submit.request.decode_error", "req_id", reqID, "error", err)
		return errorResponse(http.StatusBadRequest, "malformed request body"), nil
	}

	resp, err := h.svc.Submit(common.WithIntentID(ctx, req.IntentID), req)
	if err != nil {
		return h.errorFor(reqID, req, err), nil
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, "encode response"), nil
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusAccepted,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}

// decodeRequest unwraps the optional gateway envelope before decoding.
func decodeRequest(raw json.RawMessage) (*entity.SubmitRequest, error) {
	var envelope struct {
		Body string `json:"body"`
	}
	payload := []byte(raw)
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Body != "" {
		payload = []byte(envelope.Body)
	}

	var req entity.SubmitRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// errorFor maps the error taxonomy onto transport statuses. Retryable
// classes get 5xx so gateway retries and client backoff both behave.
func (h *Handler) errorFor(reqID string, req *entity.SubmitRequest, err error) events.APIGatewayProxyResponse {
	switch {
	case errors.Is(err, common.ErrValidation):
		h.log.Warn("submit.request.invalid", "req_id", reqID, "intent_id", req.IntentID, "error", err)
		return errorResponse(http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrStoreUnavailable):
		h.log.Error("submit.request.store_unavailable", "req_id", reqID, "intent_id", req.IntentID, "error", err)
		return errorResponse(http.StatusServiceUnavailable, "job store unavailable, retry later")
	case errors.Is(err, common.ErrSubmission):
		h.log.Error("submit.request.submission_failed", "req_id", reqID, "intent_id", req.IntentID, "error", err)
		return errorResponse(http.StatusBadGateway, "batch submission failed, retry with the same intentId")
	default:
		h.log.Error("submit.request.internal_error", "req_id", reqID, "intent_id", req.IntentID, "error", err)
		return errorResponse(http.StatusInternalServerError, "internal error")
	}
}

func errorResponse(status int, message string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(map[string]string{"error": message})
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
