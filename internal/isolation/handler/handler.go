// Package handler exposes a subject's isolation engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"isolationd/internal/isolation/acknowledgement"
	"isolationd/internal/isolation/models"
	"isolationd/internal/isolation/service"
	id "isolationd/pkg/domain"
	dErrors "isolationd/pkg/domain-errors"
	"isolationd/pkg/gregorian"
	"isolationd/pkg/platform/httputil"
	"isolationd/pkg/requestcontext"
)

// Service is the subject-addressed isolation API. service.Manager
// implements it.
type Service interface {
	State(ctx context.Context, subjectID id.SubjectID) (service.Snapshot, bool, error)
	MyData(ctx context.Context, subjectID id.SubjectID) (service.MyData, error)
	Acknowledge(ctx context.Context, subjectID id.SubjectID, token acknowledgement.Token) (bool, error)
	HandleSymptoms(ctx context.Context, subjectID id.SubjectID, onsetDay *gregorian.Day) (models.IsolationState, service.ExistingPositiveTestState, error)
	SetShouldAskForSymptoms(ctx context.Context, subjectID id.SubjectID, shouldAsk bool) error
	SetSymptomsOnsetDay(ctx context.Context, subjectID id.SubjectID, onsetDay gregorian.Day) error
	ConfirmSymptoms(ctx context.Context, subjectID id.SubjectID) error
	PreviewResult(ctx context.Context, subjectID id.SubjectID, result models.TestResult) (service.ResultAcknowledgement, error)
	AcknowledgeResult(ctx context.Context, subjectID id.SubjectID, token acknowledgement.Token) (service.CompletionActions, error)
	HandleContactCase(ctx context.Context, subjectID id.SubjectID, risk models.RiskInfo) (models.IsolationState, error)
	OptOutOfContactIsolation(ctx context.Context, subjectID id.SubjectID) error
	Stream(ctx context.Context, subjectID id.SubjectID) (<-chan service.Snapshot, func(), error)
}

var _ Service = (*service.Manager)(nil)

// Handler wires isolation endpoints to the service.
type Handler struct {
	service  Service
	logger   *slog.Logger
	location *time.Location
}

// New constructs an isolation handler. Days are evaluated in loc.
func New(service Service, logger *slog.Logger, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{service: service, logger: logger, location: loc}
}

// Register mounts isolation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/subjects/{subjectID}/isolation", func(r chi.Router) {
		r.Use(h.subject)
		r.Get("/", h.HandleGetState)
		r.Get("/my-data", h.HandleGetMyData)
		r.Get("/events", h.HandleEvents)
		r.Post("/acknowledgements", h.HandleAcknowledge)
		r.Post("/symptoms", h.HandleSymptoms)
		r.Put("/symptoms/ask", h.HandleAskForSymptoms)
		r.Post("/symptoms/onset", h.HandleSymptomsOnset)
		r.Post("/symptoms/confirm", h.HandleConfirmSymptoms)
		r.Post("/test-results", h.HandlePreviewResult)
		r.Post("/test-results/acknowledgements", h.HandleAcknowledgeResult)
		r.Post("/contact-cases", h.HandleContactCase)
		r.Post("/contact-cases/opt-out", h.HandleOptOut)
	})
}

// subject validates the path subject ID and carries it on the context.
func (h *Handler) subject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		ctx := requestcontext.WithSubjectID(r.Context(), subjectID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) today(ctx context.Context) gregorian.Day {
	return gregorian.Today(requestcontext.Now(ctx), h.location).Day
}

// fail logs err with the request's identifiers and writes the response.
// Client errors log at warn, everything else at error.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"subject_id", requestcontext.SubjectID(ctx).String(),
		"error", err,
	}
	if httputil.StatusFor(dErrors.CodeOf(err)) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, attrs...)
	} else {
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

// HandleGetState handles GET .../isolation.
func (h *Handler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snapshot, dailyContactTesting, err := h.service.State(ctx, requestcontext.SubjectID(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to read isolation state", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSnapshot(snapshot, dailyContactTesting, h.today(ctx), h.location))
}

// HandleGetMyData handles GET .../isolation/my-data.
func (h *Handler) HandleGetMyData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, err := h.service.MyData(ctx, requestcontext.SubjectID(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to read my data", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}

// HandleEvents streams state changes as server-sent events until the client
// disconnects.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}
	updates, stop, err := h.service.Stream(ctx, requestcontext.SubjectID(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to stream isolation state", err)
		return
	}
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, open := <-updates:
			if !open {
				return
			}
			active := snapshot.LogicalState.ActiveIsolation()
			dailyContactTesting := active != nil && active.IsContactCaseOnly()
			payload, err := json.Marshal(FromSnapshot(snapshot, dailyContactTesting, gregorian.Today(time.Now(), h.location).Day, h.location))
			if err != nil {
				h.logger.ErrorContext(ctx, "failed to encode isolation event", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// HandleAcknowledge handles POST .../isolation/acknowledgements.
func (h *Handler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AcknowledgeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	acknowledged, err := h.service.Acknowledge(ctx, requestcontext.SubjectID(ctx), req.ParsedToken())
	if err != nil {
		h.fail(ctx, w, "failed to acknowledge isolation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AcknowledgeResponse{Acknowledged: acknowledged})
}

// HandleSymptoms handles POST .../isolation/symptoms.
func (h *Handler) HandleSymptoms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SymptomsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	state, existing, err := h.service.HandleSymptoms(ctx, requestcontext.SubjectID(ctx), req.OnsetDay)
	if err != nil {
		h.fail(ctx, w, "failed to record symptoms", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SymptomsResponse{IsolationState: state, ExistingTest: existing})
}

// HandleAskForSymptoms handles PUT .../isolation/symptoms/ask.
func (h *Handler) HandleAskForSymptoms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AskForSymptomsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.SetShouldAskForSymptoms(ctx, requestcontext.SubjectID(ctx), req.Ask); err != nil {
		h.fail(ctx, w, "failed to update symptom question", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSymptomsOnset handles POST .../isolation/symptoms/onset.
func (h *Handler) HandleSymptomsOnset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[OnsetDayRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.SetSymptomsOnsetDay(ctx, requestcontext.SubjectID(ctx), req.OnsetDay); err != nil {
		h.fail(ctx, w, "failed to record symptoms onset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleConfirmSymptoms handles POST .../isolation/symptoms/confirm.
func (h *Handler) HandleConfirmSymptoms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.ConfirmSymptoms(ctx, requestcontext.SubjectID(ctx)); err != nil {
		h.fail(ctx, w, "failed to confirm symptoms", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePreviewResult handles POST .../isolation/test-results. Nothing is
// stored until the returned token is acknowledged.
func (h *Handler) HandlePreviewResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[TestResultRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	preview, err := h.service.PreviewResult(ctx, requestcontext.SubjectID(ctx), req.TestResult)
	if err != nil {
		h.fail(ctx, w, "failed to evaluate test result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromResultAcknowledgement(preview))
}

// HandleAcknowledgeResult handles POST .../isolation/test-results/acknowledgements.
func (h *Handler) HandleAcknowledgeResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AcknowledgeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	actions, err := h.service.AcknowledgeResult(ctx, requestcontext.SubjectID(ctx), req.ParsedToken())
	if err != nil {
		h.fail(ctx, w, "failed to acknowledge test result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, actions)
}

// HandleContactCase handles POST .../isolation/contact-cases.
func (h *Handler) HandleContactCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ContactCaseRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	state, err := h.service.HandleContactCase(ctx, requestcontext.SubjectID(ctx), req.RiskInfo)
	if err != nil {
		h.fail(ctx, w, "failed to record contact case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ContactCaseResponse{IsolationState: state})
}

// HandleOptOut handles POST .../isolation/contact-cases/opt-out.
func (h *Handler) HandleOptOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.OptOutOfContactIsolation(ctx, requestcontext.SubjectID(ctx)); err != nil {
		h.fail(ctx, w, "failed to opt out of contact isolation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
