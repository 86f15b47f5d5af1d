package httpserver

import (
	"errors"
	"net/http"
	"strings"

	ledgererrors "agora/contexts/civic-engagement/engagement-ledger/domain/errors"
	ledgerhttp "agora/contexts/civic-engagement/engagement-ledger/transport/http"
)

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{Code: code, Message: message})
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrEntityNotFound):
		writeLedgerError(w, http.StatusNotFound, "entity_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrRecordNotFound):
		writeLedgerError(w, http.StatusNotFound, "engagement_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrCommentNotFound):
		writeLedgerError(w, http.StatusNotFound, "comment_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrDuplicateAction):
		writeLedgerError(w, http.StatusConflict, "duplicate_action", err.Error())
	case errors.Is(err, ledgererrors.ErrConflict):
		writeLedgerError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ledgererrors.ErrActionNotAllowed):
		writeLedgerError(w, http.StatusBadRequest, "action_not_allowed", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidTransition):
		writeLedgerError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidInput):
		writeLedgerError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if actorID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return actorID, true
}

func (s *Server) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.CreateEntityRequest
	if !s.decodeJSON(w, r, &req, writeLedgerError) {
		return
	}
	resp, err := s.ledger.Handler.CreateEntityHandler(r.Context(), actorID, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListEntitiesHandler(r.Context(), r.URL.Query().Get("kind"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.GetEntityHandler(r.Context(), r.PathValue("entity_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpvote(w http.ResponseWriter, r *http.Request) {
	s.recordAction(w, r, "upvote")
}

func (s *Server) handleDownvote(w http.ResponseWriter, r *http.Request) {
	s.recordAction(w, r, "downvote")
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	s.recordAction(w, r, "sign")
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	s.recordAction(w, r, "like")
}

func (s *Server) handleRecordEngagement(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.RecordActionRequest
	if !s.decodeJSON(w, r, &req, writeLedgerError) {
		return
	}
	resp, err := s.ledger.Handler.RecordActionHandler(r.Context(), r.PathValue("entity_id"), actorID, req.Action)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) recordAction(w http.ResponseWriter, r *http.Request, action string) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.RecordActionHandler(r.Context(), r.PathValue("entity_id"), actorID, action)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRetractEngagement(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.RetractActionHandler(
		r.Context(),
		r.PathValue("entity_id"),
		actorID,
		r.PathValue("group"),
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActorEngagement(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.ActorEngagementHandler(r.Context(), r.PathValue("entity_id"), actorID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.CountsHandler(r.Context(), r.PathValue("entity_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.AddCommentRequest
	if !s.decodeJSON(w, r, &req, writeLedgerError) {
		return
	}
	resp, err := s.ledger.Handler.AddCommentHandler(r.Context(), r.PathValue("entity_id"), actorID, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListCommentsHandler(r.Context(), r.PathValue("entity_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
