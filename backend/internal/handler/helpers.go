package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	internal_errors "github.com/ledgerdesk/ledgerdesk/backend/internal/errors"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
	shared_errors "github.com/ledgerdesk/ledgerdesk/shared/errors"
)

var unauthorized = &shared_errors.ErrorWithStatusCode{Message: "Please sign-in", StatusCode: http.StatusUnauthorized, Code: "unauthorized"}

func parseDocumentId(r *http.Request) (domain.DocumentId, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, internal_errors.Validation("invalid document id")
	}
	return id, nil
}

func parseMessageId(r *http.Request) (domain.MessageId, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, internal_errors.Validation("invalid message id")
	}
	return id, nil
}

// parseRole keeps unknown values as-is so the service reports them.
func parseRole(raw string) domain.Role {
	if role, ok := domain.ParseRole(raw); ok {
		return role
	}
	return domain.Role(raw)
}
