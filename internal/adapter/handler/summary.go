package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/tuanphamdev/meeting-scribe/errors"
	"github.com/tuanphamdev/meeting-scribe/internal/adapter/dto"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/http/middleware"
	"github.com/tuanphamdev/meeting-scribe/internal/usecase/store"
)

// Summary serves the summary query API. Every route runs behind the auth
// middleware; the requester identity drives per-summary access checks.
type Summary struct {
	store  store.Service
	logger *zap.Logger
}

// NewSummary creates a new summary handler
func NewSummary(summaryStore store.Service, logger *zap.Logger) *Summary {
	return &Summary{
		store:  summaryStore,
		logger: logger,
	}
}

// Get handles GET /summaries/:id
func (h *Summary) Get(c echo.Context) error {
	summaryID := c.Param("id")
	requesterID := middleware.RequesterID(c)

	summary, err := h.store.GetSummary(c.Request().Context(), summaryID, requesterID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, dto.NewSummaryResponse(summary))
}

// List handles GET /meetings/:id/summaries with optional from/to filters
func (h *Summary) List(c echo.Context) error {
	meetingID := c.Param("id")
	requesterID := middleware.RequesterID(c)

	from, err := parseTimeParam(c.QueryParam("from"))
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("from must be RFC3339"))
	}
	to, err := parseTimeParam(c.QueryParam("to"))
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("to must be RFC3339"))
	}

	summaries, err := h.store.ListForMeeting(c.Request().Context(), meetingID, requesterID, from, to)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, dto.NewListSummariesResponse(summaries))
}

// Search handles GET /meetings/:id/summaries/search?q=
func (h *Summary) Search(c echo.Context) error {
	meetingID := c.Param("id")
	requesterID := middleware.RequesterID(c)

	query := c.QueryParam("q")
	if query == "" {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("q is required"))
	}

	summaries, err := h.store.Search(c.Request().Context(), meetingID, requesterID, query)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, dto.NewListSummariesResponse(summaries))
}

// DeleteAll handles DELETE /meetings/:id/summaries
func (h *Summary) DeleteAll(c echo.Context) error {
	meetingID := c.Param("id")

	deleted, err := h.store.DeleteAllForMeeting(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, dto.DeleteSummariesResponse{
		MeetingID: meetingID,
		Deleted:   deleted,
	})
}

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
