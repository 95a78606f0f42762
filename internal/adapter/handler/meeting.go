package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/tuanphamdev/meeting-scribe/errors"
	"github.com/tuanphamdev/meeting-scribe/internal/adapter/dto"
	"github.com/tuanphamdev/meeting-scribe/internal/usecase/meeting"
)

// Meeting handles lifecycle events and per-meeting commands
type Meeting struct {
	service meeting.Service
	logger  *zap.Logger
}

// NewMeeting creates a new meeting handler
func NewMeeting(service meeting.Service, logger *zap.Logger) *Meeting {
	return &Meeting{
		service: service,
		logger:  logger,
	}
}

// Started handles POST /meetings/started
func (h *Meeting) Started(c echo.Context) error {
	var req dto.MeetingStartedRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidation(err))
	}

	state, err := h.service.StartMeeting(c.Request().Context(), req.MeetingID, req.TenantID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, dto.NewMeetingStateResponse(state))
}

// Ended handles POST /meetings/:id/ended
func (h *Meeting) Ended(c echo.Context) error {
	meetingID := c.Param("id")

	if err := h.service.EndMeeting(c.Request().Context(), meetingID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]string{"meeting_id": meetingID, "status": "ended"})
}

// ParticipantJoined handles POST /meetings/:id/participants
func (h *Meeting) ParticipantJoined(c echo.Context) error {
	meetingID := c.Param("id")

	var req dto.ParticipantJoinedRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidation(err))
	}

	joinTime := time.Now()
	if req.JoinTime != nil {
		joinTime = *req.JoinTime
	}

	if err := h.service.ParticipantJoined(meetingID, req.ParticipantID, joinTime); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]string{
		"meeting_id":     meetingID,
		"participant_id": req.ParticipantID,
	})
}

// Summarize handles POST /meetings/:id/summarize, the manual trigger
func (h *Meeting) Summarize(c echo.Context) error {
	meetingID := c.Param("id")

	if err := h.service.ForceSummarize(c.Request().Context(), meetingID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]string{"meeting_id": meetingID, "status": "summarized"})
}

// UpdateConfig handles PUT /meetings/:id/config
func (h *Meeting) UpdateConfig(c echo.Context) error {
	meetingID := c.Param("id")

	var req dto.UpdateConfigRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidation(err))
	}

	state, err := h.service.UpdateConfig(meetingID, req.ToMeetingConfig())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, dto.NewMeetingStateResponse(state))
}

// Get handles GET /meetings/:id
func (h *Meeting) Get(c echo.Context) error {
	meetingID := c.Param("id")

	state, ok := h.service.GetMeeting(meetingID)
	if !ok {
		return HandleError(h.logger, c, apperrors.ErrMeetingNotFound(meetingID))
	}
	return HandleSuccess(h.logger, c, dto.NewMeetingStateResponse(state))
}
