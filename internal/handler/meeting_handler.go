package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edunest/tutorhub-api/internal/models"
	"github.com/edunest/tutorhub-api/internal/service"
	appErrors "github.com/edunest/tutorhub-api/pkg/errors"
	"github.com/edunest/tutorhub-api/pkg/response"
)

// MeetingHandler exposes meeting scheduling endpoints.
type MeetingHandler struct {
	meetings *service.MeetingService
}

// NewMeetingHandler constructs MeetingHandler.
func NewMeetingHandler(meetings *service.MeetingService) *MeetingHandler {
	return &MeetingHandler{meetings: meetings}
}

// List godoc
// @Summary List meetings
// @Tags Meetings
// @Produce json
// @Param sectionId query string false "Filter by section"
// @Param tutorId query string false "Filter by tutor"
// @Param status query string false "Filter by status"
// @Param from query string false "Scheduled from (RFC3339)"
// @Param to query string false "Scheduled before (RFC3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /meetings [get]
func (h *MeetingHandler) List(c *gin.Context) {
	var filter models.MeetingFilter
	filter.SectionID = c.Query("sectionId")
	filter.TutorID = c.Query("tutorId")
	filter.Status = models.MeetingStatus(c.Query("status"))
	if raw := c.Query("from"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = &ts
		}
	}
	if raw := c.Query("to"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = &ts
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	meetings, pagination, err := h.meetings.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meetings, pagination)
}

// Feasibility godoc
// @Summary Check meeting feasibility
// @Description Dry-run availability and conflict checks for a candidate slot; nothing is persisted.
// @Tags Meetings
// @Accept json
// @Produce json
// @Param payload body service.FeasibilityRequest true "Candidate slot"
// @Success 200 {object} response.Envelope
// @Router /meetings/feasibility [post]
func (h *MeetingHandler) Feasibility(c *gin.Context) {
	var req service.FeasibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.meetings.Feasibility(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Create godoc
// @Summary Schedule a meeting
// @Tags Meetings
// @Accept json
// @Produce json
// @Param payload body service.CreateMeetingRequest true "Meeting payload"
// @Success 201 {object} response.Envelope
// @Router /meetings [post]
func (h *MeetingHandler) Create(c *gin.Context) {
	var req service.CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	meeting, err := h.meetings.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, meeting)
}

// Update godoc
// @Summary Update a meeting
// @Description Reschedules or annotates a meeting. Past meetings stay editable for recording URLs.
// @Tags Meetings
// @Accept json
// @Produce json
// @Param id path string true "Meeting ID"
// @Param payload body service.UpdateMeetingRequest true "Meeting payload"
// @Success 200 {object} response.Envelope
// @Router /meetings/{id} [put]
func (h *MeetingHandler) Update(c *gin.Context) {
	var req service.UpdateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	meeting, err := h.meetings.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meeting, nil)
}

// Cancel godoc
// @Summary Cancel a meeting
// @Tags Meetings
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} response.Envelope
// @Router /meetings/{id}/cancel [post]
func (h *MeetingHandler) Cancel(c *gin.Context) {
	meeting, err := h.meetings.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meeting, nil)
}

// TutorSchedule godoc
// @Summary List a tutor's meetings
// @Tags Meetings
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/meetings [get]
func (h *MeetingHandler) TutorSchedule(c *gin.Context) {
	entries, err := h.meetings.ListByTutor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
