package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onekingdom/assessment-system/internal/api/metrics"
	"github.com/onekingdom/assessment-system/internal/core/domain"
	"github.com/onekingdom/assessment-system/internal/core/ports"
)

// AssessmentHandler handles HTTP requests for assessment operations.
type AssessmentHandler struct {
	service ports.AssessmentService
}

func NewAssessmentHandler(service ports.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: service}
}

// Create handles POST /v1/assessments.
func (h *AssessmentHandler) Create(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createAssessmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	segments := make([]domain.Segment, 0, len(req.Segments))
	for _, s := range req.Segments {
		segments = append(segments, domain.Segment{ID: s.ID, Name: s.Name, Order: s.Order, Enabled: s.Enabled})
	}

	a, err := h.service.Create(c.Request().Context(), actor, ports.CreateAssessmentInput{
		Name:     req.Name,
		OwnerID:  req.OwnerID,
		Segments: segments,
	})
	if err != nil {
		return denialOr(c, err, "assessment_create")
	}
	return c.JSON(http.StatusCreated, toAssessmentResponse(a, domain.AccessLevel("")))
}

// Get handles GET /v1/assessments/:id.
func (h *AssessmentHandler) Get(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	a, level, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return denialOr(c, err, "assessment_get")
	}
	return c.JSON(http.StatusOK, toAssessmentResponse(a, level))
}

// List handles GET /v1/assessments.
func (h *AssessmentHandler) List(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	items, err := h.service.List(c.Request().Context(), actor)
	if err != nil {
		return denialOr(c, err, "assessment_list")
	}

	out := make([]assessmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toAssessmentResponse(a, domain.AccessLevel("")))
	}
	return c.JSON(http.StatusOK, out)
}

// SetAnswers handles PUT /v1/assessments/:id/answers.
func (h *AssessmentHandler) SetAnswers(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req setAnswersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	answers := make([]ports.AnswerInput, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, ports.AnswerInput{
			SegmentID:  a.SegmentID,
			QuestionID: a.QuestionID,
			Option:     a.Option,
			Note:       a.Note,
		})
	}

	a, err := h.service.SetAnswers(c.Request().Context(), actor, c.Param("id"), answers)
	if err != nil {
		return denialOr(c, err, "assessment_answers")
	}
	return c.JSON(http.StatusOK, toAssessmentResponse(a, domain.AccessLevel("")))
}

// AssignCoach handles PUT /v1/assessments/:id/coach.
func (h *AssessmentHandler) AssignCoach(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req assignCoachRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	a, err := h.service.AssignCoach(c.Request().Context(), actor, c.Param("id"), req.CoachID)
	if err != nil {
		return denialOr(c, err, "assessment_assign_coach")
	}
	return c.JSON(http.StatusOK, toAssessmentResponse(a, domain.AccessLevel("")))
}

// ReassignOwner handles PUT /v1/assessments/:id/owner.
func (h *AssessmentHandler) ReassignOwner(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req reassignOwnerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	a, err := h.service.ReassignOwner(c.Request().Context(), actor, c.Param("id"), req.OwnerID)
	if err != nil {
		return denialOr(c, err, "assessment_reassign_owner")
	}
	return c.JSON(http.StatusOK, toAssessmentResponse(a, domain.AccessLevel("")))
}

// AddCollaborator handles POST /v1/assessments/:id/collaborators.
func (h *AssessmentHandler) AddCollaborator(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req collaboratorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	a, err := h.service.AddCollaborator(c.Request().Context(), actor, c.Param("id"), req.UserID)
	if err != nil {
		return denialOr(c, err, "assessment_collaborators")
	}
	return c.JSON(http.StatusOK, toAssessmentResponse(a, domain.AccessLevel("")))
}

// RemoveCollaborator handles DELETE /v1/assessments/:id/collaborators/:user_id.
func (h *AssessmentHandler) RemoveCollaborator(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	a, err := h.service.RemoveCollaborator(c.Request().Context(), actor, c.Param("id"), c.Param("user_id"))
	if err != nil {
		return denialOr(c, err, "assessment_collaborators")
	}
	return c.JSON(http.StatusOK, toAssessmentResponse(a, domain.AccessLevel("")))
}

// ToggleSegment handles PUT /v1/assessments/:id/segments/:segment_id.
func (h *AssessmentHandler) ToggleSegment(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req toggleSegmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	a, err := h.service.SetSegmentEnabled(c.Request().Context(), actor, c.Param("id"), c.Param("segment_id"), req.Enabled)
	if err != nil {
		return denialOr(c, err, "assessment_toggle_segment")
	}
	return c.JSON(http.StatusOK, toAssessmentResponse(a, domain.AccessLevel("")))
}

// Navigate handles GET /v1/assessments/:id/segments/navigate — resolves the
// enabled segment adjacent to the `from` query parameter, skipping disabled
// segments. 404 signals the ordered boundary.
func (h *AssessmentHandler) Navigate(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	seg, err := h.service.Navigate(c.Request().Context(), actor, ports.NavigateInput{
		AssessmentID: c.Param("id"),
		From:         c.QueryParam("from"),
		Direction:    c.QueryParam("direction"),
	})
	if err != nil {
		return denialOr(c, err, "assessment_navigate")
	}
	return c.JSON(http.StatusOK, segmentResponse{ID: seg.ID, Name: seg.Name, Order: seg.Order, Enabled: seg.Enabled})
}

// Notify handles POST /v1/assessments/:id/notify — the rate-limited coach
// notification gate. A throttled attempt reveals nothing about the coach.
func (h *AssessmentHandler) Notify(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	err = h.service.NotifyCoach(c.Request().Context(), actor, c.Param("id"))
	switch {
	case err == nil:
		metrics.NotificationsTotal.WithLabelValues("sent").Inc()
		return c.JSON(http.StatusAccepted, map[string]string{"status": "sent"})
	case errors.Is(err, domain.ErrNotifyThrottled):
		metrics.NotificationsTotal.WithLabelValues("throttled").Inc()
		return c.JSON(http.StatusTooManyRequests, map[string]string{"status": "throttled"})
	case errors.Is(err, domain.ErrNotifyNotConfigured):
		metrics.NotificationsTotal.WithLabelValues("unconfigured").Inc()
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "notifications are not configured"})
	case errors.Is(err, domain.ErrNoCoachAssigned):
		metrics.NotificationsTotal.WithLabelValues("denied").Inc()
		return c.JSON(http.StatusConflict, map[string]string{"error": "assessment has no assigned coach"})
	default:
		metrics.NotificationsTotal.WithLabelValues("denied").Inc()
		return denialOr(c, err, "assessment_notify")
	}
}

func toAssessmentResponse(a *domain.Assessment, level domain.AccessLevel) assessmentResponse {
	segments := make([]segmentResponse, 0, len(a.Segments))
	for _, s := range a.Segments {
		segments = append(segments, segmentResponse{ID: s.ID, Name: s.Name, Order: s.Order, Enabled: s.Enabled})
	}
	answers := make([]answerResponse, 0, len(a.Answers))
	for _, ans := range a.Answers {
		answers = append(answers, answerResponse{
			SegmentID:  ans.SegmentID,
			QuestionID: ans.QuestionID,
			Option:     ans.Option,
			Note:       ans.Note,
			AnsweredAt: ans.AnsweredAt,
		})
	}

	return assessmentResponse{
		ID:              a.ID,
		Name:            a.Name,
		OwnerID:         a.OwnerID,
		CoachID:         a.CoachID,
		CollaboratorIDs: a.CollaboratorIDs,
		Segments:        segments,
		Answers:         answers,
		AccessLevel:     string(level),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
