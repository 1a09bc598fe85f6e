package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/buildtrack/internal/access"
	"github.com/iliyamo/buildtrack/internal/model"
	"github.com/iliyamo/buildtrack/internal/policy"
	"github.com/iliyamo/buildtrack/internal/repository"
)

// ProjectHandler covers project creation and the guarded project reads
// that are not owned by a workflow, including milestones.
type ProjectHandler struct {
	Projects   *repository.ProjectRepo
	Milestones *repository.MilestoneRepo
	Guard      *access.Guard
}

// NewProjectHandler panics if any dependency is nil.
func NewProjectHandler(projects *repository.ProjectRepo, milestones *repository.MilestoneRepo, guard *access.Guard) *ProjectHandler {
	if projects == nil || milestones == nil || guard == nil {
		panic("nil dependency passed to NewProjectHandler")
	}
	return &ProjectHandler{Projects: projects, Milestones: milestones, Guard: guard}
}

// Create handles POST /v1/projects.  The caller becomes the owner and the
// project starts in planning.
func (h *ProjectHandler) Create(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, err)
	}
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" || len(body.Name) > 255 {
		return badRequest(c, "name is required (max 255 characters)")
	}
	p := model.Project{Name: body.Name, Description: strings.TrimSpace(body.Description), OwnerID: actor.ID}
	if err := h.Projects.Create(c.Request().Context(), &p); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Mine handles GET /v1/projects: projects the caller owns, engineers or is
// assigned to.
func (h *ProjectHandler) Mine(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.Projects.ListForUser(c.Request().Context(), actor.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}

// Get handles GET /v1/projects/:id.
func (h *ProjectHandler) Get(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, err)
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	p, err := h.Guard.AuthorizeProject(c.Request().Context(), actor, projectID, policy.AccessRead)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// ListMilestones handles GET /v1/projects/:id/milestones.
func (h *ProjectHandler) ListMilestones(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, err)
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	ctx := c.Request().Context()
	if _, err := h.Guard.AuthorizeProject(ctx, actor, projectID, policy.AccessRead); err != nil {
		return writeError(c, err)
	}
	list, err := h.Milestones.ListByProject(ctx, projectID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}

// CreateMilestone handles POST /v1/projects/:id/milestones with body
// {"title": "...", "target_date": "2024-06-30"}.  The caller needs manage
// access to the project and the milestones:manage action.
func (h *ProjectHandler) CreateMilestone(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, err)
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	var body struct {
		Title      string `json:"title"`
		TargetDate string `json:"target_date"`
		Status     string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx := c.Request().Context()
	if _, err := h.Guard.AuthorizeProject(ctx, actor, projectID, policy.AccessManage); err != nil {
		return writeError(c, err)
	}
	if !h.Guard.Policy().CanPerform(actor, policy.ActionManageMilestones) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "milestones:manage not permitted"})
	}

	body.Title = strings.TrimSpace(body.Title)
	if body.Title == "" {
		return badRequest(c, "title is required")
	}
	target, err := parseDate(body.TargetDate)
	if err != nil {
		return badRequest(c, "target_date must be YYYY-MM-DD or RFC3339")
	}
	status := model.MilestoneStatus(body.Status)
	switch status {
	case "":
		status = model.MilestonePending
	case model.MilestonePending, model.MilestoneInProgress, model.MilestoneCompleted:
	default:
		return badRequest(c, "status must be pending, in_progress or completed")
	}

	m := model.Milestone{ProjectID: projectID, Title: body.Title, TargetDate: target, Status: status, CreatedBy: actor.ID}
	if err := h.Milestones.Create(ctx, &m); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
