package handlers

import (
	"net/http"

	"inteqt-web/backend/models"
	"inteqt-web/backend/services"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) listQuery(c *fiber.Ctx, status models.Status) services.ListQuery {
	return services.ListQuery{
		Status: status,
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", h.Config.Workflow.DefaultPageSize),
	}
}

func writeResult(c *fiber.Ctx, p *models.CountryProfile, isUpdate bool) error {
	status := http.StatusCreated
	message := "Submission created"
	if isUpdate {
		status = http.StatusOK
		message = "Submission updated"
	}
	return c.Status(status).JSON(fiber.Map{"message": message, "country": p, "isUpdate": isUpdate})
}

// Submit creates or updates a submission and queues it for review.
// POST /api/countries/submit
func (h *Handler) Submit(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return badInput(c)
	}

	p, isUpdate, err := h.Workflow.CreateOrUpdate(c.UserContext(), currentAccount(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return writeResult(c, p, isUpdate)
}

// SaveDraft stores a submission without queueing it.
// POST /api/countries/draft
func (h *Handler) SaveDraft(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return badInput(c)
	}

	p, isUpdate, err := h.Workflow.SaveDraft(c.UserContext(), currentAccount(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return writeResult(c, p, isUpdate)
}

// UpdateSubmission edits a submission by id and re-queues it.
// PUT /api/countries/user/submission/:id
func (h *Handler) UpdateSubmission(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return badInput(c)
	}

	p, err := h.Workflow.UpdateOwn(c.UserContext(), currentAccount(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return writeResult(c, p, true)
}

// GetMySubmissions pages through the caller's submissions.
// GET /api/countries/my-submissions?status=&page=1&limit=10
func (h *Handler) GetMySubmissions(c *fiber.Ctx) error {
	page, err := h.Workflow.ListMine(c.UserContext(), currentAccount(c), h.listQuery(c, models.Status(c.Query("status"))))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetMySubmissionsByStatus is GetMySubmissions with the status in the path.
// GET /api/countries/my-submissions/status/:status
func (h *Handler) GetMySubmissionsByStatus(c *fiber.Ctx) error {
	status := models.Status(c.Params("status"))
	if !status.Valid() {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "Invalid status"})
	}
	page, err := h.Workflow.ListMine(c.UserContext(), currentAccount(c), h.listQuery(c, status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetMySummary groups the caller's submissions by status.
// GET /api/countries/my-submissions/summary
func (h *Handler) GetMySummary(c *fiber.Ctx) error {
	sum, err := h.Workflow.SummaryMine(c.UserContext(), currentAccount(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sum)
}

// GetSubmissionBySlug returns a submission by slug.
// GET /api/countries/submission/:slug
func (h *Handler) GetSubmissionBySlug(c *fiber.Ctx) error {
	p, err := h.Workflow.Get(c.UserContext(), currentAccount(c), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// GetMySubmission returns a submission by id to its owner or an admin.
// GET /api/countries/my-submission/:id
func (h *Handler) GetMySubmission(c *fiber.Ctx) error {
	p, err := h.Workflow.GetByID(c.UserContext(), currentAccount(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// UpdateMyReferences replaces the references of the caller's draft or pending submission.
// PUT /api/countries/user/submission/:id/references
func (h *Handler) UpdateMyReferences(c *fiber.Ctx) error {
	var req struct {
		References services.ReferenceList `json:"references"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badInput(c)
	}

	res, err := h.Workflow.UpdateOwnReferences(c.UserContext(), currentAccount(c), c.Params("id"), req.References)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// GetAllSubmissions pages through every submission.
// GET /api/countries/all?status=&page=1&limit=10
func (h *Handler) GetAllSubmissions(c *fiber.Ctx) error {
	page, err := h.Workflow.ListAll(c.UserContext(), currentAccount(c), h.listQuery(c, models.Status(c.Query("status"))))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// ReviewSubmission approves or rejects a submission.
// PUT /api/countries/review/:id
func (h *Handler) ReviewSubmission(c *fiber.Ctx) error {
	var req struct {
		Status        models.Status `json:"status"`
		RejectionNote string        `json:"rejectionNote"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badInput(c)
	}

	p, err := h.Workflow.Review(c.UserContext(), currentAccount(c), c.Params("id"), req.Status, req.RejectionNote)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Submission " + string(p.Status), "country": p})
}

// ManageReferences adds, removes or replaces references on any submission.
// PUT /api/countries/admin/submission/:id/references
func (h *Handler) ManageReferences(c *fiber.Ctx) error {
	var req struct {
		Action     services.ReferenceAction `json:"action"`
		References services.ReferenceList   `json:"references"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badInput(c)
	}

	res, err := h.Workflow.ManageReferences(c.UserContext(), currentAccount(c), c.Params("id"), req.Action, req.References)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// GetAdminStats counts every submission by status.
// GET /api/countries/admin-stats
func (h *Handler) GetAdminStats(c *fiber.Ctx) error {
	stats, err := h.Workflow.AdminStats(c.UserContext(), currentAccount(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// GetMyStats counts the caller's submissions by status.
// GET /api/countries/my-stats
func (h *Handler) GetMyStats(c *fiber.Ctx) error {
	stats, err := h.Workflow.MyStats(c.UserContext(), currentAccount(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
