package controller

import (
	"devsync/services"
	"devsync/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ReviewController struct {
	Reviews *services.ReviewService
	Logger  *logrus.Entry
}

func NewReviewController(reviews *services.ReviewService, logger *logrus.Entry) *ReviewController {
	return &ReviewController{Reviews: reviews, Logger: logger}
}

// ReviewDecision carries the optional approval comment or the mandatory
// change request.
type ReviewDecision struct {
	Comment string `json:"comment"`
}

type CommentRequest struct {
	Content string `json:"content" validate:"required"`
}

func (rc *ReviewController) ListReviews(c *fiber.Ctx) error {
	reviews, err := rc.Reviews.List(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(reviews))
}

func (rc *ReviewController) CreateReview(c *fiber.Ctx) error {
	var req services.CreateReviewInput
	if err := bind(c, &req); err != nil {
		return respondError(c, rc.Logger, err)
	}
	review, err := rc.Reviews.Create(c.UserContext(), currentUser(c), req)
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(review))
}

func (rc *ReviewController) GetReview(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	view, err := rc.Reviews.Get(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(view))
}

func (rc *ReviewController) UpdateReview(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	var req services.UpdateReviewInput
	if err := bind(c, &req); err != nil {
		return respondError(c, rc.Logger, err)
	}
	review, err := rc.Reviews.Update(c.UserContext(), currentUser(c), id, req)
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(review))
}

func (rc *ReviewController) AssignReviewer(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	var req AssignRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, rc.Logger, err)
	}
	review, err := rc.Reviews.AssignReviewer(c.UserContext(), currentUser(c), id, req.UserID)
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(review))
}

func (rc *ReviewController) ApproveReview(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	var req ReviewDecision
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return respondError(c, rc.Logger, err)
		}
	}
	review, err := rc.Reviews.Approve(c.UserContext(), currentUser(c), id, req.Comment)
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(review))
}

func (rc *ReviewController) RequestChanges(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	var req ReviewDecision
	if err := bind(c, &req); err != nil {
		return respondError(c, rc.Logger, err)
	}
	review, err := rc.Reviews.RequestChanges(c.UserContext(), currentUser(c), id, req.Comment)
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	return c.JSON(utils.SuccessResponse(review))
}

func (rc *ReviewController) AddComment(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	var req CommentRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, rc.Logger, err)
	}
	comment, err := rc.Reviews.Comment(c.UserContext(), currentUser(c), id, req.Content)
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(comment))
}

func (rc *ReviewController) RegenerateSuggestions(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, rc.Logger, err)
	}
	if err := rc.Reviews.RegenerateSuggestions(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, rc.Logger, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"success": true, "status": services.AIStatusProcessing})
}
