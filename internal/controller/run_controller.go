package controller

import (
	"ai-scholarmatch-be/internal/dto"
	"ai-scholarmatch-be/internal/pkg/apperror"
	"ai-scholarmatch-be/internal/pkg/serverutils"
	"ai-scholarmatch-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IRunController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Resume(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type runController struct {
	runService service.IRunService
}

func NewRunController(runService service.IRunService) IRunController {
	return &runController{
		runService: runService,
	}
}

func (c *runController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/run/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Start)
	h.Get(":id", c.Status)
	h.Post(":id/resume", c.Resume)
	h.Delete(":id", c.Delete)
}

func (c *runController) Start(ctx *fiber.Ctx) error {
	var req dto.StartRunRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.runService.StartRun(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).
		JSON(serverutils.SuccessResponse("Run started", res))
}

func (c *runController) Status(ctx *fiber.Ctx) error {
	id, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	res, err := c.runService.GetStatus(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get run status", res))
}

func (c *runController) Resume(ctx *fiber.Ctx) error {
	id, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	var req dto.ResumeRunRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.runService.Resume(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).
		JSON(serverutils.SuccessResponse("Run resumed", res))
}

func (c *runController) Delete(ctx *fiber.Ctx) error {
	id, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	if err := c.runService.Cleanup(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete run session", nil))
}

func parseSessionId(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid session id %q", ctx.Params("id"))
	}
	return id, nil
}
