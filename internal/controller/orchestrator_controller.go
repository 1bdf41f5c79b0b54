package controller

import (
	"errors"

	"network-orchestrator-be/internal/dto"
	"network-orchestrator-be/internal/pkg/serverutils"
	"network-orchestrator-be/internal/service"
	"network-orchestrator-be/pkg/events"
	"network-orchestrator-be/pkg/fallback"

	"github.com/gofiber/fiber/v2"
)

type IOrchestratorController interface {
	RegisterRoutes(r fiber.Router)
	Telemetry(ctx *fiber.Ctx) error
	Movement(ctx *fiber.Ctx) error
	Metadata(ctx *fiber.Ctx) error
	Restoration(ctx *fiber.Ctx) error
	Panic(ctx *fiber.Ctx) error
	Fallback(ctx *fiber.Ctx) error
	ClearFallbackCache(ctx *fiber.Ctx) error
	TearDown(ctx *fiber.Ctx) error
	State(ctx *fiber.Ctx) error
	Session(ctx *fiber.Ctx) error
}

type orchestratorController struct {
	service service.IOrchestratorService
}

func NewOrchestratorController(service service.IOrchestratorService) IOrchestratorController {
	return &orchestratorController{service: service}
}

func (c *orchestratorController) RegisterRoutes(r fiber.Router) {
	r.Post("/telemetry", c.Telemetry)
	r.Post("/movement", c.Movement)
	r.Post("/metadata", c.Metadata)
	r.Post("/restoration", c.Restoration)
	r.Post("/panic", c.Panic)
	r.Post("/fallback", c.Fallback)
	r.Delete("/fallback/cache", c.ClearFallbackCache)
	r.Delete("/contexts/:contextId", c.TearDown)
	r.Get("/state", c.State)
	r.Get("/sessions/:contextId", c.Session)
}

// parse decodes and validates the body into req.
func parse(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return serverutils.ValidateRequest(req)
}

func (c *orchestratorController) ingest(ctx *fiber.Ctx, ev events.Inbound, message string) error {
	if err := c.service.Ingest(ctx.UserContext(), ev); err != nil {
		return err
	}
	res := dto.AcceptedResponse{State: c.service.Status().State.String()}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse(message, res))
}

func (c *orchestratorController) Telemetry(ctx *fiber.Ctx) error {
	var req dto.TelemetryRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}
	return c.ingest(ctx, req.ToEvent(), "Telemetry accepted")
}

func (c *orchestratorController) Movement(ctx *fiber.Ctx) error {
	var req dto.MovementRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}
	if err := c.service.Ingest(ctx.UserContext(), req.ToEvent()); err != nil {
		return err
	}
	res := dto.MovementResponse{PollingIntervalMs: c.service.Status().IntervalMs}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Movement accepted", res))
}

func (c *orchestratorController) Metadata(ctx *fiber.Ctx) error {
	var req dto.MetadataRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}
	return c.ingest(ctx, req.ToEvent(), "Metadata accepted")
}

func (c *orchestratorController) Restoration(ctx *fiber.Ctx) error {
	var req dto.ContextRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}
	return c.ingest(ctx, events.RestorationSignal{ContextID: req.ContextID}, "Restoration accepted")
}

func (c *orchestratorController) Panic(ctx *fiber.Ctx) error {
	var req dto.ContextRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}
	return c.ingest(ctx, events.PanicSignal{ContextID: req.ContextID, Reason: req.Reason}, "Panic signal accepted")
}

func (c *orchestratorController) Fallback(ctx *fiber.Ctx) error {
	var req dto.FallbackRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}

	artifact, err := c.service.RequestFallback(ctx.UserContext(), req.ToEvent())
	if err != nil {
		if errors.Is(err, fallback.ErrProduction) {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Fallback ready", dto.FallbackResponse{Artifact: artifact}))
}

func (c *orchestratorController) ClearFallbackCache(ctx *fiber.Ctx) error {
	n, err := c.service.ClearFallbackCache(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Fallback cache cleared", dto.ClearCacheResponse{Cleared: n}))
}

func (c *orchestratorController) TearDown(ctx *fiber.Ctx) error {
	contextID := ctx.Params("contextId")
	return c.ingest(ctx, events.ContextTornDown{ContextID: contextID}, "Context torn down")
}

func (c *orchestratorController) State(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success", c.service.Status()))
}

func (c *orchestratorController) Session(ctx *fiber.Ctx) error {
	sess, ok := c.service.Session(ctx.Params("contextId"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", sess))
}
