package controller

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wheslancardoso/backend-mindmesh/internal/apperror"
	"github.com/wheslancardoso/backend-mindmesh/internal/dto"
	"github.com/wheslancardoso/backend-mindmesh/internal/pkg/serverutils"
	"github.com/wheslancardoso/backend-mindmesh/internal/service"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	ChunkCount(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Reprocess(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
	auth            fiber.Handler
}

func NewDocumentController(documentService service.IDocumentService, auth fiber.Handler) IDocumentController {
	return &documentController{
		documentService: documentService,
		auth:            auth,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Use(c.auth)
	h.Post("", c.Upload)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Get(":id/chunks/count", c.ChunkCount)
	h.Delete(":id", c.Delete)
	h.Post(":id/reprocess", c.Reprocess)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	userId, err := authenticatedUserId(ctx)
	if err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return apperror.NewInvalidInput("file", "multipart field is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperror.NewInvalidInput("file", "could not be read")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return apperror.NewInvalidInput("file", "could not be read")
	}

	contentType := fileHeader.Header.Get("Content-Type")

	res, err := c.documentService.Ingest(ctx.Context(), userId, fileHeader.Filename, contentType, data)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success upload document", res))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	userId, err := authenticatedUserId(ctx)
	if err != nil {
		return err
	}

	var query dto.ListDocumentsQuery
	if err := ctx.QueryParser(&query); err != nil {
		return apperror.NewInvalidInput("query", "could not be parsed")
	}

	if err := serverutils.ValidateRequest(query); err != nil {
		return err
	}

	res, err := c.documentService.List(ctx.Context(), userId, &query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	userId, err := authenticatedUserId(ctx)
	if err != nil {
		return err
	}

	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.documentService.Show(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show document", res))
}

func (c *documentController) ChunkCount(ctx *fiber.Ctx) error {
	userId, err := authenticatedUserId(ctx)
	if err != nil {
		return err
	}

	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.documentService.ChunkCount(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success count document chunks", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	userId, err := authenticatedUserId(ctx)
	if err != nil {
		return err
	}

	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.documentService.Delete(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete document", nil))
}

func (c *documentController) Reprocess(ctx *fiber.Ctx) error {
	userId, err := authenticatedUserId(ctx)
	if err != nil {
		return err
	}

	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.documentService.Reprocess(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reprocess document", res))
}

func authenticatedUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "missing user identity")
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid user identity")
	}
	return userId, nil
}

func parseIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.NewInvalidInput("id", "must be a valid uuid")
	}
	return id, nil
}
