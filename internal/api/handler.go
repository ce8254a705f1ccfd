package api

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-assistant/internal/buildinfo"
	"github.com/insightdelivered/statement-assistant/internal/config"
	"github.com/insightdelivered/statement-assistant/internal/extractor"
	"github.com/insightdelivered/statement-assistant/internal/logger"
	"github.com/insightdelivered/statement-assistant/internal/metrics"
	"github.com/insightdelivered/statement-assistant/internal/models"
	"github.com/insightdelivered/statement-assistant/internal/parser"
	"github.com/insightdelivered/statement-assistant/internal/statement"
	"github.com/insightdelivered/statement-assistant/internal/storage"
	"github.com/insightdelivered/statement-assistant/internal/writer"
)

// PageBreak separates pages in client-side extracted text.
const PageBreak = "\n---PAGE_BREAK---\n"

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success       bool                 `json:"success"`
	Error         string               `json:"error,omitempty"`
	Bank          string               `json:"bank,omitempty"`
	AccountInfo   *AccountInfo         `json:"accountInfo,omitempty"`
	Transactions  []models.Transaction `json:"transactions"`
	CSV           string               `json:"csv,omitempty"`
	TotalDebit    decimal.Decimal      `json:"totalDebit"`
	TotalCredit   decimal.Decimal      `json:"totalCredit"`
	DisplayDebit  string               `json:"displayDebit,omitempty"`
	DisplayCredit string               `json:"displayCredit,omitempty"`
	Count         int                  `json:"count"`
	Unrecognized  int                  `json:"unrecognized"`
	Malformed     int                  `json:"malformed"`
	Version       string               `json:"version,omitempty"`
	DebugLines    []models.DebugLine   `json:"debugLines,omitempty"`
}

// AccountInfo holds account metadata for the JSON response.
type AccountInfo struct {
	Number string `json:"number,omitempty"`
	Period string `json:"period,omitempty"`
}

// ImportResponse is the JSON response from the /api/import endpoint.
type ImportResponse struct {
	Success bool                  `json:"success"`
	Error   string                `json:"error,omitempty"`
	Bank    string                `json:"bank,omitempty"`
	Result  *storage.ImportResult `json:"result,omitempty"`
}

// QueryRequest is the JSON body of /api/query.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse is the JSON response from the /api/query endpoint.
type QueryResponse struct {
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	Columns  []string `json:"columns,omitempty"`
	Rows     [][]any  `json:"rows,omitempty"`
	Markdown string   `json:"markdown,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Service        *statement.Service
	Metrics        *metrics.Metrics // nil disables /metrics
	MaxUploadBytes int64
}

// NewApp builds the fiber application with middleware and routes.
func NewApp(h *Handler) *fiber.App {
	cfg := fiber.Config{
		AppName:               "statement-assistant",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	}
	if h.MaxUploadBytes > 0 {
		cfg.BodyLimit = int(h.MaxUploadBytes)
	}

	app := fiber.New(cfg)
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(requestLogger)

	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", HandleHealth)
	app.Post("/api/convert", h.HandleConvert)
	app.Post("/api/import", h.HandleImport)
	app.Post("/api/query", h.HandleQuery)

	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.Metrics.Handler()))
	}
}

// requestLogger attaches a request-scoped logger to the user context.
func requestLogger(c *fiber.Ctx) error {
	l := logger.L.With("method", c.Method(), "path", c.Path())
	c.SetUserContext(logger.WithContext(c.UserContext(), l))

	err := c.Next()
	l.Debug("request handled", "status", c.Response().StatusCode())
	return err
}

func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": buildinfo.Version,
		"engine":  "fiber",
	})
}

func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	info, err := h.parseUpload(c)
	if err != nil {
		return writeError(c, err)
	}

	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{IncludeHeader: c.FormValue("header") != "false"}
	if err := csvWriter.Write(&csvBuf, info); err != nil {
		return writeError(c, fmt.Errorf("CSV generation failed: %w", err))
	}

	summary := writer.Summarize(info.Transactions)

	// nil marshals to JSON null, not []
	txns := info.Transactions
	if txns == nil {
		txns = []models.Transaction{}
	}

	resp := ConvertResponse{
		Success:       true,
		Bank:          string(info.Bank),
		Transactions:  txns,
		CSV:           csvBuf.String(),
		TotalDebit:    summary.Debits,
		TotalCredit:   summary.Credits,
		DisplayDebit:  writer.FormatINR(summary.Debits),
		DisplayCredit: writer.FormatINR(summary.Credits),
		Count:         summary.Count,
		Unrecognized:  info.Unrecognized,
		Malformed:     info.Malformed,
		Version:       buildinfo.Version,
		DebugLines:    info.DebugLines,
	}
	if info.AccountNumber != "" || info.StatementPeriod != "" {
		resp.AccountInfo = &AccountInfo{
			Number: info.AccountNumber,
			Period: info.StatementPeriod,
		}
	}

	return c.JSON(resp)
}

func (h *Handler) HandleImport(c *fiber.Ctx) error {
	info, err := h.parseUpload(c)
	if err != nil {
		return writeError(c, err)
	}

	res, err := h.Service.Import(c.UserContext(), info, strings.TrimSpace(c.FormValue("account_no")))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(ImportResponse{
		Success: true,
		Bank:    string(info.Bank),
		Result:  res,
	})
}

func (h *Handler) HandleQuery(c *fiber.Ctx) error {
	var req QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(QueryResponse{Error: "Invalid JSON body: " + err.Error()})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(QueryResponse{Error: "Field 'query' is required."})
	}

	res, err := h.Service.Query(c.UserContext(), req.Query)
	if err != nil {
		status := statusFor(err)
		if status == fiber.StatusInternalServerError {
			// SQL errors are the caller's to fix.
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(QueryResponse{Error: err.Error()})
	}

	var md bytes.Buffer
	if err := writer.WriteMarkdown(&md, res.Columns, res.Rows); err != nil {
		return writeError(c, err)
	}

	return c.JSON(QueryResponse{
		Success:  true,
		Columns:  res.Columns,
		Rows:     res.Rows,
		Markdown: md.String(),
	})
}

// parseUpload parses either client-extracted text or an uploaded PDF.
func (h *Handler) parseUpload(c *fiber.Ctx) (*models.StatementInfo, error) {
	ctx := c.UserContext()
	bank := strings.TrimSpace(c.FormValue("bank"))

	if text := c.FormValue("extractedText"); strings.TrimSpace(text) != "" {
		pages := parser.TextPages(strings.Split(text, PageBreak))
		return h.Service.ParsePages(ctx, pages, bank)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Only PDF files are supported.")
	}

	tmpDir, err := os.MkdirTemp("", "statement-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, "statement.pdf")
	if err := c.SaveFile(fh, tmpPath); err != nil {
		return nil, fmt.Errorf("failed to save uploaded file: %w", err)
	}

	return h.Service.ParseFile(ctx, tmpPath, statement.ParseOptions{
		Bank:     bank,
		Password: c.FormValue("password"),
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, extractor.ErrPasswordRequired), errors.Is(err, config.ErrNoPassword):
		return fiber.StatusUnauthorized
	case errors.Is(err, parser.ErrUnsupportedBank), errors.Is(err, storage.ErrReadOnlyQuery):
		return fiber.StatusBadRequest
	case errors.Is(err, parser.ErrUnknownBank), errors.Is(err, extractor.ErrNoReadableText):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, statement.ErrNoDatabase):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.FromContext(c.UserContext()).Error("request failed", "error", err)
	}
	return c.Status(status).JSON(ConvertResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// errorHandler renders errors that escape a handler, such as routing misses
// and recovered panics, in the same JSON shape.
func errorHandler(c *fiber.Ctx, err error) error {
	return writeError(c, err)
}
