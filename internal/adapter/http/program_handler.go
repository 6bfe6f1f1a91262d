package http

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"budget-portal/internal/auth"
	domain "budget-portal/internal/domain/program"
	uc "budget-portal/internal/usecase/program"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// DocumentFiles is the part of the document store the transport touches:
// staging uploads before the usecase runs and resolving stored files.
type DocumentFiles interface {
	Stage(r io.Reader, originalName, contentType string, size int64) (domain.StagedUpload, error)
	Discard(staged []domain.StagedUpload)
	Locate(programID, filename string) (string, error)
}

type ProgramHandler struct {
	uc       *uc.Usecase
	files    DocumentFiles
	maxFiles int
	log      zerolog.Logger
}

func NewProgramHandler(u *uc.Usecase, files DocumentFiles, maxFiles int, log zerolog.Logger) *ProgramHandler {
	return &ProgramHandler{uc: u, files: files, maxFiles: maxFiles, log: log}
}

// Multipart field names for uploads; both spellings are accepted.
var uploadFields = []string{"documents", "documents[]"}

type createProgramReq struct {
	Name            string      `json:"name"            form:"name"            validate:"required,max=200"`
	Budget          json.Number `json:"budget"          form:"budget"          validate:"required,budget"`
	RecipientName   string      `json:"recipientName"   form:"recipientName"   validate:"required,max=200"`
	ReferenceLetter string      `json:"referenceLetter" form:"referenceLetter" validate:"required,max=200"`
	Status          string      `json:"status"          form:"status"          validate:"omitempty,status"`
	Message         string      `json:"message"         form:"message"         validate:"max=2000"`
}

type updateProgramReq struct {
	Name            string      `json:"name"            form:"name"            validate:"max=200"`
	Budget          json.Number `json:"budget"          form:"budget"          validate:"omitempty,budget"`
	RecipientName   string      `json:"recipientName"   form:"recipientName"   validate:"max=200"`
	ReferenceLetter string      `json:"referenceLetter" form:"referenceLetter" validate:"max=200"`
	Status          string      `json:"status"          form:"status"          validate:"omitempty,status"`
	Message         string      `json:"message"         form:"message"         validate:"max=2000"`
}

type listProgramsReq struct {
	UserID string `query:"userId" validate:"omitempty,hex32"`
	// matched case-insensitively by the repository
	Status string `query:"status"`
}

func callerOf(c echo.Context) (auth.Caller, error) {
	cl, ok := auth.CallerFrom(c.Request().Context())
	if !ok {
		return auth.Caller{}, auth.ErrUnauthenticated
	}
	return cl, nil
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
}

// stageUploads copies every uploaded document into staging. On error nothing
// stays staged.
func (h *ProgramHandler) stageUploads(c echo.Context) ([]domain.StagedUpload, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed multipart body", domain.ErrInvalidInput)
	}
	var headers []*multipart.FileHeader
	for _, f := range uploadFields {
		headers = append(headers, form.File[f]...)
	}
	if len(headers) > h.maxFiles {
		return nil, fmt.Errorf("%w: at most %d documents per request", domain.ErrInvalidInput, h.maxFiles)
	}

	staged := make([]domain.StagedUpload, 0, len(headers))
	for _, fh := range headers {
		st, err := h.stageOne(fh)
		if err != nil {
			h.files.Discard(staged)
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		staged = append(staged, st)
	}
	return staged, nil
}

func (h *ProgramHandler) stageOne(fh *multipart.FileHeader) (domain.StagedUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.StagedUpload{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return h.files.Stage(f, fh.Filename, fh.Header.Get(echo.HeaderContentType), fh.Size)
}

// releaseMultipart drops the temp files net/http spilled for large parts.
func releaseMultipart(c echo.Context) {
	if f := c.Request().MultipartForm; f != nil {
		_ = f.RemoveAll()
	}
}

func (h *ProgramHandler) CreateProgram(c echo.Context) error {
	defer releaseMultipart(c)
	caller, err := callerOf(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req createProgramReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	files, err := h.stageUploads(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	// attached files have already left staging
	defer h.files.Discard(files)

	dto, err := h.uc.Create(c.Request().Context(), caller, uc.CreateInput{
		Name:            req.Name,
		Budget:          req.Budget.String(),
		RecipientName:   req.RecipientName,
		ReferenceLetter: req.ReferenceLetter,
		Status:          req.Status,
		Message:         req.Message,
		Files:           files,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ProgramHandler) ListPrograms(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req listProgramsReq
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	out, err := h.uc.List(c.Request().Context(), caller, uc.ListInput{UserID: req.UserID, Status: req.Status})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProgramHandler) GetProgram(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	dto, err := h.uc.Get(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ProgramHandler) UpdateProgram(c echo.Context) error {
	defer releaseMultipart(c)
	caller, err := callerOf(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req updateProgramReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	files, err := h.stageUploads(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer h.files.Discard(files)

	dto, err := h.uc.Update(c.Request().Context(), caller, c.Param("id"), uc.UpdateInput{
		Name:            req.Name,
		Budget:          req.Budget.String(),
		RecipientName:   req.RecipientName,
		ReferenceLetter: req.ReferenceLetter,
		Status:          req.Status,
		Message:         req.Message,
		Files:           files,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ProgramHandler) DeleteProgram(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.uc.Delete(c.Request().Context(), caller, c.Param("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Program removed"})
}

type detachResponse struct {
	Message string         `json:"message"`
	Program *uc.ProgramDTO `json:"program"`
}

func (h *ProgramHandler) DetachDocument(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	dto, err := h.uc.DetachDocument(c.Request().Context(), caller, c.Param("id"), c.Param("documentId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, detachResponse{Message: "Document removed", Program: dto})
}

// ServeDocument streams a stored document by its public path.
func (h *ProgramHandler) ServeDocument(c echo.Context) error {
	path, err := h.files.Locate(c.Param("programId"), c.Param("filename"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.File(path)
}
