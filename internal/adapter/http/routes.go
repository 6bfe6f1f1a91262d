package http

import "github.com/labstack/echo/v4"

// Register mounts the program endpoints on g, which carries authentication.
func (h *ProgramHandler) Register(g *echo.Group) {
	g.POST("", h.CreateProgram)
	g.GET("", h.ListPrograms)
	g.GET("/:id", h.GetProgram)
	g.PUT("/:id", h.UpdateProgram)
	g.DELETE("/:id", h.DeleteProgram)
	g.DELETE("/:id/documents/:documentId", h.DetachDocument)
}

// RegisterDocuments serves stored files under prefix, e.g. /uploads/documents.
func (h *ProgramHandler) RegisterDocuments(e *echo.Echo, prefix string) {
	e.GET(prefix+"/:programId/:filename", h.ServeDocument)
}
