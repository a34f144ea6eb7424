package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/lattice-backend/internal/curriculum"
	"github.com/yungbote/lattice-backend/internal/http/response"
)

type CurriculumHandler struct {
	catalog *curriculum.Catalog
}

func NewCurriculumHandler(catalog *curriculum.Catalog) *CurriculumHandler {
	return &CurriculumHandler{catalog: catalog}
}

// GET /api/curriculum
func (h *CurriculumHandler) List(c *gin.Context) {
	response.RespondOK(c, gin.H{"entries": h.catalog.Entries()})
}
