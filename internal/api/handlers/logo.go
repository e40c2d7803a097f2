package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/stitts-dev/fpa-dashboard/internal/services"
	"github.com/stitts-dev/fpa-dashboard/pkg/utils"
)

type LogoHandler struct {
	logos *services.LogoService
}

func NewLogoHandler(logos *services.LogoService) *LogoHandler {
	return &LogoHandler{logos: logos}
}

// GetLogo serves a team logo from the local logo directory
func (h *LogoHandler) GetLogo(c *gin.Context) {
	path, err := h.logos.Path(c.Param("team"))
	if err != nil {
		if errors.Is(err, services.ErrLogoNotFound) {
			utils.SendNotFound(c, "Logo not found")
			return
		}
		utils.SendInternalError(c, "Failed to read logo")
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.File(path)
}
