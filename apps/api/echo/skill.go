package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/tahsil/core/skill"
)

func registerSkillAPI(g *echo.Group, jwt echo.MiddlewareFunc, catalog *skill.Catalog) {
	sg := g.Group("/skills", jwt)
	sg.GET("", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, SkillsResponse{Skills: catalog.List(), TotalMax: catalog.TotalMax()})
	})
}

type SkillsResponse struct {
	Skills   []skill.Definition `json:"skills"`
	TotalMax int                `json:"total_max"`
}
