package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-trainer/internal/quiz"
	"quiz-trainer/internal/validator"
)

func (a *API) playerFromParam(c *gin.Context) (*player, bool) {
	p, err := a.lookupPlayer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return nil, false
	}
	return p, true
}

func (a *API) HandleCreatePlayer(c *gin.Context) {
	p, err := a.createPlayer(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createPlayerResponse{PlayerID: p.id.String()})
}

func (a *API) HandleCatalog(c *gin.Context) {
	p, ok := a.playerFromParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toCatalogResponse(p.controller.Catalog()))
}

func (a *API) HandleStartGroup(c *gin.Context) {
	p, ok := a.playerFromParam(c)
	if !ok {
		return
	}

	var req startGroupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fields})
		return
	}

	view, err := p.controller.StartGroup(*req.GroupIndex)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(view))
}

// HandleStartRandom accepts an empty body for the default question count.
func (a *API) HandleStartRandom(c *gin.Context) {
	p, ok := a.playerFromParam(c)
	if !ok {
		return
	}

	var req startRandomRequest
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fields})
			return
		}
	}

	view, err := p.controller.StartRandom(req.Count)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(view))
}

func (a *API) HandleGetSession(c *gin.Context) {
	p, ok := a.playerFromParam(c)
	if !ok {
		return
	}

	view, ok := p.controller.Session()
	if !ok {
		writeServiceError(c, quiz.ErrNoSession)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(view))
}

func (a *API) HandleAnswer(c *gin.Context) {
	p, ok := a.playerFromParam(c)
	if !ok {
		return
	}

	var req answerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fields})
		return
	}

	view, err := p.controller.SelectAnswer(*req.Option)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(view))
}

func (a *API) HandleNext(c *gin.Context) {
	a.sessionAction(c, (*quiz.Controller).GoNext)
}

func (a *API) HandlePrev(c *gin.Context) {
	a.sessionAction(c, (*quiz.Controller).GoPrev)
}

func (a *API) HandleExplanation(c *gin.Context) {
	a.sessionAction(c, (*quiz.Controller).ToggleExplanation)
}

func (a *API) sessionAction(c *gin.Context, action func(*quiz.Controller) (quiz.SessionView, error)) {
	p, ok := a.playerFromParam(c)
	if !ok {
		return
	}

	view, err := action(p.controller)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(view))
}

func (a *API) HandleFinish(c *gin.Context) {
	p, ok := a.playerFromParam(c)
	if !ok {
		return
	}

	result, err := p.controller.FinishTest(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResultResponse(result))
}

func (a *API) HandleReturnToCatalog(c *gin.Context) {
	p, ok := a.playerFromParam(c)
	if !ok {
		return
	}

	p.controller.ReturnToCatalog()
	c.Status(http.StatusNoContent)
}
