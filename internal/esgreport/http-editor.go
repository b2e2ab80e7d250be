package esgreport

import (
	"net/http"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/apierrors"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/commands"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dto"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/sessions"
	"github.com/labstack/echo/v4"
)

func (s *Services) AddEditorServices(g *echo.Group) {
	docGroup := g.Group("documents/:docId", s.DocumentMiddleware)

	docGroup.POST("/commands/", s.executeCommand)
	docGroup.GET("/commands/types/", s.getCommandTypes)
	docGroup.POST("/undo/", s.undo)
	docGroup.POST("/redo/", s.redo)
	docGroup.GET("/history/", s.getHistory)

	docGroup.POST("/sections/:sectionId/blocks/:blockId/surface/", s.updateBlockSurface)
	docGroup.GET("/sections/:sectionId/blocks/:blockId/html/", s.getBlockHTML)
}

// executeCommand godoc
// @id executeCommand
// @Summary editor: выполнение команды
// @Description выполняет команду редактора над открытым документом; неуспешная команда возвращает success=false без изменений документа
// @Tags Editor
// @Accept json
// @Produce json
// @Param docId path string true "Id документа"
// @Param data body CommandRequest true "команда"
// @Success 200 {object} dto.CommandResult "результат, документ и состояние истории"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Router /api/documents/{docId}/commands/ [post]
func (s *Services) executeCommand(c echo.Context) error {
	docID := c.(DocumentContext).DocID

	var req CommandRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}
	if req.Type == commands.TypeSaveVersion {
		req.Payload = withAuthor(req.Payload, userID(c))
	}

	var res dto.CommandResult
	if err := s.sessions.Do(docID, func(sess *sessions.Session) error {
		res = sess.Result(sess.Dispatch(req.Type, req.Payload))
		return nil
	}); err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Services) getCommandTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, commands.Types())
}

func (s *Services) undo(c echo.Context) error {
	return s.navigateHistory(c, (*sessions.Session).Undo, apierrors.ErrNothingToUndo)
}

func (s *Services) redo(c echo.Context) error {
	return s.navigateHistory(c, (*sessions.Session).Redo, apierrors.ErrNothingToRedo)
}

func (s *Services) navigateHistory(c echo.Context, step func(*sessions.Session) bool, empty apierrors.DefinedError) error {
	docID := c.(DocumentContext).DocID

	var res dto.CommandResult
	err := s.sessions.Do(docID, func(sess *sessions.Session) error {
		if !step(sess) {
			return empty
		}
		res = sess.Result(commands.Result{Success: true})
		return nil
	})
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Services) getHistory(c echo.Context) error {
	var res dto.History
	if err := s.sessions.Do(c.(DocumentContext).DocID, func(sess *sessions.Session) error {
		res = sess.History()
		return nil
	}); err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// updateBlockSurface godoc
// @id updateBlockSurface
// @Summary editor: текст блока из HTML поверхности
// @Description очищает HTML, разбирает его во фрагменты и заменяет содержимое блока; с debounce=true правка применяется после паузы в наборе
// @Tags Editor
// @Accept json
// @Produce json
// @Param docId path string true "Id документа"
// @Param sectionId path string true "Id раздела"
// @Param blockId path string true "Id блока"
// @Param data body SurfaceRequest true "HTML поверхности"
// @Success 200 {object} dto.CommandResult "результат"
// @Router /api/documents/{docId}/sections/{sectionId}/blocks/{blockId}/surface/ [post]
func (s *Services) updateBlockSurface(c echo.Context) error {
	docID := c.(DocumentContext).DocID
	sectionID := c.Param("sectionId")
	blockID := c.Param("blockId")

	var req SurfaceRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	runs, err := editor.SanitizeAndParse(req.Html)
	if err != nil {
		return EError(c, apierrors.ErrRequestBody.WithFormattedMessage(err.Error()))
	}

	var res dto.CommandResult
	err = s.sessions.Do(docID, func(sess *sessions.Session) error {
		b, ok := sess.Store().Document().FindBlock(sectionID, blockID)
		if !ok {
			return apierrors.ErrBlockNotFound
		}
		if b.BlockType.ContentKind() != edtypes.ContentInline {
			return apierrors.ErrBlockNotInlineBased
		}

		res = sess.Result(sess.UpdateContent(commands.UpdateBlockContentPayload{
			SectionID: sectionID,
			BlockID:   blockID,
			Content:   runs,
		}, req.Debounce))
		return nil
	})
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Services) getBlockHTML(c echo.Context) error {
	docID := c.(DocumentContext).DocID
	sectionID := c.Param("sectionId")
	blockID := c.Param("blockId")

	var html string
	if err := s.sessions.Do(docID, func(sess *sessions.Session) error {
		b, ok := sess.Store().Document().FindBlock(sectionID, blockID)
		if !ok {
			return apierrors.ErrBlockNotFound
		}
		html = editor.BlockHTML(*b)
		return nil
	}); err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"html": html})
}
