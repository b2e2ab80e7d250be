package esgreport

import (
	"fmt"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/apierrors"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dao"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dto"
	"github.com/labstack/echo/v4"
)

func (s *Services) AddVersionServices(g *echo.Group) {
	docGroup := g.Group("documents/:docId", s.DocumentMiddleware)

	docGroup.GET("/versions/", s.getVersionList)
	docGroup.POST("/versions/", s.createVersion)
	docGroup.GET("/versions/:versionId/", s.getVersion)
	docGroup.DELETE("/versions/:versionId/", s.deleteVersion)
	docGroup.POST("/versions/:versionId/restore/", s.restoreVersion)
}

func versionParam(c echo.Context) (uuid.UUID, error) {
	return dao.ParseID(c.Param("versionId"))
}

// createVersion godoc
// @id createVersion
// @Summary versions: создание версии
// @Description сохраняет открытый сеанс и фиксирует текущее содержимое документа как версию
// @Tags Versions
// @Accept json
// @Produce json
// @Param docId path string true "Id документа"
// @Param data body CreateVersionRequest true "комментарий"
// @Success 201 {object} dto.VersionMeta "версия"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Router /api/documents/{docId}/versions/ [post]
func (s *Services) createVersion(c echo.Context) error {
	docID := c.(DocumentContext).DocID

	var req CreateVersionRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	if err := s.sessions.Save(docID); err != nil {
		return EError(c, err)
	}

	version, err := dao.CreateVersion(s.db, docID, nil, req.Comment, false, userID(c))
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusCreated, version.ToMetaDTO())
}

// getVersionList godoc
// @id getVersionList
// @Summary versions: список версий
// @Tags Versions
// @Produce json
// @Param docId path string true "Id документа"
// @Param offset query int false "Смещение" default(0)
// @Param limit query int false "Количество" default(20)
// @Param include_auto query bool false "Включать автоматические версии" default(true)
// @Success 200 {object} dto.VersionList "версии"
// @Router /api/documents/{docId}/versions/ [get]
func (s *Services) getVersionList(c echo.Context) error {
	docID := c.(DocumentContext).DocID

	offset, limit, err := extractPage(c)
	if err != nil {
		return EError(c, err)
	}
	includeAuto := true
	if err := echo.QueryParamsBinder(c).Bool("include_auto", &includeAuto).BindError(); err != nil {
		return EError(c, apierrors.ErrInvalidPageParam.WithFormattedMessage("include_auto"))
	}

	if _, err := dao.GetDocument(s.db, docID); err != nil {
		return EError(c, err)
	}

	list, err := dao.ListVersions(s.db, docID, offset, limit, includeAuto)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Services) getVersion(c echo.Context) error {
	docID := c.(DocumentContext).DocID
	versionID, err := versionParam(c)
	if err != nil {
		return EError(c, err)
	}

	version, err := dao.GetVersion(s.db, docID, versionID)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, version.ToDTO())
}

func (s *Services) deleteVersion(c echo.Context) error {
	docID := c.(DocumentContext).DocID
	versionID, err := versionParam(c)
	if err != nil {
		return EError(c, err)
	}

	if err := dao.DeleteVersion(s.db, docID, versionID, userID(c)); err != nil {
		return EError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// restoreVersion godoc
// @id restoreVersion
// @Summary versions: восстановление версии
// @Description перед восстановлением текущее содержимое сохраняется автоматической резервной версией; история правок открытого сеанса очищается
// @Tags Versions
// @Produce json
// @Param docId path string true "Id документа"
// @Param versionId path string true "Id версии"
// @Success 200 {object} dto.VersionRestore "результат восстановления"
// @Failure 404 {object} apierrors.DefinedError "Версия не найдена"
// @Router /api/documents/{docId}/versions/{versionId}/restore/ [post]
func (s *Services) restoreVersion(c echo.Context) error {
	docID := c.(DocumentContext).DocID
	versionID, err := versionParam(c)
	if err != nil {
		return EError(c, err)
	}

	res, err := s.sessions.Restore(docID, versionID, userID(c))
	if err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, dto.VersionRestore{
		Success:               true,
		Message:               fmt.Sprintf("Restored to version %d", res.RestoredNumber),
		RestoredVersionNumber: res.RestoredNumber,
		BackupVersionNumber:   res.BackupNumber,
		Document:              res.Document.Content.Clone(),
	})
}
