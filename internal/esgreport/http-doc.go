package esgreport

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/apierrors"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dao"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dto"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/export"
	"github.com/labstack/echo/v4"
)

type DocumentContext struct {
	echo.Context
	DocID uuid.UUID
}

// DocumentMiddleware разбирает docId из адреса. Наличие документа проверяется обработчиками.
func (s *Services) DocumentMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := dao.ParseID(c.Param("docId"))
		if err != nil {
			return EError(c, err)
		}
		return next(DocumentContext{c, id})
	}
}

func (s *Services) AddDocumentServices(g *echo.Group) {
	g.GET("documents/", s.getDocumentList)
	g.POST("documents/", s.createDocument)

	docGroup := g.Group("documents/:docId", s.DocumentMiddleware)
	docGroup.GET("/", s.getDocument)
	docGroup.PUT("/", s.saveDocument)
	docGroup.DELETE("/", s.deleteDocument)

	docGroup.GET("/state/", s.getSessionState)
	docGroup.POST("/save/", s.saveSession)
	docGroup.POST("/close/", s.closeSession)

	docGroup.GET("/export/markdown/", s.exportMarkdown)
}

// currentDocument документ с содержимым открытого сеанса, если он есть.
func (s *Services) currentDocument(docID uuid.UUID) (*dto.Document, error) {
	doc, err := dao.GetDocument(s.db, docID)
	if err != nil {
		return nil, err
	}
	res := doc.ToDTO()
	if sess, ok := s.sessions.Get(docID); ok {
		res.Content = sess.Store().Snapshot()
	}
	return res, nil
}

// getDocumentList godoc
// @id getDocumentList
// @Summary documents: список документов
// @Tags Documents
// @Produce json
// @Param offset query int false "Смещение" default(0)
// @Param limit query int false "Количество" default(20)
// @Success 200 {object} dto.DocumentList "список документов"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Router /api/documents/ [get]
func (s *Services) getDocumentList(c echo.Context) error {
	offset, limit, err := extractPage(c)
	if err != nil {
		return EError(c, err)
	}

	page, err := dao.ListDocuments(s.db, offset, limit)
	if err != nil {
		return EError(c, err)
	}

	res := dto.DocumentList{
		Count:  page.Count,
		Offset: page.Offset,
		Limit:  page.Limit,
		Result: make([]dto.DocumentLight, 0, len(page.Result)),
	}
	for i := range page.Result {
		res.Result = append(res.Result, *page.Result[i].ToLightDTO())
	}
	return c.JSON(http.StatusOK, res)
}

// createDocument godoc
// @id createDocument
// @Summary documents: создание документа
// @Description создание документа с заголовком и, при необходимости, разделами шаблона
// @Tags Documents
// @Accept json
// @Produce json
// @Param data body CreateDocumentRequest true "документ"
// @Success 201 {object} dto.Document "документ"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Router /api/documents/ [post]
func (s *Services) createDocument(c echo.Context) error {
	var req CreateDocumentRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	doc, err := dao.CreateDocument(s.db, req.Bind(userID(c)), userID(c))
	if err != nil {
		return EError(c, err)
	}
	slog.Info("Document created", "documentId", doc.ID, "title", doc.Title)
	return c.JSON(http.StatusCreated, doc.ToDTO())
}

func (s *Services) getDocument(c echo.Context) error {
	docID := c.(DocumentContext).DocID
	doc, err := s.currentDocument(docID)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// saveDocument godoc
// @id saveDocument
// @Summary documents: полное сохранение документа
// @Description заменяет документ целиком; история правок открытого сеанса очищается
// @Tags Documents
// @Accept json
// @Produce json
// @Param docId path string true "Id документа"
// @Param data body edtypes.Document true "документ"
// @Success 200 {object} dto.Document "документ"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Router /api/documents/{docId}/ [put]
func (s *Services) saveDocument(c echo.Context) error {
	docID := c.(DocumentContext).DocID

	var doc edtypes.Document
	if err := c.Bind(&doc); err != nil {
		return EError(c, apierrors.ErrRequestBody.WithFormattedMessage(err.Error()))
	}

	saved, err := s.sessions.Replace(docID, &doc)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, saved.ToDTO())
}

func (s *Services) deleteDocument(c echo.Context) error {
	docID := c.(DocumentContext).DocID
	if err := s.sessions.Delete(docID); err != nil {
		return EError(c, err)
	}
	slog.Info("Document deleted", "documentId", docID)
	return c.NoContent(http.StatusOK)
}

func (s *Services) getSessionState(c echo.Context) error {
	state, err := s.sessions.State(c.(DocumentContext).DocID)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// saveSession сохраняет открытый сеанс немедленно (ручное сохранение).
func (s *Services) saveSession(c echo.Context) error {
	docID := c.(DocumentContext).DocID
	if _, ok := s.sessions.Get(docID); !ok {
		return EError(c, apierrors.ErrSessionNotOpened)
	}
	if err := s.sessions.Save(docID); err != nil {
		return EError(c, err)
	}
	state, err := s.sessions.State(docID)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

func (s *Services) closeSession(c echo.Context) error {
	if err := s.sessions.Close(c.(DocumentContext).DocID); err != nil {
		return EError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// exportMarkdown godoc
// @id exportMarkdown
// @Summary documents: экспорт в Markdown
// @Tags Documents
// @Produce text/markdown
// @Param docId path string true "Id документа"
// @Success 200 {string} string "документ в Markdown"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Router /api/documents/{docId}/export/markdown/ [get]
func (s *Services) exportMarkdown(c echo.Context) error {
	docID := c.(DocumentContext).DocID
	doc, err := s.currentDocument(docID)
	if err != nil {
		return EError(c, err)
	}

	var buf bytes.Buffer
	if err := export.Markdown(&buf, doc.Content); err != nil {
		return EError(c, err)
	}
	slog.Debug("Document exported", "documentId", docID, "blocks", export.Summary(doc.Content))

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", docID.String()+".md"))
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", buf.Bytes())
}
