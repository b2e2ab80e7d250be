// Запросы HTTP API редактора отчетов и разбор параметров страниц.
package esgreport

import (
	"encoding/json"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/apierrors"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/commands"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	policy "github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/redactor-policy"
	"github.com/labstack/echo/v4"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	userHeader = "X-User-Id"
)

type CreateDocumentRequest struct {
	Title    string            `json:"title" validate:"docTitle"`
	Tags     []string          `json:"tags"`
	Language string            `json:"language"`
	Sections []edtypes.Section `json:"sections"`
}

// Bind создает документ из запроса. Разделы шаблона получают новые идентификаторы, если их нет.
func (req *CreateDocumentRequest) Bind(authorID string) *edtypes.Document {
	doc := edtypes.NewEmptyDocument(policy.StripTags(req.Title))
	doc.Metadata.AuthorID = authorID
	doc.Metadata.Tags = req.Tags
	if req.Language != "" {
		doc.Metadata.Language = req.Language
	}
	for _, sec := range req.Sections {
		sec = sec.Clone()
		if sec.ID == "" {
			sec.ID = edtypes.NewID()
		}
		sec.Type = edtypes.NodeSection
		sec.Title = policy.StripTags(sec.Title)
		if sec.Blocks == nil {
			sec.Blocks = []edtypes.Block{}
		}
		for i := range sec.Blocks {
			if sec.Blocks[i].ID == "" {
				sec.Blocks[i].ID = edtypes.NewID()
			}
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc
}

type CommandRequest struct {
	Type    commands.CommandType `json:"type" validate:"required"`
	Payload json.RawMessage      `json:"payload"`
}

type SurfaceRequest struct {
	Html     string `json:"html"`
	Debounce bool   `json:"debounce"`
}

type CreateVersionRequest struct {
	Comment string `json:"comment" validate:"max=500"`
}

// withAuthor подставляет автора версии из запроса, если клиент его не указал.
func withAuthor(payload json.RawMessage, author string) json.RawMessage {
	if author == "" {
		return payload
	}
	p := map[string]any{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return payload
		}
	}
	if v, _ := p["authorId"].(string); v != "" {
		return payload
	}
	p["authorId"] = author
	res, err := json.Marshal(p)
	if err != nil {
		return payload
	}
	return res
}

// bindRequest разбирает тело запроса и проверяет его валидатором.
func bindRequest(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apierrors.ErrRequestBody.WithFormattedMessage(err.Error())
	}
	if err := c.Validate(req); err != nil {
		return apierrors.ErrRequestBody.WithFormattedMessage(err.Error())
	}
	return nil
}

// extractPage читает offset и limit из строки запроса.
func extractPage(c echo.Context) (offset int, limit int, err error) {
	offset = 0
	limit = defaultPageLimit
	if err := echo.QueryParamsBinder(c).
		Int("offset", &offset).
		Int("limit", &limit).BindError(); err != nil {
		return 0, 0, apierrors.ErrInvalidPageParam.WithFormattedMessage(err.Error())
	}
	if offset < 0 {
		return 0, 0, apierrors.ErrInvalidPageParam.WithFormattedMessage("offset")
	}
	if limit <= 0 || limit > maxPageLimit {
		return 0, 0, apierrors.ErrInvalidPageParam.WithFormattedMessage("limit")
	}
	return offset, limit, nil
}

// userID автор изменений из заголовка запроса. Аутентификация выполняется перед сервисом.
func userID(c echo.Context) string {
	return c.Request().Header.Get(userHeader)
}
