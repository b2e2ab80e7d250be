// DAO (Data Access Object) - хранение отчетов и их версий в базе данных через GORM.
//
// Основные возможности:
//   - Документы отчетов: создание, чтение, список со страницами, сохранение целиком, удаление.
//   - Версии документов: снимок с номером и счетчиками, список, восстановление с автоматической резервной версией.
//   - Удаление версий (кроме последней) и очистка старых автоматических версий.
//   - Реализация commands.VersionSaver для команды SAVE_VERSION.
package dao

import (
	"database/sql/driver"
	"errors"

	"github.com/gofrs/uuid"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/apierrors"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Models все модели для миграции.
var Models = []any{&Document{}, &DocumentVersion{}}

// Migrate создает или обновляет таблицы моделей.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}

// GenUUID генерирует новый идентификатор.
func GenUUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// ParseID разбирает идентификатор из запроса.
func ParseID(id string) (uuid.UUID, error) {
	res, err := uuid.FromString(id)
	if err != nil || res.IsNil() {
		return uuid.Nil, apierrors.ErrInvalidID
	}
	return res, nil
}

// Tags массив строк: text[] в PostgreSQL, текст в формате массива PostgreSQL в остальных СУБД.
type Tags pq.StringArray

func (t Tags) Value() (driver.Value, error) {
	return pq.StringArray(t).Value()
}

func (t *Tags) Scan(src any) error {
	return (*pq.StringArray)(t).Scan(src)
}

func (Tags) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func notFound(err error, defined apierrors.DefinedError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defined
	}
	return err
}

type PaginationResponse[T any] struct {
	Count  int64 `json:"count"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Result []T   `json:"result"`
}

// PaginationRequest считает записи запроса и выбирает одну страницу.
func PaginationRequest[T any](offset int, limit int, query *gorm.DB) (res PaginationResponse[T], err error) {
	var model T
	if err := query.Session(&gorm.Session{}).Model(&model).Count(&res.Count).Error; err != nil {
		return res, err
	}

	res.Result = make([]T, 0)
	if err := query.Offset(offset).Limit(limit).Find(&res.Result).Error; err != nil {
		return res, err
	}
	res.Limit = limit
	res.Offset = offset
	return res, nil
}
