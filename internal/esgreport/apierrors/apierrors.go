// Пакет содержит определения ошибок API редактора отчетов. Каждая ошибка имеет код, статус HTTP и описание,
// что позволяет одинаково обрабатывать ошибки хранилища, сеансов редактирования и HTTP слоя.
//
// Основные возможности:
//   - Ошибки документов, версий, команд редактора и запросов.
//   - Коды ошибок, соответствующие кодам HTTP статусов.
//   - Форматирование сообщений с аргументами.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал и для отформатированных копий.
func (e DefinedError) Is(target error) bool {
	var t DefinedError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	// 1*** - document errors
	ErrDocumentNotFound    = DefinedError{Code: 1001, StatusCode: http.StatusNotFound, Err: "document not found", RuErr: "Документ не найден"}
	ErrDocumentTitleEmpty  = DefinedError{Code: 1002, StatusCode: http.StatusBadRequest, Err: "document title is required", RuErr: "Название документа не может быть пустым"}
	ErrDocumentInvalid     = DefinedError{Code: 1003, StatusCode: http.StatusBadRequest, Err: "invalid document: %s", RuErr: "Некорректный документ: %s"}
	ErrDocumentIDMismatch  = DefinedError{Code: 1004, StatusCode: http.StatusBadRequest, Err: "document id does not match url", RuErr: "ID документа не совпадает с адресом запроса"}
	ErrDocumentSaveFailed  = DefinedError{Code: 1005, StatusCode: http.StatusInternalServerError, Err: "failed to save document", RuErr: "Не удалось сохранить документ"}
	ErrSectionNotFound     = DefinedError{Code: 1006, StatusCode: http.StatusNotFound, Err: "section not found", RuErr: "Раздел не найден"}
	ErrBlockNotFound       = DefinedError{Code: 1007, StatusCode: http.StatusNotFound, Err: "block not found", RuErr: "Блок не найден"}
	ErrBlockNotInlineBased = DefinedError{Code: 1008, StatusCode: http.StatusBadRequest, Err: "block has no inline content", RuErr: "Блок не содержит текстовых фрагментов"}

	// 2*** - version errors
	ErrVersionNotFound      = DefinedError{Code: 2001, StatusCode: http.StatusNotFound, Err: "version not found", RuErr: "Версия не найдена"}
	ErrDeleteLatestVersion  = DefinedError{Code: 2002, StatusCode: http.StatusConflict, Err: "cannot delete the latest version", RuErr: "Нельзя удалить последнюю версию документа"}
	ErrVersionCommentLength = DefinedError{Code: 2003, StatusCode: http.StatusBadRequest, Err: "version comment exceeds 500 characters", RuErr: "Комментарий к версии длиннее 500 символов"}
	ErrVersionForbidden     = DefinedError{Code: 2004, StatusCode: http.StatusForbidden, Err: "version belongs to another author", RuErr: "Версия создана другим автором"}

	// 3*** - editor errors
	ErrUnknownCommand   = DefinedError{Code: 3001, StatusCode: http.StatusBadRequest, Err: "unknown command type %s", RuErr: "Неизвестный тип команды %s"}
	ErrInvalidCommand   = DefinedError{Code: 3002, StatusCode: http.StatusBadRequest, Err: "invalid command payload: %s", RuErr: "Некорректные параметры команды: %s"}
	ErrCommandFailed    = DefinedError{Code: 3003, StatusCode: http.StatusUnprocessableEntity, Err: "command failed: %s", RuErr: "Не удалось выполнить команду: %s"}
	ErrNothingToUndo    = DefinedError{Code: 3004, StatusCode: http.StatusConflict, Err: "nothing to undo", RuErr: "Нет изменений для отмены"}
	ErrNothingToRedo    = DefinedError{Code: 3005, StatusCode: http.StatusConflict, Err: "nothing to redo", RuErr: "Нет изменений для повтора"}
	ErrSessionNotOpened = DefinedError{Code: 3006, StatusCode: http.StatusConflict, Err: "editing session is not opened", RuErr: "Сеанс редактирования не открыт"}

	// 5*** - common errors
	ErrGeneric          = DefinedError{Code: 5000, StatusCode: http.StatusBadRequest, Err: "Something went wrong. Please try again later or contact the support team.", RuErr: "Что-то пошло не так. Повторите попытку позже или обратитесь в службу поддержки"}
	ErrInvalidID        = DefinedError{Code: 5001, StatusCode: http.StatusBadRequest, Err: "invalid ID", RuErr: "Указан неверный ID"}
	ErrRequestBody      = DefinedError{Code: 5002, StatusCode: http.StatusBadRequest, Err: "invalid request body: %s", RuErr: "Некорректное тело запроса: %s"}
	ErrEntityToLarge    = DefinedError{Code: 5003, StatusCode: http.StatusRequestEntityTooLarge, Err: "size exceeds the allowed limit", RuErr: "Размер запроса превышает допустимый."}
	ErrInvalidPageParam = DefinedError{Code: 5004, StatusCode: http.StatusBadRequest, Err: "invalid pagination parameter %s", RuErr: "Некорректный параметр страницы %s"}
)

func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.Replace(e.Err, "%s", "", -1)
		e.RuErr = strings.Replace(e.RuErr, "%s", "", -1)
	}
	return e
}
