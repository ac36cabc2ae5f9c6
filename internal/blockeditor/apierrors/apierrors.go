// Пакет содержит определения ошибок блочного редактора. Каждая ошибка имеет код и описание на английском
// и русском языках, что позволяет хосту показывать пользователю понятное сообщение.
//
// Основные возможности:
//   - Ошибки поиска: неизвестная команда, нет описания пользовательского блока, блок не найден.
//   - Ошибки выполнения: команда уже выполняется, не удалось отрисовать вставку.
//   - Ошибки конфигурации.
//   - Сравнение через errors.Is по коду ошибки, в том числе после форматирования сообщения.
package apierrors

import (
	"fmt"
	"strings"
)

type DefinedError struct {
	Code  int    `json:"code"`
	Err   string `json:"error"`
	RuErr string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

// Is сравнивает ошибки по коду.
func (e DefinedError) Is(target error) bool {
	t, ok := target.(DefinedError)
	return ok && t.Code == e.Code
}

var (
	// 5*** - editor errors
	ErrUnknownCommand    = DefinedError{Code: 5001, Err: "unknown command %s", RuErr: "Неизвестная команда %s"}
	ErrNoDescriptor      = DefinedError{Code: 5002, Err: "no descriptor for block type %s", RuErr: "Тип блока %s не зарегистрирован"}
	ErrCommandInProgress = DefinedError{Code: 5003, Err: "another command is in progress", RuErr: "Предыдущая команда еще выполняется"}
	ErrRenderFailed      = DefinedError{Code: 5004, Err: "failed to render block %s", RuErr: "Не удалось отобразить блок %s"}
	ErrBlockNotFound     = DefinedError{Code: 5005, Err: "block %s not found", RuErr: "Блок %s не найден"}

	// 6*** - config errors
	ErrConfigFile = DefinedError{Code: 6001, Err: "invalid config file %s", RuErr: "Некорректный файл конфигурации %s"}
)

func (e DefinedError) WithFormattedMessage(args ...any) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.ReplaceAll(e.Err, " %s", "")
		e.RuErr = strings.ReplaceAll(e.RuErr, " %s", "")
	}
	return e
}
