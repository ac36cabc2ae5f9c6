// Пакет содержит стандартные описания пользовательских вставок: таблица, изображение,
// табличный снимок и ссылка на другой документ.
//
// Основные возможности:
//   - Отрисовка вставки по полезной нагрузке; нагрузка принимается как готовая структура, map или JSON.
//   - Восстановление полезной нагрузки из разметки документа (parse), чтобы устаревшие данные перезаписывались.
//   - Проверка размеров таблицы и адресов изображений.
package blocks

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	"golang.org/x/net/html"
)

const (
	TypeTable    = "table"
	TypeImage    = "image"
	TypeSnapshot = "snapshot"
	TypeDocLink  = "doclink"

	MaxTableSize   = 50
	DefaultDocBase = "/docs/"
)

var (
	ErrInvalidPayload = errors.New("invalid custom block payload")
	ErrNoContent      = errors.New("custom block content not found")
)

// Defaults возвращает реестр стандартных вставок. docBase - префикс адреса документа для ссылок.
func Defaults(docBase string) map[string]edtypes.CustomBlockDescriptor {
	return map[string]edtypes.CustomBlockDescriptor{
		TypeTable:    TableDescriptor(),
		TypeImage:    ImageDescriptor(),
		TypeSnapshot: SnapshotDescriptor(),
		TypeDocLink:  DocLinkDescriptor(docBase),
	}
}

// decode приводит полезную нагрузку к типу T. Поддерживаются сам T, указатель на него,
// JSON (строкой, []byte или json.RawMessage) и любые значения, сериализуемые в JSON.
func decode[T any](payload any) (T, error) {
	var v T
	if p, ok := payload.(T); ok {
		return p, nil
	}
	if p, ok := payload.(*T); ok && p != nil {
		return *p, nil
	}

	var raw []byte
	switch p := payload.(type) {
	case nil:
		return v, edtypes.ErrEmptyPayload
	case json.RawMessage:
		raw = p
	case []byte:
		raw = p
	case string:
		raw = []byte(p)
	default:
		var err error
		if raw, err = json.Marshal(p); err != nil {
			return v, err
		}
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}

func render(n *html.Node) string {
	return dom.Render(n)
}

func isTag(tags ...string) func(n *html.Node) bool {
	return func(n *html.Node) bool { return dom.IsElement(n, tags...) }
}

func atoi(s string) int {
	v, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	return v
}

// parseStyles разбирает значение атрибута style на пары ключ-значение.
func parseStyles(raw string) []html.Attribute {
	var res []html.Attribute
	for _, styleRaw := range strings.Split(raw, ";") {
		key, val, ok := strings.Cut(styleRaw, ":")
		if !ok {
			continue
		}
		res = append(res, html.Attribute{Key: strings.TrimSpace(key), Val: strings.TrimSpace(val)})
	}
	return res
}
