package edtypes

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

var (
	ErrEmptyPayload     = errors.New("custom block has no payload")
	ErrMalformedPayload = errors.New("custom block payload is not valid json")
)

// CustomBlockInfo описывает одну пользовательскую вставку документа.
// Payload равен nil, если данных нет или их не удалось декодировать.
type CustomBlockInfo struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EncodePayload кодирует структурированное значение в непрозрачную строку для атрибута data-block-payload.
func EncodePayload(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodePayload выполняет обратное преобразование и проверяет, что внутри корректный JSON.
func DecodePayload(encoded string) (json.RawMessage, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, ErrMalformedPayload
	}
	return json.RawMessage(raw), nil
}

// DecodePayloadInto декодирует полезную нагрузку вставки в значение нужного типа.
func DecodePayloadInto[T any](info CustomBlockInfo) (T, error) {
	var v T
	if info.Payload == nil {
		return v, ErrEmptyPayload
	}
	err := json.Unmarshal(info.Payload, &v)
	return v, err
}
