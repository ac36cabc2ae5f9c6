package edtypes

import "golang.org/x/net/html"

// CustomBlockDescriptor описывает тип пользовательской вставки. Описания принадлежат хосту,
// редактор только ищет их по имени типа.
type CustomBlockDescriptor struct {
	// Render строит разметку вставки по полезной нагрузке. Если корневой элемент разметки помечен
	// data-block, он вставляется как блок как есть, иначе оборачивается в блок-контейнер.
	Render func(payload any) (string, error)
	// Parse восстанавливает полезную нагрузку из узла документа. Может быть nil.
	// Узел принадлежит живому дереву и не должен изменяться.
	Parse func(n *html.Node) (any, error)
	// Inline означает вставку в позицию курсора внутри текущего блока.
	Inline bool
}
