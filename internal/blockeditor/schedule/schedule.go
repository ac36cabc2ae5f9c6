// Пакет реализует отложенные задачи редактора с ключами и отменой.
//
// Основные возможности:
//   - Повторное планирование задачи с тем же ключом заменяет предыдущую (debounce).
//   - Отмена задачи по ключу или всех задач с общим префиксом (например, при закрытии редактора).
//   - Manual - планировщик с виртуальным временем для тестов: задачи выполняются в Advance в порядке срока.
//   - Loop - цикл событий реального времени: таймеры кладут задачи в очередь, Run выполняет их по одной.
package schedule

import "time"

// Scheduler планирует отложенные задачи. Задачи одного планировщика никогда не выполняются параллельно.
type Scheduler interface {
	Schedule(key string, delay time.Duration, fn func())
	Cancel(key string)
	CancelPrefix(prefix string)
}
