// Вспомогательные функции для работы с множествами и последовательностями, которыми пользуются пакеты редактора.
//
// Основные возможности:
//   - Преобразование слайсов в множества (map[T]struct{}).
//   - Проверка наличия элементов в множестве.
//   - Преобразование слайсов в слайсы другого типа с применением функции.
//   - Фильтрация и сбор последовательностей iter.Seq.
//   - Подбор уникального имени с числовым суффиксом.
package utils

import (
	"iter"
	"strconv"
)

func SliceToSet[T comparable](ids []T) map[T]struct{} {
	res := make(map[T]struct{}, len(ids))
	for _, id := range ids {
		res[id] = struct{}{}
	}
	return res
}

func CheckInSet[T comparable](set map[T]struct{}, all ...T) bool {
	for _, el := range all {
		if _, ok := set[el]; ok {
			return true
		}
	}
	return false
}

func SliceToSlice[T any, U any](in []T, f func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}

func Filter[T any](seq iter.Seq[T], by func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := range seq {
			if by(i) {
				if !yield(i) {
					return
				}
			}
		}
	}
}

func All[T any](res []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := range res {
			if !yield(res[i]) {
				return
			}
		}
	}
}

func Collect[T any](seq iter.Seq[T]) []T {
	var out []T
	for val := range seq {
		out = append(out, val)
	}
	return out
}

// UniqueName возвращает base, если его нет в taken, иначе base-2, base-3 и так далее.
func UniqueName(base string, taken map[string]struct{}) string {
	if !CheckInSet(taken, base) {
		return base
	}
	for i := 2; ; i++ {
		name := base + "-" + strconv.Itoa(i)
		if !CheckInSet(taken, name) {
			return name
		}
	}
}
