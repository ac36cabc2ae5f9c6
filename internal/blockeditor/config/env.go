package config

import (
	"os"
	"strconv"
)

// Exist - возвращает true, если переменная окружения key существует, иначе false
func Exist(key string) bool {
	_, exist := os.LookupEnv(key)
	return exist
}

// GetEnv - возвращает содержимое строковой переменной окружения.
func GetEnv(key string) string {
	val, _ := os.LookupEnv(key)
	return val
}

// GetIntEnv - возвращает содержимое числовой переменной окружения. ok == false, если переменной нет или она не число
func GetIntEnv(key string) (int, bool) {
	val, exist := os.LookupEnv(key)
	if !exist {
		return 0, false
	}
	v, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return v, true
}

// GetBoolEnv - возвращает содержимое логической переменной окружения. Если возникла ошибка при обработке, возвращается false
func GetBoolEnv(key string) bool {
	val, _ := os.LookupEnv(key)
	v, err := strconv.ParseBool(val)
	if err != nil {
		return false
	}
	return v
}
