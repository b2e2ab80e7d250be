package config

import (
	"os"
	"strconv"
	"strings"
)

// Exist - возвращает true, если переменная окружения key задана
func Exist(key string) bool {
	if key == "" {
		return false
	}
	_, exist := os.LookupEnv(key)
	return exist
}

func GetEnv(key string) string {
	val, _ := os.LookupEnv(key)
	return strings.TrimSpace(val)
}

// GetIntEnv - возвращает числовое значение переменной или 0, если его не удалось разобрать
func GetIntEnv(key string) int {
	v, err := strconv.Atoi(GetEnv(key))
	if err != nil {
		return 0
	}
	return v
}

func GetBoolEnv(key string) bool {
	v, err := strconv.ParseBool(GetEnv(key))
	if err != nil {
		return false
	}
	return v
}
