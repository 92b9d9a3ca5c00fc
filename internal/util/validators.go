package util

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// ValidateNotBlank 验证字符串去除空白后非空
func ValidateNotBlank(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(s) != ""
}

// ValidateContentLength 验证内容长度不超过 5000 个字符
func ValidateContentLength(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return utf8.RuneCountInString(s) <= 5000
}
