package services

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// buildObjectKey собирает ключ объекта в хранилище: prefix/<uuid><ext>.
// Расширение берётся из исходного имени файла, имя заменяется, чтобы
// не тащить пользовательский ввод в ключи.
func buildObjectKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return prefix + "/" + uuid.NewString() + ext
}
