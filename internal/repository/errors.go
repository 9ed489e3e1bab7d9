package repository

import "errors"

// ErrNotFound запись для обновления не найдена
var ErrNotFound = errors.New("запись не найдена")
