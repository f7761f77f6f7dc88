package models

import (
	"errors"
	"slices"
	"strings"
)

// DefaultDenylist — модели провайдера, с которыми приложение не работает.
var DefaultDenylist = []string{
	"llama3-70b-8192",
	"llama3.2-90b-text-preview",
	"mixtral-8x7b-32768",
	"llava-v1.5-7b-4096-preview",
	"llama-guard-3-8b",
}

// ErrNoAllowedModels — после фильтрации не осталось ни одной модели.
var ErrNoAllowedModels = errors.New("no allowed models")

// Set — множество идентификаторов моделей.
type Set map[string]struct{}

// NewSet создаёт множество, пустые и пробельные идентификаторы пропускаются.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Len() int { return len(s) }

// Sorted возвращает идентификаторы в стабильном порядке для вывода.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Filter возвращает advertised без denylist. Входные множества не меняются.
func Filter(advertised, denylist Set) Set {
	out := make(Set, len(advertised))
	for id := range advertised {
		if !denylist.Contains(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Select выбирает модель сессии: preferred, если она разрешена,
// иначе первую разрешённую по алфавиту.
func Select(allowed Set, preferred string) (string, error) {
	if allowed.Len() == 0 {
		return "", ErrNoAllowedModels
	}
	if allowed.Contains(preferred) {
		return preferred, nil
	}
	return allowed.Sorted()[0], nil
}
