package session

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput — пустой ввод пользователя, в диалог ничего не добавляется.
	ErrEmptyInput = errors.New("empty user input")
	// ErrModelInvocation — признак ошибки вызова модели для errors.Is.
	ErrModelInvocation = errors.New("model invocation failed")
)

// FailedTurnText показывается пользователю вместо ответа при ошибке модели.
// Причина ошибки остаётся только в логе.
const FailedTurnText = "the assistant could not answer this time, please try again"

// InvocationError оборачивает любую ошибку вызова модели: сеть, авторизация, квоты.
// Реплика пользователя при этом остаётся в диалоге.
type InvocationError struct {
	Model string
	Cause error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("model invocation failed (%s): %v", e.Model, e.Cause)
}

func (e *InvocationError) Unwrap() error { return e.Cause }

func (e *InvocationError) Is(target error) bool { return target == ErrModelInvocation }
