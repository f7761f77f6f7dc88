package conversation

import "fmt"

// Role роль автора сообщения.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid сообщает, известна ли роль.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message — неизменяемая реплика диалога. Поля не экспортируются,
// поэтому после создания содержимое поменять нельзя.
type Message struct {
	role    Role
	content string
}

// NewMessage создаёт сообщение с проверкой роли.
func NewMessage(role Role, content string) (Message, error) {
	if !role.Valid() {
		return Message{}, fmt.Errorf("unknown role %q", role)
	}
	return Message{role: role, content: content}, nil
}

func System(content string) Message    { return Message{role: RoleSystem, content: content} }
func User(content string) Message      { return Message{role: RoleUser, content: content} }
func Assistant(content string) Message { return Message{role: RoleAssistant, content: content} }

func (m Message) Role() Role      { return m.role }
func (m Message) Content() string { return m.content }

// IsZero — сообщение не было создано.
func (m Message) IsZero() bool { return m.role == "" }
