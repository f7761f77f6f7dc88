package conversation

import "errors"

var (
	// ErrEmptyConversation — в диалоге нет ни одного сообщения, кроме системного.
	ErrEmptyConversation = errors.New("conversation has no messages besides the system one")
	// ErrSystemMessage — системное сообщение задаётся только при создании.
	ErrSystemMessage = errors.New("system message is fixed at construction")
)

// Conversation — упорядоченный журнал сообщений ограниченного размера.
// Первым всегда идёт системное сообщение, оно не вытесняется и не учитывается в лимите.
// Остальных сообщений хранится не больше maxSize, при переполнении удаляется самое старое.
// Синхронизацию обеспечивает владелец (сессия).
type Conversation struct {
	system   Message
	maxSize  int
	messages []Message
}

// New создаёт диалог с системным сообщением. Отрицательный maxSize считается нулём.
func New(system Message, maxSize int) *Conversation {
	if maxSize < 0 {
		maxSize = 0
	}
	if system.IsZero() {
		system = System("")
	}
	return &Conversation{system: system, maxSize: maxSize, messages: make([]Message, 0, min(maxSize+1, 64))}
}

// Add добавляет сообщение в конец, при переполнении удаляет самое старое.
func (c *Conversation) Add(msg Message) error {
	if msg.Role() == RoleSystem {
		return ErrSystemMessage
	}
	if !msg.Role().Valid() {
		return errors.New("message has no role")
	}
	c.messages = append(c.messages, msg)
	if over := len(c.messages) - c.maxSize; over > 0 {
		// сдвигаем на месте, чтобы не держать хвост старого массива
		n := copy(c.messages, c.messages[over:])
		clear(c.messages[n:])
		c.messages = c.messages[:n]
	}
	return nil
}

// Last возвращает последнее добавленное сообщение.
func (c *Conversation) Last() (Message, error) {
	if len(c.messages) == 0 {
		return Message{}, ErrEmptyConversation
	}
	return c.messages[len(c.messages)-1], nil
}

// Messages возвращает копию: системное сообщение и история по порядку.
// Именно это уходит в модель.
func (c *Conversation) Messages() []Message {
	out := make([]Message, 0, len(c.messages)+1)
	out = append(out, c.system)
	return append(out, c.messages...)
}

// History возвращает копию сообщений без системного.
func (c *Conversation) History() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) System() Message { return c.system }

// Len — количество сообщений без системного.
func (c *Conversation) Len() int { return len(c.messages) }

func (c *Conversation) MaxSize() int { return c.maxSize }
