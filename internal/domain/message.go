package domain

import "time"

// Role identifica al autor de un mensaje dentro de la conversacion.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Citation es un extracto que respalda una respuesta del bot.
type Citation struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Message es inmutable una vez agregado al historial.
type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
