package domain

import "time"

// Session es la unidad de continuidad y cuota entre cliente y backend.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// QueryLimit es la cantidad maxima de consultas aceptadas por sesion.
const QueryLimit = 20

// QueryCounter cuenta las consultas aceptadas en la sesion actual.
type QueryCounter struct {
	Count int `json:"count"`
	Limit int `json:"limit"`
}

func NewQueryCounter() QueryCounter {
	return QueryCounter{Limit: QueryLimit}
}

// Exhausted indica que no se aceptan mas consultas hasta un reset.
func (c QueryCounter) Exhausted() bool {
	return c.Count >= c.Limit
}
