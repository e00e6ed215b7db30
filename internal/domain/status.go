package domain

import "time"

type StatusKind string

const (
	StatusIdle          StatusKind = "idle"
	StatusPending       StatusKind = "pending"
	StatusError         StatusKind = "error"
	StatusQuotaExceeded StatusKind = "quota_exceeded"
)

// Status es el estado visible de la conversacion. Solo una variante esta activa.
type Status struct {
	Kind   StatusKind `json:"kind"`
	Reason string     `json:"reason,omitempty"`

	// Cause guarda el error original para logs y diagnostico; nunca se muestra al usuario.
	Cause      error         `json:"-"`
	Since      time.Time     `json:"since"`
	DisplayFor time.Duration `json:"display_for,omitempty"`
}

func IdleStatus(now time.Time) Status {
	return Status{Kind: StatusIdle, Since: now}
}

// Visible indica si el estado debe mostrarse en now. Un Error con DisplayFor cero no expira.
func (s Status) Visible(now time.Time) bool {
	switch s.Kind {
	case StatusPending, StatusQuotaExceeded:
		return true
	case StatusError:
		if s.DisplayFor <= 0 {
			return true
		}
		return now.Before(s.Since.Add(s.DisplayFor))
	default:
		return false
	}
}
