package recaptcha

import (
	"context"
	"errors"
)

// ActionSubmit es la accion con la que se firman los tokens de cada consulta.
const ActionSubmit = "submit"

// ErrVerificationUnavailable indica que no se pudo obtener un token de verificacion.
var ErrVerificationUnavailable = errors.New("verification unavailable")

// TokenProvider entrega un token de un solo uso ligado a una accion.
// Nunca debe cachear ni reutilizar tokens.
type TokenProvider interface {
	AcquireToken(ctx context.Context, action string) (string, error)
}

type disabledProvider struct {
	reason string
}

// NewDisabledProvider devuelve un provider que siempre falla; sirve cuando la verificacion no esta configurada.
func NewDisabledProvider(reason string) TokenProvider {
	return &disabledProvider{reason: reason}
}

func (p *disabledProvider) AcquireToken(_ context.Context, _ string) (string, error) {
	if p.reason == "" {
		return "", ErrVerificationUnavailable
	}
	return "", errors.Join(ErrVerificationUnavailable, errors.New(p.reason))
}
