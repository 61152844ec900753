package participants

import "errors"

var (
	ErrNotFound        = errors.New("participant not found")
	ErrConsentRequired = errors.New("informed consent is required")
)
