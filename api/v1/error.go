package v1

var (
	ErrSuccess             = newError(0, "Success")
	ErrBadRequest          = newError(400, "InvalidParam")
	ErrForbidden           = newError(403, "Forbidden")
	ErrUnsupportedLanguage = newError(422, "UnsupportedLanguage")
	ErrInternalServerError = newError(500, "InternalServerError")
)
