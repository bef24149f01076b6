package response

const (
	CodeOK           = 0
	CodeBadRequest   = 400
	CodeUnauthorized = 401
	CodeNotFound     = 404
	CodeUpstream     = 502
	CodeInternal     = 500
)
