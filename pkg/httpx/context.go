package httpx

type ctxKey string

const (
	CtxKeyUserID  ctxKey = "user_id"
	CtxKeyRole    ctxKey = "role"
	CtxKeySession ctxKey = "session_token"
)
