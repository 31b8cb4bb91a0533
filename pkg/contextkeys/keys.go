package contextkeys

type contextKey string

const (
	UserIDKey    contextKey = "UserID"
	ActorKey     contextKey = "Actor"
	ClientIPKey  contextKey = "ClientIP"
	RequestIDKey contextKey = "RequestID"
)
