package conf

type ContextKey string

// UserKey carries the authenticated *model.User through the request context.
const UserKey ContextKey = "user"
