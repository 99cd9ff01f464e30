package constant

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	// MinPasswordLength is the floor enforced at registration and password
	// change. The uppercase and digit requirements live in the password
	// policy checks alongside it.
	MinPasswordLength = 8

	DefaultBcryptCost = 12

	// Locals keys set by the auth middleware for downstream handlers.
	LocalsUserID = "user_id"
	LocalsEmail  = "email"
	LocalsRole   = "role"
)
