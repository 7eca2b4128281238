package models

type AdminRole string
type AdminStatus string

const (
	RoleDefaultUser AdminRole = "default_user"
	RoleSubUser     AdminRole = "sub_user"
)

const (
	AdminActive   AdminStatus = "active"
	AdminInactive AdminStatus = "inactive"
)

// Admin is the profile of the logged in console user.
type Admin struct {
	ID           string      `json:"id" yaml:"id"`
	EmailAddress string      `json:"emailAddress" yaml:"emailAddress"`
	Role         AdminRole   `json:"role" yaml:"role"`
	Status       AdminStatus `json:"status" yaml:"status"`
}

// Credentials are sent to the login and registration endpoints.
type Credentials struct {
	EmailAddress string `json:"emailAddress"`
	Password     string `json:"password"`
}

// LoginResult is the payload of a successful login.
type LoginResult struct {
	Tokens TokenPair `json:"tokens"`
	Admin  Admin     `json:"admin"`
}
