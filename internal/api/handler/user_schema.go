package handler

// Password bounds follow the account policy: long passphrases, not complexity
// rules.
type createUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=128"`
	Role     string `json:"role"     validate:"required,oneof=admin coach user"`
}

type updateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email"    validate:"required,email"`
	// Password is optional on update; empty keeps the stored hash.
	Password string `json:"password,omitempty" validate:"omitempty,min=12,max=128"`
	Role     string `json:"role"     validate:"required,oneof=admin coach user"`
}

type loginRequest struct {
	// Identifier is a username or an email address.
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password"   validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type tokenStatusResponse struct {
	Subject    string `json:"subject"`
	IssuedAt   string `json:"issued_at"`
	ExpiresAt  string `json:"expires_at"`
	RenewalDue bool   `json:"renewal_due"`
	Token      string `json:"token,omitempty"`
}

// unauthorizedResponse carries the roles the actor is allowed to grant, so a
// client can present the permitted alternatives after a policy denial.
type unauthorizedResponse struct {
	Error          string   `json:"error"`
	GrantableRoles []string `json:"grantable_roles,omitempty"`
}
