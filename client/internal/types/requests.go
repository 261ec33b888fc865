package types

// LoginRequest is sent to the auth endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegistrationData is what the sign-up screen collects.
type RegistrationData struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"omitempty,oneof=client artisan admin"`
}

// RegisterRequest is the wire shape of an account creation.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// AuthUser is the user record returned by the auth endpoint.
// Every field is optional; missing ones are defaulted by the session store.
type AuthUser struct {
	ID         any            `json:"id"`
	Username   string         `json:"username"`
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Email      string         `json:"email"`
	Phone      string         `json:"phone"`
	Role       Role           `json:"role"`
	IsVerified *bool          `json:"is_verified"`
	TrustScore *float64       `json:"trust_score"`
	KYCStatus  string         `json:"kyc_status"`
	CreatedAt  string         `json:"created_at"`
	Profile    map[string]any `json:"profile"`
	Wallet     map[string]any `json:"wallet"`
	Token      string         `json:"token"`
}

// NewConversation describes the mission a conversation is opened for.
type NewConversation struct {
	MissionID    string `validate:"required"`
	MissionTitle string
	ClientID     string `validate:"required"`
	ClientName   string
	ArtisanID    string `validate:"required"`
	ArtisanName  string
}

// CreateTicketRequest holds parameters for a new support ticket.
type CreateTicketRequest struct {
	UserID      string         `json:"userId" validate:"required"`
	MissionID   string         `json:"missionId,omitempty"`
	Subject     string         `json:"subject" validate:"required"`
	Description string         `json:"description" validate:"required"`
	Priority    TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Category    string         `json:"category"`
	Photos      []string       `json:"photos,omitempty"`
}
