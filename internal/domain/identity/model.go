package identity

// OTPRequest asks the backend to mail a one-time code.
type OTPRequest struct {
	Email string `json:"email"`
}

// OTPVerification exchanges a mailed code for a patient token.
type OTPVerification struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// Credentials sign a staff member in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by the OTP verification and staff sign-in
// endpoints. Roles may be omitted, in which case they are read from the
// token's claims.
type AuthResponse struct {
	Token         string   `json:"token"`
	Roles         []string `json:"roles"`
	Role          string   `json:"role"`
	Email         string   `json:"email"`
	AppointmentID string   `json:"appointmentId"`
	Message       string   `json:"message"`
}

// PasswordChange sets a new password through an emailed link's code.
type PasswordChange struct {
	Code            string `json:"-"`
	Role            string `json:"-"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
}

// Message is the body of the backend's plain acknowledgements.
type Message struct {
	Message string `json:"message"`
}
