package validate

var roles = []string{"user", "admin"}

var (
	nameField          = Field{Name: "name", MinLen: 1}
	emailField         = Field{Name: "email", Format: FormatEmail}
	passwordField      = Field{Name: "password", MinLen: 6, MaxLen: 100}
	roleField          = Field{Name: "role", OneOf: roles}
	requiredName       = required(nameField)
	requiredEmail      = required(emailField)
	requiredPassword   = required(passwordField)
	currentPassword    = Field{Name: "currentPassword", Label: "Current password", Required: true}
	newPassword        = Field{Name: "newPassword", Label: "New password", Required: true, MinLen: 6, MaxLen: 100}
	loginPasswordField = Field{Name: "password", Required: true}
)

// Register validates POST /auth/register.
var Register = Schema{requiredName, requiredEmail, requiredPassword}

// Login validates POST /auth/login.
var Login = Schema{requiredEmail, loginPasswordField}

// UpdateProfile validates PUT /auth/profile. Every field is optional.
var UpdateProfile = Schema{nameField, emailField, passwordField}

// ChangePassword validates PUT /auth/password.
var ChangePassword = Schema{currentPassword, newPassword}

// AdminCreateUser validates POST /users.
var AdminCreateUser = Schema{requiredName, requiredEmail, requiredPassword, roleField}

// AdminUpdateUser validates PUT /users/{id}.
var AdminUpdateUser = Schema{nameField, emailField, passwordField, roleField}

func required(f Field) Field {
	f.Required = true
	return f
}
