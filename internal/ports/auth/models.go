package auth

// Claims representa la identidad que viaja en el token de sesión.
type Claims struct {
	UserID string
	Email  string
}

// Anonymous indica que no hay identidad resuelta.
func (c Claims) Anonymous() bool {
	return c.UserID == ""
}
