package auth

// Session is the client-side view of the signed-in actor, derived from
// the configured bearer token. It is read-only; token storage and
// refresh live outside this module.
type Session struct {
	Token  string
	Claims *Claims
}

func NewSession(token string) (*Session, error) {
	if token == "" {
		return &Session{}, nil
	}
	claims, err := PeekClaims(token)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Claims: claims}, nil
}

func (s *Session) UserID() int64 {
	if s == nil || s.Claims == nil {
		return 0
	}
	return s.Claims.UserID
}

func (s *Session) PrimaryRole() string {
	if s == nil || s.Claims == nil {
		return ""
	}
	return s.Claims.PrimaryRole
}

// IsSuperAdmin gates the role-management surface. Any other Admin sees
// platform metrics only.
func (s *Session) IsSuperAdmin() bool {
	return s != nil && s.Claims != nil && s.Claims.IsSuperAdmin
}
