package glint

// SecretForTest returns the generated restart secret.
func (s *Server) SecretForTest() string {
	return s.secret
}

// SetBrowserOpenerForTest replaces the browser opener.
func (s *Server) SetBrowserOpenerForTest(fn func(string) error) {
	s.open = fn
}

// AppURLForTest returns the resolved application URL.
func (s *Server) AppURLForTest() string {
	return s.appURL
}
