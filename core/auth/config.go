package auth

// Endpoints are the backend paths relative to the API base URL.
type Endpoints struct {
	Login  string `env:"AUTH_LOGIN_PATH" envDefault:"auth/login"`
	Signup string `env:"AUTH_SIGNUP_PATH" envDefault:"auth/signup"`
	Me     string `env:"AUTH_ME_PATH" envDefault:"auth/me"`
}

// DefaultEndpoints returns the standard paths.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:  "auth/login",
		Signup: "auth/signup",
		Me:     "auth/me",
	}
}

func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	if e.Login == "" {
		e.Login = d.Login
	}
	if e.Signup == "" {
		e.Signup = d.Signup
	}
	if e.Me == "" {
		e.Me = d.Me
	}
	return e
}
