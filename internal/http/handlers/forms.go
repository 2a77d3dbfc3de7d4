package handlers

// FormField describes one input of an HTML-style form so clients can render
// it. GET on a form route returns a descriptor instead of a page.
type FormField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type FormDescriptor struct {
	Action string      `json:"action"`
	Method string      `json:"method"`
	Fields []FormField `json:"fields"`
}

var (
	loginForm = FormDescriptor{
		Action: "/login",
		Method: "POST",
		Fields: []FormField{
			{Name: "username", Type: "text", Required: true},
			{Name: "password", Type: "password", Required: true},
		},
	}

	registerForm = FormDescriptor{
		Action: "/register",
		Method: "POST",
		Fields: []FormField{
			{Name: "username", Type: "text", Required: true},
			{Name: "password", Type: "password", Required: true},
		},
	}

	recoverForm = FormDescriptor{
		Action: "/recover_password",
		Method: "POST",
		Fields: []FormField{
			{Name: "username", Type: "text", Required: true},
		},
	}
)

func resetForm(token string) FormDescriptor {
	return FormDescriptor{
		Action: "/reset_password/" + token,
		Method: "POST",
		Fields: []FormField{
			{Name: "password", Type: "password", Required: true},
		},
	}
}
