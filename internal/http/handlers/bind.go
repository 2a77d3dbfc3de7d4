package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// fieldLabels are the names the forms show next to each input.
var fieldLabels = map[string]string{
	"username":   "Usuário",
	"password":   "Senha",
	"setor":      "Setor",
	"descricao":  "Descrição",
	"prioridade": "Prioridade",
	"status":     "Status",
}

// Bind decodes a form or JSON body according to Content-Type and runs the
// binding validators. On failure it writes a 400 whose message is the first
// problem found, with every field problem under details.fields.
func Bind(ctx *gin.Context, out any) bool {
	if err := ctx.ShouldBind(out); err != nil {
		msg, details := describeBindError(err, out)
		RespondBadRequest(ctx, msg, details)
		return false
	}

	return true
}

func describeBindError(err error, out any) (string, gin.H) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		t := structType(out)
		fields := make([]FieldError, 0, len(verrs))

		for _, fe := range verrs {
			name := wireName(t, fe.StructField())
			fields = append(fields, FieldError{
				Field:   name,
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: fieldMessage(name, fe.Tag(), fe.Param()),
			})
		}

		msg := "Dados inválidos."
		if len(fields) > 0 {
			msg = fields[0].Message
		}
		return msg, gin.H{"fields": fields}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		name := strings.TrimSpace(typeErr.Field)
		fe := FieldError{Field: name, Rule: "type", Message: fieldMessage(name, "type", "")}

		return fe.Message, gin.H{
			"json":   "invalid_json_type",
			"field":  name,
			"fields": []FieldError{fe},
		}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return "Corpo da requisição inválido.", gin.H{"json": "invalid_json_syntax"}
	}

	return "Dados inválidos.", gin.H{"reason": err.Error()}
}

func structType(v any) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

// wireName maps a Go field to the name the client sent, preferring the json
// tag and then the form tag. Request structs are flat.
func wireName(t reflect.Type, field string) string {
	if t == nil {
		return field
	}

	sf, ok := t.FieldByName(field)
	if !ok {
		return field
	}

	for _, key := range []string{"json", "form"} {
		name, _, _ := strings.Cut(sf.Tag.Get(key), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return field
}

func fieldMessage(name, rule, param string) string {
	label, ok := fieldLabels[name]
	if !ok {
		label = name
	}

	switch rule {
	case "required":
		return fmt.Sprintf("Campo %s é obrigatório.", label)
	case "min":
		return fmt.Sprintf("Campo %s deve ter pelo menos %s caracteres.", label, param)
	case "max":
		return fmt.Sprintf("Campo %s deve ter no máximo %s caracteres.", label, param)
	case "type":
		return fmt.Sprintf("Campo %s tem um tipo inválido.", label)
	default:
		return fmt.Sprintf("Campo %s é inválido.", label)
	}
}
