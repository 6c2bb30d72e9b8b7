package validation

import "fmt"

// messages maps a JSON field and a failed rule to the text shown to the client.
// The "type" rule covers values of the wrong JSON type.
var messages = map[string]map[string]string{
	"name": {
		"required": "El nombre es obligatorio",
		"nonempty": "El nombre no puede estar vacío",
		"min":      "El nombre debe tener al menos 3 caracteres",
		"max":      "El nombre no puede exceder los 100 caracteres",
		"type":     "El nombre debe ser un texto",
	},
	"description": {
		"required": "La descripción es obligatoria",
		"nonempty": "La descripción no puede estar vacía",
		"min":      "La descripción debe tener al menos 5 caracteres",
		"max":      "La descripción no puede exceder los 500 caracteres",
		"type":     "La descripción debe ser un texto",
	},
	"date": {
		"required": "La fecha es obligatoria",
		"gt":       "La fecha debe ser un valor positivo",
		"unixtime": "La fecha debe ser un timestamp en segundos enteros",
		"type":     "La fecha debe ser un número (timestamp)",
	},
	"amount": {
		"required": "El monto es obligatorio",
		"type":     "El monto debe ser un número",
	},
	"type": {
		"required": "El tipo es obligatorio",
		"nonempty": "El tipo no puede estar vacío",
		"oneof":    `El tipo debe ser "income" o "expense"`,
		"type":     "El tipo debe ser un texto",
	},
	"attachment": {
		"type": "El adjunto debe ser un texto",
	},
	"category": {
		"max":  "La categoría no puede exceder los 50 caracteres",
		"type": "La categoría debe ser un texto",
	},
	"email": {
		"required":    "El correo electrónico es obligatorio",
		"emailformat": "Por favor ingrese un correo electrónico válido",
		"type":        "El correo electrónico debe ser un texto",
	},
	"password": {
		"required": "La contraseña es obligatoria",
		"min":      "La contraseña debe tener al menos 6 caracteres",
		"type":     "La contraseña debe ser un texto",
	},
	"confirmPassword": {
		"type": "La confirmación de contraseña debe ser un texto",
	},
	"currentPassword": {
		"required": "La contraseña actual es obligatoria",
		"type":     "La contraseña actual debe ser un texto",
	},
	"newPassword": {
		"required": "La nueva contraseña es obligatoria",
		"min":      "La nueva contraseña debe tener al menos 6 caracteres",
		"type":     "La nueva contraseña debe ser un texto",
	},
	"firstName": {
		"required": "El nombre es obligatorio",
		"nonempty": "El nombre no puede estar vacío",
		"type":     "El nombre debe ser un texto",
	},
	"lastName": {
		"required": "El apellido es obligatorio",
		"nonempty": "El apellido no puede estar vacío",
		"type":     "El apellido debe ser un texto",
	},
	"phone": {
		"required": "El teléfono es obligatorio",
		"nonempty": "El teléfono no puede estar vacío",
		"type":     "El teléfono debe ser un texto",
	},
	"initialMoney": {
		"type": "El dinero inicial debe ser un número válido",
	},
	"profilePicture": {
		"type": "La foto de perfil debe ser un texto",
	},
}

func message(field, rule, param string) string {
	if byRule, ok := messages[field]; ok {
		if msg, ok := byRule[rule]; ok {
			return msg
		}
	}
	switch rule {
	case "required":
		return fmt.Sprintf("El campo %s es obligatorio", field)
	case "type":
		return fmt.Sprintf("El campo %s tiene un tipo inválido", field)
	case "min":
		return fmt.Sprintf("El campo %s debe tener al menos %s caracteres", field, param)
	case "max":
		return fmt.Sprintf("El campo %s no puede exceder los %s caracteres", field, param)
	}
	return fmt.Sprintf("El campo %s no es válido", field)
}
