package worker

const (
	// TypeRojdaar workers are paid a fixed wage per day present.
	TypeRojdaar = "rojdaar"
	// TypeKaragir workers are paid per brick produced.
	TypeKaragir = "karagir"
)

func ValidType(value string) bool {
	return value == TypeRojdaar || value == TypeKaragir
}
