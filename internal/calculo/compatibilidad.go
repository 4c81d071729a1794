package calculo

import "strings"

// EsCompatible decide si un ítem sirve para el equipo descrito por
// dispositivo ("<marca> <modelo>").
//
// Un servicio sin lista de compatibles aplica a cualquier equipo; un repuesto
// o accesorio sin lista no aplica a ninguno. Con lista, basta que alguna
// entrada contenga al dispositivo o esté contenida en él, sin distinguir
// mayúsculas.
func EsCompatible(esServicio bool, compatibles []string, dispositivo string) bool {
	if len(compatibles) == 0 {
		return esServicio
	}
	d := normalizar(dispositivo)
	if d == "" {
		return false
	}
	for _, c := range compatibles {
		c = normalizar(c)
		if c == "" {
			continue
		}
		if strings.Contains(d, c) || strings.Contains(c, d) {
			return true
		}
	}
	return false
}

func normalizar(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
