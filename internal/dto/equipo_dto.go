package dto

type GuardarModeloRequest struct {
	Tipo   string `json:"tipo"   validate:"required,max=60"`
	Marca  string `json:"marca"  validate:"required,max=60"`
	Modelo string `json:"modelo" validate:"required,max=120"`
}

type ModeloResponse struct {
	ID          string `json:"id"`
	Tipo        string `json:"tipo"`
	Marca       string `json:"marca"`
	Modelo      string `json:"modelo"`
	Descripcion string `json:"descripcion"`
}
