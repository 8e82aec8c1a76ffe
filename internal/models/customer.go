package models

type Customer struct {
	ID             int64  `json:"id"`
	Nombre         string `json:"nombre"`
	Apellido       string `json:"apellido"`
	NombreCompleto string `json:"nombreCompleto"`
	Email          string `json:"email"`
	Telefono       string `json:"telefono"`
	Direccion      string `json:"direccion,omitempty"`
	TotalTickets   int    `json:"totalTickets"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

type CustomerInput struct {
	Nombre    string `json:"nombre"`
	Apellido  string `json:"apellido"`
	Email     string `json:"email"`
	Telefono  string `json:"telefono"`
	Direccion string `json:"direccion,omitempty"`
}

type CustomerSummary struct {
	ID             int64  `json:"id,omitempty"`
	Nombre         string `json:"nombre,omitempty"`
	Apellido       string `json:"apellido,omitempty"`
	NombreCompleto string `json:"nombreCompleto"`
	Email          string `json:"email,omitempty"`
	Telefono       string `json:"telefono,omitempty"`
}
