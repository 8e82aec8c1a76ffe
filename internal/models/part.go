package models

const (
	StockOut    = "SIN_STOCK"
	StockLow    = "STOCK_BAJO"
	StockNormal = "STOCK_NORMAL"
)

const (
	MovementIn  = "ENTRADA"
	MovementOut = "SALIDA"
)

type Part struct {
	ID                       int64   `json:"id"`
	Codigo                   string  `json:"codigo"`
	Nombre                   string  `json:"nombre"`
	Descripcion              string  `json:"descripcion,omitempty"`
	Categoria                string  `json:"categoria"`
	Marca                    string  `json:"marca,omitempty"`
	Modelo                   string  `json:"modelo,omitempty"`
	Compatibilidad           string  `json:"compatibilidad,omitempty"`
	PrecioCosto              float64 `json:"precioCosto"`
	PrecioVenta              float64 `json:"precioVenta"`
	Stock                    int     `json:"stock"`
	StockMinimo              int     `json:"stockMinimo"`
	Ubicacion                string  `json:"ubicacion,omitempty"`
	Proveedor                string  `json:"proveedor,omitempty"`
	ProveedorTelefono        string  `json:"proveedorTelefono,omitempty"`
	ProveedorEmail           string  `json:"proveedorEmail,omitempty"`
	Notas                    string  `json:"notas,omitempty"`
	Activo                   bool    `json:"activo"`
	NecesitaReabastecimiento bool    `json:"necesitaReabastecimiento"`
	MargenGanancia           float64 `json:"margenGanancia"`
	EstadoStock              string  `json:"estadoStock"`
	CreatedAt                string  `json:"createdAt,omitempty"`
	UpdatedAt                string  `json:"updatedAt,omitempty"`
}

type PartInput struct {
	Codigo            string  `json:"codigo"`
	Nombre            string  `json:"nombre"`
	Descripcion       string  `json:"descripcion,omitempty"`
	Categoria         string  `json:"categoria"`
	Marca             string  `json:"marca,omitempty"`
	Modelo            string  `json:"modelo,omitempty"`
	Compatibilidad    string  `json:"compatibilidad,omitempty"`
	PrecioCosto       float64 `json:"precioCosto"`
	PrecioVenta       float64 `json:"precioVenta"`
	Stock             int     `json:"stock"`
	StockMinimo       int     `json:"stockMinimo"`
	Ubicacion         string  `json:"ubicacion,omitempty"`
	Proveedor         string  `json:"proveedor,omitempty"`
	ProveedorTelefono string  `json:"proveedorTelefono,omitempty"`
	ProveedorEmail    string  `json:"proveedorEmail,omitempty"`
	Notas             string  `json:"notas,omitempty"`
	Activo            bool    `json:"activo"`
}

type StockAdjustment struct {
	TipoMovimiento string `json:"tipoMovimiento"`
	Cantidad       int    `json:"cantidad"`
	Motivo         string `json:"motivo"`
	Referencia     string `json:"referencia,omitempty"`
}
