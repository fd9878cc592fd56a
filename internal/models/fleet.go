package models

// Truck represents a registered fleet truck.
type Truck struct {
	ID    ID     `json:"id"`
	Plate string `json:"placa"`
	Name  string `json:"nome,omitempty"`
}

// Label is the text shown in selection inputs.
func (t Truck) Label() string {
	if t.Name == "" {
		return t.Plate
	}
	return t.Plate + " - " + t.Name
}

// Driver represents a registered driver.
type Driver struct {
	ID      ID     `json:"id"`
	Name    string `json:"nome"`
	License string `json:"cnh,omitempty"`
	Phone   string `json:"telefone,omitempty"`
}

// Client represents a freight customer.
type Client struct {
	ID      ID     `json:"id"`
	Name    string `json:"nome"`
	Phone   string `json:"telefone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"endereco,omitempty"`
}
