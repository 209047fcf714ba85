package commands

// CommandDescriptor describe un comando para mostrarlo en la ayuda y en la API.
type CommandDescriptor struct {
	Name        string `json:"name"`
	Usage       string `json:"usage"`
	Description string `json:"description"`
}

// Catalog lista los comandos que entiende el parser con el prefijo dado.
func Catalog(prefix string) []CommandDescriptor {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return []CommandDescriptor{
		{
			Name:        "join",
			Usage:       prefix + " join <n|nombre|*>...",
			Description: "Da acceso a los canales elegidos por posición, parte del nombre o todos.",
		},
		{
			Name:        "leave",
			Usage:       prefix + " leave <n|nombre|*>...",
			Description: "Quita el acceso a los canales elegidos.",
		},
		{
			Name:        "list",
			Usage:       prefix + " list",
			Description: "Lista los canales de la categoría con su posición.",
		},
		{
			Name:        "create",
			Usage:       prefix + " <nombre>",
			Description: "Propone un canal nuevo; se crea cuando junta el quórum de reacciones.",
		},
	}
}
