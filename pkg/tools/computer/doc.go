// Package computer exposes a computer.Computer as a set of XML-argument tools.
//
// Each tool wraps exactly one action of the computer surface. Coordinates are
// viewport pixels; the screen size is reported in every tool description so a
// caller never has to guess it.
//
// # Example Usage
//
//	registry := computer.NewToolRegistry(session)
//	for _, tool := range registry.RegisterTools() {
//	    fmt.Println(tool.Name())
//	}
//
//	tool, _ := registry.Get("computer_click")
//	out, _, err := tool.Execute(ctx, []byte(`<arguments><x>10</x><y>20</y></arguments>`))
package computer
